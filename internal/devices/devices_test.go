package devices

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestListSortsByIndexAndReadsNames(t *testing.T) {
	base := t.TempDir()
	devDir := filepath.Join(base, "dev")
	sysClass := filepath.Join(base, "sys")
	for _, node := range []string{"video10", "video2", "video0", "videoX"} {
		if err := os.MkdirAll(devDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(devDir, node), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(sysClass, "video0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sysClass, "video0", "name"), []byte("Integrated Camera\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	devices, err := Lister{DevDir: devDir, SysClass: sysClass}.List(filepath.Join(devDir, "video2"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %+v", devices)
	}
	if devices[0].Index != 0 || devices[1].Index != 2 || devices[2].Index != 10 {
		t.Fatalf("unexpected order %+v", devices)
	}
	if devices[0].Name != "Integrated Camera" {
		t.Fatalf("unexpected name %q", devices[0].Name)
	}
	if !devices[1].Configured || devices[0].Configured {
		t.Fatalf("configured flag not set correctly: %+v", devices)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	devices, err := Lister{DevDir: t.TempDir(), SysClass: t.TempDir()}.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %+v", devices)
	}
}

func TestBuildMatcher(t *testing.T) {
	matcher := buildMatcher()
	tests := []struct {
		name   string
		event  netlink.UEvent
		expect bool
	}{
		{"add camera", netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "video4linux"}}, true},
		{"remove camera", netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"SUBSYSTEM": "video4linux"}}, true},
		{"change camera", netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "video4linux"}}, false},
		{"block device", netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block"}}, false},
	}
	for _, tc := range tests {
		if got := matcher.Evaluate(tc.event); got != tc.expect {
			t.Errorf("%s: Evaluate = %v, want %v", tc.name, got, tc.expect)
		}
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("ignores event without device name", func(t *testing.T) {
		var called bool
		m := NewMonitor("/dev/video0", func(context.Context, Event) { called = true }, nil)
		m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})
		if called {
			t.Error("handler should not be called without a device name")
		}
	})

	t.Run("flags configured device", func(t *testing.T) {
		var got Event
		m := NewMonitor("/dev/video0", func(_ context.Context, e Event) { got = e }, nil)
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.REMOVE,
			Env:    map[string]string{"DEVNAME": "video0", "ID_V4L_PRODUCT": "Integrated Camera"},
		})
		want := Event{Action: "remove", Device: "/dev/video0", Name: "Integrated Camera", Configured: true}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("extracts device from DEVPATH when DEVNAME missing", func(t *testing.T) {
		var got Event
		m := NewMonitor("/dev/video0", func(_ context.Context, e Event) { got = e }, nil)
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVPATH": "/devices/pci0000:00/0000:00:14.0/usb1/1-6/1-6:1.0/video4linux/video2"},
		})
		if got.Device != "/dev/video2" || got.Configured {
			t.Fatalf("unexpected event %+v", got)
		}
	})
}

func TestMonitorNilAndStopSafety(t *testing.T) {
	var nilMonitor *Monitor
	if nilMonitor.Running() {
		t.Error("nil monitor should not be running")
	}
	if err := nilMonitor.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	nilMonitor.Stop()

	m := NewMonitor("", nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("unstarted monitor should not be running")
	}
}
