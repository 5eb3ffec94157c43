package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Default locations of device nodes and their sysfs descriptions.
const (
	DefaultDevDir   = "/dev"
	DefaultSysClass = "/sys/class/video4linux"
)

// Device is one video4linux node.
type Device struct {
	Path       string `json:"path"`
	Name       string `json:"name,omitempty"`
	Index      int    `json:"index"`
	Configured bool   `json:"configured"`
}

// Lister enumerates camera nodes.
type Lister struct {
	DevDir   string
	SysClass string
}

// List returns /dev/video* nodes sorted by index. configured marks the
// node interviewcoach records from.
func (l Lister) List(configured string) ([]Device, error) {
	devDir := l.DevDir
	if devDir == "" {
		devDir = DefaultDevDir
	}
	sysClass := l.SysClass
	if sysClass == "" {
		sysClass = DefaultSysClass
	}

	matches, err := filepath.Glob(filepath.Join(devDir, "video*"))
	if err != nil {
		return nil, fmt.Errorf("list video devices: %w", err)
	}
	devices := make([]Device, 0, len(matches))
	for _, path := range matches {
		node := filepath.Base(path)
		index, err := strconv.Atoi(strings.TrimPrefix(node, "video"))
		if err != nil {
			continue
		}
		devices = append(devices, Device{
			Path:       path,
			Name:       readName(sysClass, node),
			Index:      index,
			Configured: configured != "" && filepath.Clean(configured) == filepath.Clean(path),
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })
	return devices, nil
}

func readName(sysClass, node string) string {
	data, err := os.ReadFile(filepath.Join(sysClass, node, "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
