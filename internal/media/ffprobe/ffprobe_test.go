package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckDelivery(t *testing.T) {
	good := Result{
		Streams: []Stream{{CodecType: "video", CodecName: "h264"}, {CodecType: "audio", CodecName: "aac"}},
		Format:  Format{FormatName: "mov,mp4,m4a,3gp,3g2,mj2"},
	}
	if err := good.CheckDelivery(); err != nil {
		t.Fatalf("expected delivery format to pass, got %v", err)
	}

	silent := Result{
		Streams: []Stream{{CodecType: "video", CodecName: "h264"}},
		Format:  Format{FormatName: "mov,mp4,m4a,3gp,3g2,mj2"},
	}
	if err := silent.CheckDelivery(); err != nil {
		t.Fatalf("video-only mp4 should pass, got %v", err)
	}

	cases := map[string]Result{
		"no video stream": {Streams: []Stream{{CodecType: "audio", CodecName: "aac"}}, Format: Format{FormatName: "mp4"}},
		"want h264":       {Streams: []Stream{{CodecType: "video", CodecName: "vp8"}}, Format: Format{FormatName: "mp4"}},
		"want aac":        {Streams: []Stream{{CodecType: "video", CodecName: "h264"}, {CodecType: "audio", CodecName: "opus"}}, Format: Format{FormatName: "mp4"}},
		"want mp4":        {Streams: []Stream{{CodecType: "video", CodecName: "h264"}}, Format: Format{FormatName: "matroska,webm"}},
	}
	for fragment, result := range cases {
		err := result.CheckDelivery()
		if err == nil || !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected error containing %q, got %v", fragment, err)
		}
	}
}

func TestDurationSeconds(t *testing.T) {
	if got := (Result{Format: Format{Duration: "12.5"}}).DurationSeconds(); got != 12.5 {
		t.Fatalf("unexpected duration %v", got)
	}
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for missing duration, got %v", got)
	}
	if got := (Result{Format: Format{Duration: "bad"}}).DurationSeconds(); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":1280,"height":720},{"index":1,"codec_name":"aac","codec_type":"audio","channels":1}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2","duration":"3.2"}}
JSON
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), stub, filepath.Join(dir, "interview.mp4"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	video, ok := result.FirstStream("video")
	if !ok || video.Width != 1280 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if err := result.CheckDelivery(); err != nil {
		t.Fatalf("CheckDelivery: %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
