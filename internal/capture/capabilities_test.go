package capture_test

import (
	"testing"

	"interviewcoach/internal/capture"
)

const muxersOutput = `File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E mov             QuickTime / MOV
  E mp4             MP4 (MPEG-4 Part 14)
 DE matroska        Matroska
  E webm            WebM
 D  v4l2            Video4Linux2 device grab
`

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D libvpx               libvpx VP8 (codec vp8)
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libopus              libopus Opus (codec opus)
`

func TestParseListings(t *testing.T) {
	muxers := capture.ParseMuxers(muxersOutput)
	for _, name := range []string{"mov", "mp4", "matroska", "webm"} {
		if !muxers[name] {
			t.Fatalf("expected muxer %q", name)
		}
	}
	if muxers["v4l2"] {
		t.Fatal("demux-only format must not be reported as a muxer")
	}
	if muxers["D."] || muxers["="] {
		t.Fatalf("legend lines leaked into table: %v", muxers)
	}

	encoders := capture.ParseEncoders(encodersOutput)
	for _, name := range []string{"libx264", "libvpx", "aac", "libopus"} {
		if !encoders[name] {
			t.Fatalf("expected encoder %q", name)
		}
	}
	if encoders["libvpx-vp9"] {
		t.Fatal("unexpected encoder libvpx-vp9")
	}
}

func TestCapabilitiesSupports(t *testing.T) {
	caps := capture.Capabilities{
		Muxers:   capture.ParseMuxers(muxersOutput),
		Encoders: capture.ParseEncoders(encodersOutput),
	}
	cases := map[string]bool{
		"video/mp4":                  true,
		"video/quicktime":            true,
		"video/webm":                 true,
		"video/webm;codecs=vp8,opus": true,
		"video/webm;codecs=vp9,opus": false,
		"video/ogg":                  false,
	}
	for mime, want := range cases {
		if got := caps.Supports(mime); got != want {
			t.Fatalf("Supports(%q) = %v, want %v", mime, got, want)
		}
	}
}
