package capture

import (
	"path/filepath"
	"strings"
)

// Profile maps a recording MIME type onto ffmpeg muxer and encoder names.
type Profile struct {
	MIMEType     string
	Muxer        string
	VideoEncoder string
	AudioEncoder string
	Extension    string
	// MuxerArgs are needed to write the container to a non-seekable pipe.
	MuxerArgs []string
}

var codecEncoders = map[string]string{
	"vp8":    "libvpx",
	"vp9":    "libvpx-vp9",
	"av1":    "libaom-av1",
	"h264":   "libx264",
	"avc1":   "libx264",
	"opus":   "libopus",
	"vorbis": "libvorbis",
	"aac":    "aac",
	"mp4a":   "aac",
}

// ProfileFor resolves the ffmpeg profile for mimeType.
func ProfileFor(mimeType string) (Profile, bool) {
	base := BaseType(mimeType)
	var profile Profile
	switch base {
	case "video/mp4":
		profile = Profile{Muxer: "mp4", VideoEncoder: "libx264", AudioEncoder: "aac", Extension: ".mp4",
			MuxerArgs: []string{"-movflags", "frag_keyframe+empty_moov+default_base_moof"}}
	case "video/quicktime":
		profile = Profile{Muxer: "mov", VideoEncoder: "libx264", AudioEncoder: "aac", Extension: ".mov",
			MuxerArgs: []string{"-movflags", "frag_keyframe+empty_moov"}}
	case "video/webm":
		profile = Profile{Muxer: "webm", VideoEncoder: "libvpx", AudioEncoder: "libopus", Extension: ".webm"}
	case "video/x-matroska":
		profile = Profile{Muxer: "matroska", VideoEncoder: "libx264", AudioEncoder: "libopus", Extension: ".mkv"}
	default:
		return Profile{}, false
	}
	profile.MIMEType = mimeType

	for _, codec := range Codecs(mimeType) {
		name, _, _ := strings.Cut(codec, ".")
		encoder, ok := codecEncoders[name]
		if !ok {
			return Profile{}, false
		}
		switch name {
		case "opus", "vorbis", "aac", "mp4a":
			profile.AudioEncoder = encoder
		default:
			profile.VideoEncoder = encoder
		}
	}
	return profile, true
}

// Extension returns the file extension used to store a recording of mimeType.
func Extension(mimeType string) string {
	if profile, ok := ProfileFor(mimeType); ok {
		return profile.Extension
	}
	return ".bin"
}

// MIMETypeForPath guesses the recording MIME type from a file extension.
func MIMETypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov", ".qt":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
