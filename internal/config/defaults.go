package config

const (
	defaultConfigPath          = "~/.config/interviewcoach/config.toml"
	defaultStateDir            = "~/.local/share/interviewcoach"
	defaultRecordingsDir       = "~/.local/share/interviewcoach/sessions"
	defaultVideoDevice         = "/dev/video0"
	defaultAudioDevice         = "default"
	defaultInputFormat         = "v4l2"
	defaultAudioInputFormat    = "alsa"
	defaultChunkBytes          = 64 * 1024
	defaultAnalysisEndpoint    = "https://squid-app-xh7j9.ondigitalocean.app/api/v1/analyze-interview"
	defaultAnalysisFieldName   = "file"
	defaultAnalysisFilename    = "interview.mp4"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 10
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 30
	endpointEnvVar             = "INTERVIEWCOACH_ENDPOINT"
	ntfyTopicEnvVar            = "INTERVIEWCOACH_NTFY_TOPIC"
	defaultTranscodeValidation = true
)

// defaultPreferredFormats lists recording formats in preference order. Formats
// the analysis service accepts natively come first.
func defaultPreferredFormats() []string {
	return []string{"video/mp4", "video/quicktime", "video/webm;codecs=vp8,opus", "video/webm"}
}

// defaultCanonicalFormats lists recorded formats that are uploaded without re-encoding.
func defaultCanonicalFormats() []string {
	return []string{"video/mp4", "video/quicktime"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			RecordingsDir: defaultRecordingsDir,
		},
		Capture: Capture{
			VideoDevice:      defaultVideoDevice,
			AudioDevice:      defaultAudioDevice,
			InputFormat:      defaultInputFormat,
			AudioInputFormat: defaultAudioInputFormat,
			PreferredFormats: defaultPreferredFormats(),
			ChunkBytes:       defaultChunkBytes,
		},
		Transcode: Transcode{
			FFmpegBinary:     "ffmpeg",
			FFprobeBinary:    "ffprobe",
			CanonicalFormats: defaultCanonicalFormats(),
			ValidateOutput:   defaultTranscodeValidation,
		},
		Analysis: Analysis{
			Endpoint:  defaultAnalysisEndpoint,
			FieldName: defaultAnalysisFieldName,
			Filename:  defaultAnalysisFilename,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Analysis:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
