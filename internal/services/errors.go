package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrRecorderInit      = errors.New("recorder init error")
	ErrTranscode         = errors.New("transcode error")
	ErrUpload            = errors.New("upload error")
	ErrEmptyRecording    = errors.New("empty recording")
	ErrExternalTool      = errors.New("external tool error")
	ErrConfiguration     = errors.New("configuration error")
)

// Wrap builds an error message that includes phase context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UploadError reports a failed analysis upload. StatusCode is zero when the
// failure happened before a response was received.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("upload failed: %d %s: %v", e.StatusCode, strings.TrimSpace(e.Body), e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("upload failed: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	default:
		return "upload failed"
	}
}

func (e *UploadError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrUpload for every UploadError.
func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// Classify returns the first sentinel marker found in err, or nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range []error{
		ErrPermissionDenied,
		ErrDeviceUnavailable,
		ErrRecorderInit,
		ErrEmptyRecording,
		ErrTranscode,
		ErrUpload,
		ErrConfiguration,
		ErrExternalTool,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// Kind returns a stable short label for err's marker, used in logs and metrics.
func Kind(err error) string {
	switch Classify(err) {
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrDeviceUnavailable:
		return "device_unavailable"
	case ErrRecorderInit:
		return "recorder_init"
	case ErrEmptyRecording:
		return "empty_recording"
	case ErrTranscode:
		return "transcode"
	case ErrUpload:
		return "upload"
	case ErrConfiguration:
		return "configuration"
	case ErrExternalTool:
		return "external_tool"
	default:
		if err == nil {
			return ""
		}
		return "unknown"
	}
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
