package pipeline

import (
	"errors"
	"strings"

	"interviewcoach/internal/services"
)

// Status strings shown to the user while a session runs.
const (
	StatusReady         = "Ready to record"
	StatusRecording     = "Recording..."
	StatusFinalizing    = "Finalizing recording..."
	StatusLoadingEngine = "Loading ffmpeg (for mp4 conversion), this may take a moment..."
	StatusConverting    = "Converting recording to MP4..."
	StatusPreparing     = "Preparing upload..."
	StatusUploading     = "Uploading..."
	StatusDone          = "Analysis completed!"
)

const (
	prefixCapture  = "Error accessing camera: "
	prefixDelivery = "Conversion/Upload error: "
	prefixGeneric  = "Error: "
)

// failureStatus is the one place a failure becomes user-facing text.
func failureStatus(err error) string {
	if err == nil {
		return prefixGeneric + "unknown failure"
	}
	message := strings.TrimSpace(err.Error())
	var uploadErr *services.UploadError
	if errors.As(err, &uploadErr) {
		message = strings.TrimSpace(uploadErr.Error())
	}
	switch services.Classify(err) {
	case services.ErrPermissionDenied, services.ErrDeviceUnavailable, services.ErrRecorderInit:
		return prefixCapture + message
	case services.ErrTranscode, services.ErrUpload, services.ErrEmptyRecording:
		return prefixDelivery + message
	default:
		return prefixGeneric + message
	}
}
