package capture

import (
	"errors"

	"golang.org/x/sys/unix"

	"interviewcoach/internal/services"
)

// openDevice opens a V4L2 node so access problems surface before ffmpeg runs.
func openDevice(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, classifyOpenError(path, err)
	}
	return fd, nil
}

func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return services.Wrap(services.ErrPermissionDenied, "capturing", "open device", path, err)
	case errors.Is(err, unix.EBUSY):
		return services.Wrap(services.ErrDeviceUnavailable, "capturing", "open device", path+" is busy", err)
	default:
		return services.Wrap(services.ErrDeviceUnavailable, "capturing", "open device", path, err)
	}
}

func closeDevice(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}
