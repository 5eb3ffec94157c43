package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"interviewcoach/internal/logging"
)

type ffmpegEncoder struct {
	opts    FFmpegOptions
	profile Profile
	logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	done    chan struct{}
	emitted int64
	readErr error
	started bool
	stopped bool
	waited  bool
	waitErr error
	stopErr error
}

func (e *ffmpegEncoder) args() []string {
	args := []string{"-hide_banner", "-loglevel", "error",
		"-f", e.opts.InputFormat, "-i", e.opts.VideoDevice}
	if audioEnabled(e.opts) {
		args = append(args, "-f", e.opts.AudioInputFormat, "-i", e.opts.AudioDevice)
	}
	args = append(args, "-c:v", e.profile.VideoEncoder)
	switch e.profile.VideoEncoder {
	case "libx264":
		args = append(args, "-preset", "veryfast", "-pix_fmt", "yuv420p")
	case "libvpx", "libvpx-vp9":
		args = append(args, "-deadline", "realtime", "-cpu-used", "8", "-b:v", "1M")
	}
	if audioEnabled(e.opts) {
		args = append(args, "-c:a", e.profile.AudioEncoder)
	}
	args = append(args, e.profile.MuxerArgs...)
	return append(args, "-f", e.profile.Muxer, "pipe:1")
}

// Start launches ffmpeg and pumps stdout into chunks of at most ChunkBytes.
// A process that exits before emitting anything within the startup grace
// period is reported as a start failure.
func (e *ffmpegEncoder) Start(onChunk func(Chunk)) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("encoder already started")
	}
	e.started = true

	cmd := exec.Command(e.opts.Binary, e.args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	cmd.Stderr = &e.stderr
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	e.cmd = cmd
	e.stdin = stdin
	e.done = make(chan struct{})
	e.mu.Unlock()

	e.logger.Debug("ffmpeg capture started", logging.String("args", strings.Join(e.args(), " ")))
	go e.pump(stdout, onChunk)

	select {
	case <-e.done:
		e.mu.Lock()
		emitted := e.emitted
		e.mu.Unlock()
		if emitted == 0 {
			waitErr := e.wait()
			return fmt.Errorf("ffmpeg exited during startup: %s", e.describeFailure(waitErr))
		}
	case <-time.After(e.opts.StartupGrace):
	}
	return nil
}

func (e *ffmpegEncoder) pump(stdout io.Reader, onChunk func(Chunk)) {
	defer close(e.done)
	buf := make([]byte, e.opts.ChunkBytes)
	for {
		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			e.mu.Lock()
			e.emitted += int64(n)
			e.mu.Unlock()
			if onChunk != nil {
				onChunk(Chunk{Data: data, MIMEType: e.profile.MIMEType})
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				e.mu.Lock()
				e.readErr = err
				e.mu.Unlock()
			}
			return
		}
	}
}

// Stop asks ffmpeg to finish the container ("q" on stdin), waits for the last
// chunk, and kills the process if it does not exit within StopTimeout.
func (e *ffmpegEncoder) Stop() error {
	e.mu.Lock()
	if !e.started || e.cmd == nil {
		e.mu.Unlock()
		return nil
	}
	if e.stopped {
		err := e.stopErr
		e.mu.Unlock()
		return err
	}
	e.stopped = true
	stdin := e.stdin
	e.mu.Unlock()

	_, _ = io.WriteString(stdin, "q")
	_ = stdin.Close()

	killed := false
	select {
	case <-e.done:
	case <-time.After(e.opts.StopTimeout):
		killed = true
		if e.cmd.Process != nil {
			_ = e.cmd.Process.Kill()
		}
		<-e.done
	}
	waitErr := e.wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.readErr != nil:
		e.stopErr = fmt.Errorf("read ffmpeg output: %w", e.readErr)
	case killed:
		e.stopErr = fmt.Errorf("ffmpeg did not stop within %s", e.opts.StopTimeout)
	case waitErr != nil:
		e.stopErr = fmt.Errorf("ffmpeg capture: %s", e.describeFailure(waitErr))
	}
	return e.stopErr
}

func (e *ffmpegEncoder) wait() error {
	e.mu.Lock()
	if e.waited {
		err := e.waitErr
		e.mu.Unlock()
		return err
	}
	e.waited = true
	e.mu.Unlock()

	err := e.cmd.Wait()

	e.mu.Lock()
	e.waitErr = err
	e.mu.Unlock()
	return err
}

func (e *ffmpegEncoder) describeFailure(err error) string {
	detail := strings.TrimSpace(e.stderr.String())
	if len(detail) > 512 {
		detail = detail[len(detail)-512:]
	}
	switch {
	case err != nil && detail != "":
		return fmt.Sprintf("%v: %s", err, detail)
	case err != nil:
		return err.Error()
	case detail != "":
		return detail
	default:
		return "no output"
	}
}
