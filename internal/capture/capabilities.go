package capture

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Capabilities is the muxer and encoder table of an ffmpeg build.
type Capabilities struct {
	Muxers   map[string]bool
	Encoders map[string]bool
}

// Supports reports whether mimeType can be recorded with these capabilities.
func (c Capabilities) Supports(mimeType string) bool {
	profile, ok := ProfileFor(mimeType)
	if !ok {
		return false
	}
	return c.Muxers[profile.Muxer] && c.Encoders[profile.VideoEncoder] && c.Encoders[profile.AudioEncoder]
}

// ProbeCapabilities queries binary for its muxers and encoders.
func ProbeCapabilities(ctx context.Context, binary string) (Capabilities, error) {
	muxers, err := runListing(ctx, binary, "-muxers")
	if err != nil {
		return Capabilities{}, err
	}
	encoders, err := runListing(ctx, binary, "-encoders")
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{Muxers: ParseMuxers(muxers), Encoders: ParseEncoders(encoders)}, nil
}

func runListing(ctx context.Context, binary, flag string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", flag)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", binary, flag, err)
	}
	return string(output), nil
}

// ParseMuxers parses `ffmpeg -muxers` output. Lines look like
// "  E mp4             MP4 (MPEG-4 Part 14)"; comma-separated names are split.
func ParseMuxers(output string) map[string]bool {
	return parseListing(output, func(flags string) bool {
		return strings.Contains(flags, "E")
	})
}

// ParseEncoders parses `ffmpeg -encoders` output. Lines look like
// " V....D libx264              libx264 H.264 / AVC".
func ParseEncoders(output string) map[string]bool {
	return parseListing(output, func(flags string) bool {
		return len(flags) == 6 && strings.ContainsAny(flags[:1], "VAS")
	})
}

func parseListing(output string, accept func(flags string) bool) map[string]bool {
	table := make(map[string]bool)
	inBody := false
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if !inBody {
			if strings.HasPrefix(trimmed, "--") {
				inBody = true
			}
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 || !accept(fields[0]) {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			if name = strings.TrimSpace(name); name != "" && name != "=" {
				table[name] = true
			}
		}
	}
	return table
}
