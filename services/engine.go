package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// AudioEngine interface defines the decoding capabilities the server
// consumes: probing a file's duration and extracting a re-encoded excerpt.
type AudioEngine interface {
	Probe(ctx context.Context, path string) (float64, error)
	Extract(ctx context.Context, path string, startMS, endMS uint64, format string) ([]byte, error)
}

// ffmpegEngine implements AudioEngine by shelling out to ffmpeg/ffprobe.
type ffmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegEngine creates an audio engine backed by the ffmpeg tools on PATH.
func NewFFmpegEngine() AudioEngine {
	return &ffmpegEngine{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

// Probe runs ffprobe to read the total duration of an audio file in seconds.
func (e *ffmpegEngine) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, strings.TrimSpace(string(out)))
	}
	return duration, nil
}

// Extract runs ffmpeg to re-encode the [startMS, endMS) range of the file
// into the same container format and returns the encoded bytes. The
// intermediate file is removed on every exit path.
func (e *ffmpegEngine) Extract(ctx context.Context, path string, startMS, endMS uint64, format string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "excerpt-*."+format)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-loglevel", "error",
		"-ss", msToSeconds(startMS),
		"-to", msToSeconds(endMS),
		"-i", path,
		tmpName,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract %s: %s: %w", filepath.Base(path), strings.TrimSpace(string(out)), err)
	}

	data, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, fmt.Errorf("read excerpt: %w", err)
	}
	return data, nil
}

func msToSeconds(ms uint64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
