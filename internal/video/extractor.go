package video

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kaizM/Loss-prevention/internal/strategy"
)

var (
	// ErrVideoNotFound means the locator exhausted every search tier.
	ErrVideoNotFound = errors.New("no matching video source found")
	// ErrToolUnavailable means the ffmpeg binary is missing or broken.
	ErrToolUnavailable = errors.New("ffmpeg is not available")
	// ErrNotConfigured marks extraction methods whose endpoint is unset.
	ErrNotConfigured = errors.New("source not configured")
)

// Endpoints carries the video-source configuration for one extraction call.
// It is passed in explicitly so tests can inject fixtures; nothing here reads
// process-wide state.
type Endpoints struct {
	SourceDir string
	ClipsDir  string

	RTSPStreamURL string
	DVRHost       string
	DVRPort       string
	DVRUsername   string
	DVRPassword   string
	DVRCameraID   string

	// Timeouts for external invocations. Zero values fall back to defaults.
	LocalTimeout  time.Duration
	StreamTimeout time.Duration
	DVRTimeout    time.Duration

	PreRoll  time.Duration
	PostRoll time.Duration
}

func (e Endpoints) localTimeout() time.Duration  { return orDefault(e.LocalTimeout, 30*time.Second) }
func (e Endpoints) streamTimeout() time.Duration { return orDefault(e.StreamTimeout, 60*time.Second) }
func (e Endpoints) dvrTimeout() time.Duration    { return orDefault(e.DVRTimeout, 60*time.Second) }
func (e Endpoints) preRoll() time.Duration       { return orDefault(e.PreRoll, 90*time.Second) }
func (e Endpoints) postRoll() time.Duration      { return orDefault(e.PostRoll, 30*time.Second) }

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// ClipRequest identifies the transaction a clip is being cut for. The fields
// are embedded in the output filename, which keeps concurrent extraction for
// different transactions collision-free.
type ClipRequest struct {
	Timestamp       time.Time
	TransactionType string
	CashierID       string
}

// OutputPath resolves the date-bucketed clip path for a request.
func (e Endpoints) OutputPath(req ClipRequest) string {
	name := fmt.Sprintf("%s_%s_Cashier%s.mp4",
		sanitizeComponent(req.TransactionType),
		req.Timestamp.Format("2006-01-02_15-04-05"),
		sanitizeComponent(req.CashierID))
	return filepath.Join(e.ClipsDir, req.Timestamp.Format("2006-01-02"), name)
}

func sanitizeComponent(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	return replacer.Replace(s)
}

// CreateClip produces an evidence clip bracketing the transaction timestamp
// (pre-roll before, post-roll after). Methods are tried once each, in fixed
// order: DVR HTTP export, RTSP stream, local file. The first success wins;
// when all three fail the clip is reported unavailable with the combined
// diagnostics, never a panic.
func (e Endpoints) CreateClip(req ClipRequest) (string, error) {
	clipStart := req.Timestamp.Add(-e.preRoll())
	clipEnd := req.Timestamp.Add(e.postRoll())
	outputPath := e.OutputPath(req)

	steps := []strategy.Step[string]{
		{Name: "dvr", Run: func() (string, error) {
			return e.extractFromDVR(outputPath, clipStart, clipEnd)
		}},
		{Name: "rtsp", Run: func() (string, error) {
			return e.extractFromRTSP(outputPath, clipStart, clipEnd)
		}},
		{Name: "local", Run: func() (string, error) {
			return e.extractFromLocal(outputPath, clipStart, clipEnd)
		}},
	}

	path, method, err := strategy.Run(steps)
	if err != nil {
		log.Printf("Clip extraction failed for %s: %v", req.Timestamp.Format("2006-01-02 15:04:05"), err)
		return "", err
	}
	log.Printf("Created clip via %s: %s", method, path)
	return path, nil
}

// extractFromRTSP transcodes a segment off the configured stream. The seek
// offset is computed the same way as for files; it is not synchronized to
// the stream start, a known limitation of RTSP sources without metadata.
func (e Endpoints) extractFromRTSP(outputPath string, clipStart, clipEnd time.Time) (string, error) {
	if e.RTSPStreamURL == "" {
		return "", ErrNotConfigured
	}
	if !ffmpegAvailable() {
		return "", ErrToolUnavailable
	}

	offset := ComputeOffset(e.RTSPStreamURL, clipStart)
	duration := clipEnd.Sub(clipStart).Seconds()

	args := []string{
		"-y",
		"-rtsp_transport", "tcp",
		"-i", e.RTSPStreamURL,
		"-ss", formatSeconds(offset),
		"-t", formatSeconds(duration),
		outputPath,
	}
	return outputPath, e.runFFmpeg(args, outputPath, e.streamTimeout())
}

// extractFromLocal stream-copies the segment out of a located recording.
// No re-encoding keeps this fast enough to run inline per transaction.
func (e Endpoints) extractFromLocal(outputPath string, clipStart, clipEnd time.Time) (string, error) {
	source := Locate(clipStart, e.SourceDir)
	if source == nil {
		return "", ErrVideoNotFound
	}
	if !ffmpegAvailable() {
		return "", ErrToolUnavailable
	}

	offset := ComputeOffset(source.Path, clipStart)
	duration := clipEnd.Sub(clipStart).Seconds()

	args := []string{
		"-y",
		"-i", source.Path,
		"-ss", formatSeconds(offset),
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	}
	return outputPath, e.runFFmpeg(args, outputPath, e.localTimeout())
}

// runFFmpeg invokes ffmpeg with a hard timeout and removes any partial
// output on failure.
func (e Endpoints) runFFmpeg(args []string, outputPath string, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create clip directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(outputPath)
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg timed out after %s", timeout)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(string(out), 300))
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
