package video

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// ConnectionStatus reports which extraction paths are usable right now.
type ConnectionStatus struct {
	FFmpeg     bool   `json:"ffmpeg"`
	LocalFiles bool   `json:"local_files"`
	RTSP       bool   `json:"rtsp"`
	DVR        bool   `json:"dvr"`
	Detail     string `json:"detail,omitempty"`
}

var (
	ffmpegOnce  sync.Once
	ffmpegFound bool
)

// ffmpegAvailable memoizes the binary lookup; the result cannot change
// within a process lifetime that matters here.
func ffmpegAvailable() bool {
	ffmpegOnce.Do(func() {
		_, err := exec.LookPath("ffmpeg")
		ffmpegFound = err == nil
	})
	return ffmpegFound
}

// TestConnections probes each configured source. It is diagnostic only and
// never blocks longer than the probe timeout per source.
func (e Endpoints) TestConnections(probeTimeout time.Duration) ConnectionStatus {
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}

	status := ConnectionStatus{FFmpeg: ffmpegAvailable()}
	status.LocalFiles = e.hasLocalRecordings()
	status.RTSP = e.probeRTSP(probeTimeout)
	status.DVR = e.probeDVR(probeTimeout)

	if !status.FFmpeg {
		status.Detail = "ffmpeg binary not found on PATH"
	}
	return status
}

func (e Endpoints) hasLocalRecordings() bool {
	if e.SourceDir == "" {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(e.SourceDir, "*.mp4"))
	return err == nil && len(matches) > 0
}

// probeRTSP opens the stream with ffprobe over TCP. A short analyzeduration
// keeps the probe from stalling on slow cameras.
func (e Endpoints) probeRTSP(timeout time.Duration) bool {
	if e.RTSPStreamURL == "" || !ffmpegAvailable() {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-rtsp_transport", "tcp",
		"-analyzeduration", "3000000",
		"-v", "error",
		"-show_entries", "format=duration",
		e.RTSPStreamURL,
	)
	return cmd.Run() == nil
}

// probeDVR checks whether the recorder answers HTTP at all. An auth
// challenge counts as reachable; the export attempt sorts credentials out.
func (e Endpoints) probeDVR(timeout time.Duration) bool {
	if e.DVRHost == "" {
		return false
	}

	client := &http.Client{Timeout: timeout}
	for _, port := range e.dvrPorts() {
		resp, err := client.Get(fmt.Sprintf("http://%s:%s/", e.DVRHost, port))
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	return false
}
