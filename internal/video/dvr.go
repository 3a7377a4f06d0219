package video

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/icholy/digest"
)

// dvrExportPaths are the export CGI endpoints seen across DVR firmwares.
// Tried in order against every candidate port and auth mode.
var dvrExportPaths = []string{
	"/cgi-bin/export-cgi",
	"/ISAPI/ContentMgmt/download",
	"/export",
}

// extractFromDVR asks the recorder itself to export the window over HTTP.
// Firmwares disagree on port, path, and auth scheme, so every combination
// is attempted until one answers 200 with a video body.
func (e Endpoints) extractFromDVR(outputPath string, clipStart, clipEnd time.Time) (string, error) {
	if e.DVRHost == "" {
		return "", ErrNotConfigured
	}

	query := url.Values{
		"channel": {e.dvrChannel()},
		"start":   {clipStart.Format("2006-01-02T15:04:05")},
		"end":     {clipEnd.Format("2006-01-02T15:04:05")},
	}

	var lastErr error
	for _, port := range e.dvrPorts() {
		for _, path := range dvrExportPaths {
			endpoint := fmt.Sprintf("http://%s:%s%s?%s", e.DVRHost, port, path, query.Encode())
			for _, client := range e.dvrClients() {
				if err := e.downloadExport(client, endpoint, outputPath); err != nil {
					lastErr = err
					continue
				}
				return outputPath, nil
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no export endpoint responded on %s", e.DVRHost)
	}
	return "", lastErr
}

func (e Endpoints) dvrChannel() string {
	if e.DVRCameraID != "" {
		return e.DVRCameraID
	}
	return "1"
}

// dvrPorts lists candidate HTTP ports: the configured one first, then the
// common DVR defaults, deduplicated.
func (e Endpoints) dvrPorts() []string {
	ports := []string{}
	seen := map[string]bool{}
	for _, p := range []string{e.DVRPort, "8000", "80"} {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		ports = append(ports, p)
	}
	return ports
}

// dvrClients returns one HTTP client per auth mode: basic, digest, and
// unauthenticated. Without credentials only the bare client is tried.
func (e Endpoints) dvrClients() []*http.Client {
	timeout := e.dvrTimeout()
	bare := &http.Client{Timeout: timeout}
	if e.DVRUsername == "" {
		return []*http.Client{bare}
	}
	basic := &http.Client{
		Timeout:   timeout,
		Transport: basicAuthTransport{username: e.DVRUsername, password: e.DVRPassword},
	}
	digested := &http.Client{
		Timeout: timeout,
		Transport: &digest.Transport{
			Username: e.DVRUsername,
			Password: e.DVRPassword,
		},
	}
	return []*http.Client{basic, digested, bare}
}

type basicAuthTransport struct {
	username string
	password string
}

func (t basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// downloadExport streams the response body to outputPath. Anything other
// than a 200 with a video content type is rejected; application/octet-stream
// is also accepted because several DVR firmwares label mp4 exports that way.
// A partial file left by a failed copy is removed.
func (e Endpoints) downloadExport(client *http.Client, endpoint, outputPath string) error {
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("dvr request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dvr export returned status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") && contentType != "application/octet-stream" {
		return fmt.Errorf("dvr export returned non-video content type %q", contentType)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create clip directory: %w", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create clip file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(outputPath)
		return fmt.Errorf("failed to write clip: %w", err)
	}
	return out.Close()
}
