package video

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocateExactMinute(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)
	want := touch(t, dir, "2025-01-01-13-45.mp4")
	touch(t, dir, "2025-01-01.mp4")

	got := Locate(ts, dir)
	if got == nil {
		t.Fatal("Locate returned nil")
	}
	if got.Path != want {
		t.Errorf("Path = %s, want %s (exact match outranks daily)", got.Path, want)
	}
	if got.Convention != ConventionExactMinute {
		t.Errorf("Convention = %s, want %s", got.Convention, ConventionExactMinute)
	}
}

func TestLocateDailyFallback(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)
	want := touch(t, dir, "2025-01-01.mp4")

	got := Locate(ts, dir)
	if got == nil {
		t.Fatal("Locate returned nil")
	}
	if got.Path != want || got.Convention != ConventionDaily {
		t.Errorf("got %+v, want daily %s", got, want)
	}
}

func TestLocateCameraPrefixed(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)
	want := touch(t, dir, "cam1_20250101.mp4")

	got := Locate(ts, dir)
	if got == nil {
		t.Fatal("Locate returned nil")
	}
	if got.Path != want || got.Convention != ConventionCameraPrefixed {
		t.Errorf("got %+v, want camera-prefixed %s", got, want)
	}
}

func TestLocateDailyWildcard(t *testing.T) {
	// A date-prefixed recording is matched by the daily tier's wildcard
	// patterns even when the hour and minute differ from the target.
	tests := []struct {
		name string
		file string
	}{
		{"dashed prefix", "2025-07-04-09-00.mp4"},
		{"compact prefix", "20250704_0900.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			want := touch(t, dir, tt.file)
			ts := time.Date(2025, 7, 4, 15, 30, 0, 0, time.UTC)

			got := Locate(ts, dir)
			if got == nil {
				t.Fatalf("Locate returned nil, want %s", want)
			}
			if got.Path != want {
				t.Errorf("Path = %s, want %s", got.Path, want)
			}
			if got.Convention != ConventionDaily {
				t.Errorf("Convention = %s, want %s", got.Convention, ConventionDaily)
			}
		})
	}
}

func TestSearchTierOrder(t *testing.T) {
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)
	tiers := searchTiers(ts)

	wantOrder := []Convention{
		ConventionExactMinute,
		ConventionExactSecond,
		ConventionDaily,
		ConventionHourly,
		ConventionCameraPrefixed,
	}
	if len(tiers) != len(wantOrder) {
		t.Fatalf("got %d tiers, want %d", len(tiers), len(wantOrder))
	}
	for i, want := range wantOrder {
		if tiers[i].convention != want {
			t.Errorf("tier %d = %s, want %s", i, tiers[i].convention, want)
		}
	}

	daily := tiers[2].patterns
	wantDaily := []string{"2025-01-01.mp4", "20250101.mp4", "2025-01-01*.mp4", "20250101*.mp4"}
	if len(daily) != len(wantDaily) {
		t.Fatalf("daily patterns = %v, want %v", daily, wantDaily)
	}
	for i := range wantDaily {
		if daily[i] != wantDaily[i] {
			t.Errorf("daily pattern %d = %q, want %q", i, daily[i], wantDaily[i])
		}
	}

	hourly := tiers[3].patterns
	wantHourly := []string{"2025-01-01-13*.mp4", "20250101_13*.mp4"}
	for i := range wantHourly {
		if i >= len(hourly) || hourly[i] != wantHourly[i] {
			t.Fatalf("hourly patterns = %v, want %v", hourly, wantHourly)
		}
	}
}

func TestNearestByTimeOfDay(t *testing.T) {
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)
	matches := []string{
		"/footage/2025-01-01-09-00-00.mp4",
		"/footage/2025-01-01-14-30-00.mp4",
		"/footage/noise.mp4",
	}

	got := nearestByTimeOfDay(matches, ts)
	if got != "/footage/2025-01-01-14-30-00.mp4" {
		t.Errorf("nearestByTimeOfDay = %s, want the 14-30 recording", got)
	}

	if got := nearestByTimeOfDay([]string{"/footage/noise.mp4"}, ts); got != "" {
		t.Errorf("nearestByTimeOfDay = %q, want empty when no name carries a time", got)
	}
}

func TestLocateNothing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2024-12-25-09-00-00.mp4")
	ts := time.Date(2025, 1, 1, 13, 45, 0, 0, time.UTC)

	if got := Locate(ts, dir); got != nil {
		t.Errorf("Locate = %+v, want nil for a day with no recordings", got)
	}
}

func TestTimeFromFilename(t *testing.T) {
	tests := []struct {
		base string
		ok   bool
		hhmm string
	}{
		{"2025-01-01-14-30-00.mp4", true, "14-30"},
		{"2025-01-01-09-05-00.mp4", true, "09-05"},
		{"short.mp4", false, ""},
		{"2025-01-01-xx-yy-00.mp4", false, ""},
	}
	for _, tt := range tests {
		got, ok := timeFromFilename(tt.base)
		if ok != tt.ok {
			t.Errorf("timeFromFilename(%q) ok = %v, want %v", tt.base, ok, tt.ok)
			continue
		}
		if ok && got.Format("15-04") != tt.hhmm {
			t.Errorf("timeFromFilename(%q) = %s, want %s", tt.base, got.Format("15-04"), tt.hhmm)
		}
	}
}
