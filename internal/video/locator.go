package video

import (
	"log"
	"math"
	"path/filepath"
	"time"
)

// Convention identifies the naming scheme a source file was matched under.
// The offset calculation depends on it.
type Convention string

const (
	ConventionExactMinute      Convention = "exact-minute"
	ConventionExactSecond      Convention = "exact-second"
	ConventionDaily            Convention = "daily"
	ConventionHourly           Convention = "hourly"
	ConventionCameraPrefixed   Convention = "camera-prefixed"
	ConventionNearestTimeOfDay Convention = "nearest-time-of-day"
)

// SourceCandidate is a located recording plus the convention that matched it.
type SourceCandidate struct {
	Path       string
	Convention Convention
}

type searchTier struct {
	convention Convention
	patterns   []string
}

// searchTiers lists the glob patterns tried against the source directory, in
// order; the first tier with a match wins. Layouts follow the conventions
// observed on DVR exports in the field.
func searchTiers(ts time.Time) []searchTier {
	return []searchTier{
		{ConventionExactMinute, []string{
			ts.Format("2006-01-02-15-04") + ".mp4",
			ts.Format("20060102_1504") + ".mp4",
		}},
		{ConventionExactSecond, []string{
			ts.Format("2006-01-02_15-04-05") + ".mp4",
			ts.Format("20060102_150405") + ".mp4",
		}},
		{ConventionDaily, []string{
			ts.Format("2006-01-02") + ".mp4",
			ts.Format("20060102") + ".mp4",
			ts.Format("2006-01-02") + "*.mp4",
			ts.Format("20060102") + "*.mp4",
		}},
		{ConventionHourly, []string{
			ts.Format("2006-01-02-15") + "*.mp4",
			ts.Format("20060102_15") + "*.mp4",
		}},
		{ConventionCameraPrefixed, []string{
			"cam1_" + ts.Format("20060102") + ".mp4",
			"camera1_" + ts.Format("2006-01-02") + ".mp4",
			"recording_" + ts.Format("20060102") + ".mp4",
		}},
	}
}

// Locate searches sourceDir for the recording covering ts. Tiers are tried in
// order; within a tier the first glob match is returned. When every tier
// misses, a same-hour then same-day wildcard pass runs, the latter picking
// the file whose filename-embedded time is closest to the target time of day.
// The daily tier's wildcard patterns already catch most date-prefixed names,
// so the trailing passes only see unconventional layouts. Returns nil when
// nothing matches.
func Locate(ts time.Time, sourceDir string) *SourceCandidate {
	for _, tier := range searchTiers(ts) {
		for _, pattern := range tier.patterns {
			matches, err := filepath.Glob(filepath.Join(sourceDir, pattern))
			if err != nil || len(matches) == 0 {
				continue
			}
			return &SourceCandidate{Path: matches[0], Convention: tier.convention}
		}
	}

	// Same hour, any suffix.
	hourPattern := filepath.Join(sourceDir, ts.Format("2006-01-02-15")+"*.mp4")
	if matches, err := filepath.Glob(hourPattern); err == nil && len(matches) > 0 {
		return &SourceCandidate{Path: matches[0], Convention: ConventionHourly}
	}

	// Same day: pick the file whose embedded time is nearest the target.
	var matches []string
	for _, pattern := range []string{ts.Format("2006-01-02") + "*.mp4", ts.Format("20060102") + "*.mp4"} {
		if found, err := filepath.Glob(filepath.Join(sourceDir, pattern)); err == nil {
			matches = append(matches, found...)
		}
	}
	if len(matches) == 0 {
		log.Printf("No video file found for timestamp %s", ts.Format("2006-01-02 15:04:05"))
		return nil
	}
	if len(matches) == 1 {
		return &SourceCandidate{Path: matches[0], Convention: ConventionDaily}
	}
	if best := nearestByTimeOfDay(matches, ts); best != "" {
		return &SourceCandidate{Path: best, Convention: ConventionNearestTimeOfDay}
	}
	return nil
}

// nearestByTimeOfDay compares the HH-MM embedded in YYYY-MM-DD-HH-MM-prefixed
// filenames against the target time of day. Files whose names do not carry a
// parseable time are skipped.
func nearestByTimeOfDay(matches []string, ts time.Time) string {
	targetSecs := float64(ts.Hour()*3600 + ts.Minute()*60 + ts.Second())

	best := ""
	minDiff := math.Inf(1)
	for _, match := range matches {
		fileTime, ok := timeFromFilename(filepath.Base(match))
		if !ok {
			continue
		}
		fileSecs := float64(fileTime.Hour()*3600 + fileTime.Minute()*60)
		diff := math.Abs(targetSecs - fileSecs)
		if diff < minDiff {
			minDiff = diff
			best = match
		}
	}
	return best
}

// timeFromFilename extracts the HH-MM component of a YYYY-MM-DD-HH-MM name.
// TODO: replace the fixed character offsets with per-convention filename
// parsers once the supported naming schemes are pinned down by config.
func timeFromFilename(base string) (time.Time, bool) {
	if len(base) < 19 {
		return time.Time{}, false
	}
	t, err := time.Parse("15-04", base[11:16])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
