package internal

import (
	"os"
	"path/filepath"
	"time"
)

// RetentionManager deletes clip date folders older than the retention window.
// Disabled by default; evidence clips are usually kept until reviewed.
type RetentionManager struct {
	store         *Store
	clipsDir      string
	retentionDays int
	interval      time.Duration
	stop          chan struct{}
}

func NewRetentionManager(store *Store, clipsDir string, retentionDays int) *RetentionManager {
	return &RetentionManager{
		store:         store,
		clipsDir:      clipsDir,
		retentionDays: retentionDays,
		interval:      24 * time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start launches the daily cleanup loop.
func (rm *RetentionManager) Start() {
	LogInfo("Starting clip retention manager (%d days)", rm.retentionDays)
	go rm.run()
}

// Stop signals the cleanup loop to exit.
func (rm *RetentionManager) Stop() {
	close(rm.stop)
}

func (rm *RetentionManager) run() {
	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	rm.Sweep()
	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
			rm.Sweep()
		}
	}
}

// Sweep removes clip folders whose date is past the retention window. Clip
// folders are named YYYY-MM-DD; anything else in the clips directory is left
// alone.
func (rm *RetentionManager) Sweep() {
	cutoff := time.Now().AddDate(0, 0, -rm.retentionDays)

	entries, err := os.ReadDir(rm.clipsDir)
	if err != nil {
		LogWarn("Retention sweep could not read clips directory: %v", err)
		return
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folderDate, err := time.Parse("2006-01-02", entry.Name())
		if err != nil {
			continue
		}
		if !folderDate.Before(cutoff) {
			continue
		}
		path := filepath.Join(rm.clipsDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			LogError("Retention sweep failed to remove %s: %v", path, err)
			continue
		}
		if n, err := rm.store.ClearClipsUnder(path); err != nil {
			LogError("Retention sweep could not clear clip references under %s: %v", path, err)
		} else if n > 0 {
			LogInfo("Cleared %d clip references under %s", n, path)
		}
		removed++
	}
	if removed > 0 {
		LogInfo("Retention sweep removed %d expired clip folders", removed)
	}
}
