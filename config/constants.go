package config

import "time"

// Application constants
const (
	// Directory paths
	UploadDir      = "data/uploads"
	ClipsDir       = "data/clips"
	VideoSourceDir = "data/video_source"
	DbPath         = "data/loss_prevention.db"

	// Network configuration
	Port = ":8080"

	// Clip window around a transaction timestamp
	ClipPreRoll  = 90 * time.Second
	ClipPostRoll = 30 * time.Second

	// External tool timeouts
	LocalCopyTimeout  = 30 * time.Second
	StreamCopyTimeout = 60 * time.Second
	DVRExportTimeout  = 60 * time.Second
	ProbeTimeout      = 10 * time.Second

	// Upload watcher configuration
	FileWatcherEnabled = true
	FileStabilityDelay = 100 * time.Millisecond

	// Clip retention
	RetentionEnabled = false
	RetentionDays    = 90
)

// GetAllowedUploadExtensions returns the export file types accepted for ingestion.
func GetAllowedUploadExtensions() []string {
	return []string{".csv", ".xls", ".xlsx"}
}
