package internal

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kaizM/Loss-prevention/config"
)

// FileWatcher monitors the upload directory so exports dropped in by SFTP or
// a shared folder get ingested without touching the HTTP API.
type FileWatcher struct {
	watcher        *fsnotify.Watcher
	uploadDir      string
	handle         func(path string)
	processedFiles map[string]time.Time
	logger         *log.Logger

	lastCleanup time.Time
	eventCount  int64
	errorCount  int64
}

// NewFileWatcher creates a watcher over uploadDir. handle is invoked once per
// stable new file.
func NewFileWatcher(uploadDir string, handle func(path string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:        watcher,
		uploadDir:      uploadDir,
		handle:         handle,
		processedFiles: make(map[string]time.Time),
		logger:         log.New(os.Stdout, "[WATCHER] ", log.LstdFlags),
		lastCleanup:    time.Now(),
	}, nil
}

// Start begins monitoring the upload directory for new exports.
func (fw *FileWatcher) Start() error {
	fw.logger.Printf("Starting upload watcher for directory: %s", fw.uploadDir)

	if err := fw.watcher.Add(fw.uploadDir); err != nil {
		return err
	}

	go fw.processEvents()
	return nil
}

func (fw *FileWatcher) processEvents() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				fw.logger.Printf("Upload watcher events channel closed")
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				fw.logger.Printf("Upload watcher errors channel closed")
				return
			}
			fw.errorCount++
			fw.logger.Printf("Upload watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	fw.eventCount++

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if !allowedUpload(event.Name) {
		return
	}

	if fw.isRecentlyProcessed(event.Name) {
		return
	}

	fw.logger.Printf("New export detected: %s", event.Name)
	go fw.processFile(event.Name)
}

func allowedUpload(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range config.GetAllowedUploadExtensions() {
		if ext == allowed {
			return true
		}
	}
	return false
}

// isRecentlyProcessed suppresses the duplicate events fsnotify emits while a
// file is still being written.
func (fw *FileWatcher) isRecentlyProcessed(filePath string) bool {
	now := time.Now()
	if lastProcessed, exists := fw.processedFiles[filePath]; exists {
		if now.Sub(lastProcessed) < 5*time.Second {
			return true
		}
	}
	fw.processedFiles[filePath] = now

	fw.cleanupOldProcessedFiles(now)
	return false
}

func (fw *FileWatcher) cleanupOldProcessedFiles(now time.Time) {
	if len(fw.processedFiles)%100 != 0 {
		return
	}

	cutoff := now.Add(-1 * time.Minute)
	for filePath, lastProcessed := range fw.processedFiles {
		if lastProcessed.Before(cutoff) {
			delete(fw.processedFiles, filePath)
		}
	}
	fw.lastCleanup = now
}

// GetHealthStats returns counters for the health endpoint.
func (fw *FileWatcher) GetHealthStats() map[string]interface{} {
	return map[string]interface{}{
		"processed_files_count": len(fw.processedFiles),
		"total_events":          fw.eventCount,
		"error_count":           fw.errorCount,
		"last_cleanup":          fw.lastCleanup,
		"watcher_active":        fw.watcher != nil,
	}
}

func (fw *FileWatcher) processFile(filePath string) {
	defer func() {
		if r := recover(); r != nil {
			fw.errorCount++
			fw.logger.Printf("Panic processing %s: %v", filePath, r)
		}
	}()

	time.Sleep(config.FileStabilityDelay)

	if !fw.isFileStable(filePath) {
		fw.logger.Printf("File not stable yet, skipping: %s", filePath)
		return
	}

	fw.handle(filePath)
}

// isFileStable checks that the file is no longer being written to.
func (fw *FileWatcher) isFileStable(filePath string) bool {
	info1, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	time.Sleep(config.FileStabilityDelay)

	info2, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	return info1.Size() == info2.Size() && info1.ModTime().Equal(info2.ModTime())
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}
