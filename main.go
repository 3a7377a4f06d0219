// main.go
package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kaizM/Loss-prevention/config"
	"github.com/kaizM/Loss-prevention/internal"
	httpx "github.com/kaizM/Loss-prevention/internal/http"
	"github.com/kaizM/Loss-prevention/internal/video"
)

func main() {
	log.Printf("=== Loss Prevention Service Starting ===")

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded configuration from .env")
	}

	cfg := config.LoadConfig()
	internal.InitLogger(internal.GetLogLevelFromString(cfg.LogLevel), "")
	internal.LogInfo("Configuration: uploadDir=%s, clipsDir=%s, port=%s", cfg.UploadDir, cfg.ClipsDir, cfg.Port)

	for _, dir := range []string{cfg.UploadDir, cfg.ClipsDir, cfg.VideoSourceDir, filepath.Dir(cfg.DBPath)} {
		_ = os.MkdirAll(dir, 0755)
	}

	db, err := internal.OpenDB(cfg.DBPath)
	if err != nil {
		internal.LogFatal("Failed to open database: %v", err)
	}
	store := internal.NewStore(db)

	endpoints := video.Endpoints{
		SourceDir:     cfg.VideoSourceDir,
		ClipsDir:      cfg.ClipsDir,
		RTSPStreamURL: cfg.RTSPStreamURL,
		DVRHost:       cfg.DVRHost,
		DVRPort:       cfg.DVRPort,
		DVRUsername:   cfg.DVRUsername,
		DVRPassword:   cfg.DVRPassword,
		DVRCameraID:   cfg.DVRCameraID,
		LocalTimeout:  config.LocalCopyTimeout,
		StreamTimeout: config.StreamCopyTimeout,
		DVRTimeout:    config.DVRExportTimeout,
		PreRoll:       config.ClipPreRoll,
		PostRoll:      config.ClipPostRoll,
	}

	clipProcessor := internal.NewClipProcessor(store, endpoints)
	clipProcessor.Start()
	defer clipProcessor.Stop()

	processor := internal.NewUploadProcessor(store, clipProcessor)

	var watcher *internal.FileWatcher
	if config.FileWatcherEnabled {
		watcher, err = internal.NewFileWatcher(cfg.UploadDir, func(path string) {
			if _, _, err := processor.ProcessUpload(filepath.Base(path), path); err != nil {
				internal.LogError("Watcher ingest failed for %s: %v", path, err)
			}
		})
		if err != nil {
			internal.LogFatal("Failed to create upload watcher: %v", err)
		}
		if err := watcher.Start(); err != nil {
			internal.LogFatal("Failed to start upload watcher: %v", err)
		}
		defer func() { _ = watcher.Stop() }()
	} else {
		internal.LogInfo("Upload watcher disabled")
	}

	if config.RetentionEnabled {
		retention := internal.NewRetentionManager(store, cfg.ClipsDir, config.RetentionDays)
		retention.Start()
		defer retention.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(httpx.CompressionMiddleware())

	httpx.Routes(r, httpx.Deps{
		Store:     store,
		Processor: processor,
		Watcher:   watcher,
		Endpoints: endpoints,
		Cfg:       cfg,
	})

	internal.LogInfo("HTTP server on %s", cfg.Port)
	server := &http.Server{
		Addr:         cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		internal.LogFatal("HTTP server exited: %v", err)
	}
}
