package config

import (
	"os"
)

// Config carries environment-derived settings. DVR/RTSP values are opaque
// strings handed to the video layer; nothing here parses them.
type Config struct {
	UploadDir      string
	ClipsDir       string
	VideoSourceDir string
	DBPath         string
	Port           string
	LogLevel       string

	// Optional video source endpoints
	RTSPStreamURL string
	DVRHost       string
	DVRPort       string
	DVRUsername   string
	DVRPassword   string
	DVRCameraID   string
}

func LoadConfig() *Config {
	config := &Config{
		UploadDir:      getEnv("UPLOAD_DIR", UploadDir),
		ClipsDir:       getEnv("CLIPS_DIR", ClipsDir),
		VideoSourceDir: getEnv("VIDEO_SOURCE_DIR", VideoSourceDir),
		DBPath:         getEnv("DB_PATH", DbPath),
		Port:           getEnv("PORT", Port),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		RTSPStreamURL:  getEnv("RTSP_STREAM_URL", ""),
		DVRHost:        getEnv("DVR_HOST", ""),
		DVRPort:        getEnv("DVR_PORT", "8000"),
		DVRUsername:    getEnv("DVR_USERNAME", "admin"),
		DVRPassword:    getEnv("DVR_PASSWORD", ""),
		DVRCameraID:    getEnv("DVR_CAMERA_ID", "1"),
	}
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
