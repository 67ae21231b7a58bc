package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultMaxUpload = 5_000_000
	defaultBodyLimit = 12 << 20 // two full-size images plus form fields
)

type Config struct {
	Port            string
	CardsFile       string
	UploadDir       string
	UploadURLPrefix string
	MaxUploadBytes  int64
	BodyLimit       int
	PublicBaseURL   string
	TemplatesDir    string
	LogFile         string
	LogLevel        string
}

// Load reads the environment, after overlaying an optional .env file from
// the working directory (or ENV_FILE when set).
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[warn] could not load %s: %v", envFile, err)
	}

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		CardsFile:       getenv("CARDS_FILE", "cards.json"),
		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),
		UploadURLPrefix: getenv("UPLOAD_URL_PREFIX", "uploads"),
		MaxUploadBytes:  int64(getint("MAX_UPLOAD_BYTES", defaultMaxUpload)),
		BodyLimit:       getint("BODY_LIMIT", defaultBodyLimit),
		PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
		TemplatesDir:    getenv("TEMPLATES_DIR", "./web/templates"),
		LogFile:         os.Getenv("LOG_FILE"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
	log.Printf("[config] PORT=%s CARDS_FILE=%s UPLOAD_DIR=%s UPLOAD_URL_PREFIX=%s MAX_UPLOAD_BYTES=%d PUBLIC_BASE_URL=%s LOG_FILE=%s",
		cfg.Port, cfg.CardsFile, cfg.UploadDir, cfg.UploadURLPrefix, cfg.MaxUploadBytes, cfg.PublicBaseURL, cfg.LogFile)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[warn] ignoring invalid %s=%q", key, v)
		return def
	}
	return n
}
