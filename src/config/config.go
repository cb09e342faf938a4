package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	PDFPassword        string
	Port               string
	LogLevel           string
	LedgerPath         string
	DownloadsDir       string
	MaxUploadSizeBytes int64
	CacheExpiration    time.Duration
	CacheCleanup       time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// The statement password has no sane default: without it every upload
	// fails decryption.
	pdfPassword := os.Getenv("PDF_PASSWORD")
	if pdfPassword == "" {
		log.Fatalf("FATAL: PDF_PASSWORD not set in environment or .env file.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "52428800")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 50MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 50 * 1024 * 1024
	}

	downloadsDir := getEnv("DOWNLOADS_DIR", "")
	if downloadsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			downloadsDir = filepath.Join(home, "Downloads")
		}
	}

	Cfg = &AppConfig{
		PDFPassword:        pdfPassword,
		Port:               getEnv("PORT", "8000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LedgerPath:         getEnv("LEDGER_PATH", "./SBI_Transactions.csv"),
		DownloadsDir:       downloadsDir,
		MaxUploadSizeBytes: maxUploadSizeBytes,
		CacheExpiration:    getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
		CacheCleanup:       getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, LedgerPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.LedgerPath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if fallback != "" {
		log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
