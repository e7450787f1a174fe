package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

type Config struct {
	Addr    string
	DataDir string

	InferenceURL         string
	InferenceTimeout     time.Duration
	InferenceInsecureTLS bool

	BlobBackend     string
	StoragePrefix   string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	RollbackTimeout time.Duration

	MaxUploadBytes int64
}

func Load() (Config, error) {
	cfg := Config{
		Addr:          getenv("RIPENESS_API_ADDR", ":8080"),
		DataDir:       getenv("RIPENESS_DATA_DIR", "local-data"),
		InferenceURL:  getenv("RIPENESS_INFERENCE_URL", "http://localhost:8000"),
		BlobBackend:   strings.ToLower(getenv("RIPENESS_BLOB_BACKEND", BackendLocal)),
		StoragePrefix: getenv("RIPENESS_STORAGE_PREFIX", "cc"),
		S3Bucket:      os.Getenv("RIPENESS_S3_BUCKET"),
		S3Region:      os.Getenv("RIPENESS_S3_REGION"),
		S3Endpoint:    os.Getenv("RIPENESS_S3_ENDPOINT"),
	}

	var err error
	if cfg.InferenceTimeout, err = getenvDuration("RIPENESS_INFERENCE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RollbackTimeout, err = getenvDuration("RIPENESS_ROLLBACK_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.InferenceInsecureTLS, err = getenvBool("RIPENESS_INFERENCE_INSECURE_TLS", false); err != nil {
		return Config{}, err
	}
	maxKB, err := getenvInt("RIPENESS_MAX_UPLOAD_KB", 2048)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(maxKB) << 10

	switch cfg.BlobBackend {
	case BackendLocal, BackendSQLite:
	case BackendS3:
		if cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("RIPENESS_S3_BUCKET is required for the s3 blob backend")
		}
	default:
		return Config{}, fmt.Errorf("RIPENESS_BLOB_BACKEND: unknown backend %q", cfg.BlobBackend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func getenvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: invalid value %q", key, raw)
	}
	return v, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch raw {
	case "":
		return fallback, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s: invalid boolean %q", key, raw)
}
