package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/example/ripeness/api-go/internal/blob"
	"github.com/example/ripeness/api-go/internal/calibrate"
	"github.com/example/ripeness/api-go/internal/config"
	"github.com/example/ripeness/api-go/internal/detect"
	"github.com/example/ripeness/api-go/internal/httpapi"
	"github.com/example/ripeness/api-go/internal/inference"
	"github.com/joho/godotenv"
)

func main() {
	loadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	blobs, err := openBlobStore(cfg)
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}

	if cfg.InferenceInsecureTLS {
		log.Printf("WARNING: TLS verification disabled for inference service %s", cfg.InferenceURL)
	}
	client := inference.New(inference.Options{
		BaseURL:            cfg.InferenceURL,
		Timeout:            cfg.InferenceTimeout,
		InsecureSkipVerify: cfg.InferenceInsecureTLS,
	})

	detector := &detect.Service{
		Blobs:           blobs,
		Backend:         client,
		Calibrator:      calibrate.New(nil),
		Prefix:          cfg.StoragePrefix,
		CallTimeout:     cfg.InferenceTimeout,
		RollbackTimeout: cfg.RollbackTimeout,
	}

	server := httpapi.Server{
		Detector:       detector,
		Fruits:         client,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	log.Printf("API listening on %s (inference=%s, blobs=%s)", cfg.Addr, cfg.InferenceURL, cfg.BlobBackend)
	if err := http.ListenAndServe(cfg.Addr, server.Router()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func openBlobStore(cfg config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BackendS3:
		return blob.NewS3(context.Background(), blob.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return blob.OpenSQLite(filepath.Join(cfg.DataDir, "blobs.db"))
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return blob.LocalFS{Root: cfg.DataDir}, nil
	}
}

func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
