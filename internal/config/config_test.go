package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var keys = []string{
	"RIPENESS_API_ADDR", "RIPENESS_DATA_DIR", "RIPENESS_INFERENCE_URL", "RIPENESS_INFERENCE_TIMEOUT",
	"RIPENESS_INFERENCE_INSECURE_TLS", "RIPENESS_BLOB_BACKEND", "RIPENESS_STORAGE_PREFIX",
	"RIPENESS_S3_BUCKET", "RIPENESS_S3_REGION", "RIPENESS_S3_ENDPOINT", "RIPENESS_ROLLBACK_TIMEOUT",
	"RIPENESS_MAX_UPLOAD_KB",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "http://localhost:8000", cfg.InferenceURL)
	require.Equal(t, 30*time.Second, cfg.InferenceTimeout)
	require.Equal(t, 10*time.Second, cfg.RollbackTimeout)
	require.False(t, cfg.InferenceInsecureTLS)
	require.Equal(t, BackendLocal, cfg.BlobBackend)
	require.Equal(t, "cc", cfg.StoragePrefix)
	require.Equal(t, int64(2048*1024), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RIPENESS_INFERENCE_URL", "https://model.internal")
	t.Setenv("RIPENESS_INFERENCE_TIMEOUT", "5s")
	t.Setenv("RIPENESS_INFERENCE_INSECURE_TLS", "true")
	t.Setenv("RIPENESS_BLOB_BACKEND", "S3")
	t.Setenv("RIPENESS_S3_BUCKET", "kantong01")
	t.Setenv("RIPENESS_MAX_UPLOAD_KB", "512")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://model.internal", cfg.InferenceURL)
	require.Equal(t, 5*time.Second, cfg.InferenceTimeout)
	require.True(t, cfg.InferenceInsecureTLS)
	require.Equal(t, BackendS3, cfg.BlobBackend)
	require.Equal(t, "kantong01", cfg.S3Bucket)
	require.Equal(t, int64(512*1024), cfg.MaxUploadBytes)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"RIPENESS_INFERENCE_TIMEOUT":      "soon",
		"RIPENESS_INFERENCE_INSECURE_TLS": "maybe",
		"RIPENESS_MAX_UPLOAD_KB":          "-1",
		"RIPENESS_BLOB_BACKEND":           "ftp",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("RIPENESS_BLOB_BACKEND", "s3")
	_, err := Load()
	require.ErrorContains(t, err, "RIPENESS_S3_BUCKET")
}
