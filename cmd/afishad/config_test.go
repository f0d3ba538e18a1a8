package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, afisha.DefaultDirFanout, cfg.StoreDirFanout)
	assert.Equal(t, afisha.DefaultFileFanout, cfg.StoreFileFanout)
	assert.Equal(t, "images", cfg.StoreImageSubdir)
	assert.Equal(t, int64(imaging.DefaultMaxPixels), cfg.StoreMaxPixels)
	assert.Equal(t, "none", cfg.ReplicaProvider)
	assert.Equal(t, int64(10*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, "postgresql://postgres:@localhost:5432/postgres", cfg.DatabaseURL())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	cfg, err := LoadConfig(envMap(map[string]string{
		"SERVER_PORT":        "9090",
		"STORE_BASE_DIR":     "/srv/media",
		"STORE_PUBLIC_URL":   "https://cdn.example.com/media",
		"STORE_IMAGE_SUBDIR": "img",
		"STORE_DIR_FANOUT":   "9",
		"STORE_FILE_FANOUT":  "99",
		"STORE_MAX_PIXELS":   "1000000",
		"REPLICA_PROVIDER":   "s3",
		"S3_BUCKET":          "afisha-media",
		"S3_PREFIX":          "prod",
		"UPLOAD_RATE":        "0.5",
		"SHUTDOWN_TIMEOUT":   "3s",
		"DB_PASSWORD":        "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 0.5, cfg.UploadRate)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1000000), cfg.StoreMaxPixels)

	storeCfg, err := cfg.StoreConfig()
	require.NoError(t, err)
	assert.Equal(t, afisha.StoreConfig{
		BaseDir:         "/srv/media",
		PublicURLPrefix: "https://cdn.example.com/media",
		ImageSubdir:     "img",
		DirFanout:       9,
		FileFanout:      99,
		ReplicaProvider: "s3",
		S3Bucket:        "afisha-media",
		S3Region:        "us-east-1",
		S3Prefix:        "prod",
	}, storeCfg)
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	cfg, err := LoadConfig(envMap(map[string]string{
		"SERVER_PORT":      "eighty",
		"STORE_DIR_FANOUT": "lots",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, afisha.DefaultDirFanout, cfg.StoreDirFanout)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "s3 without bucket",
			env:     map[string]string{"REPLICA_PROVIDER": "s3"},
			wantErr: "S3_BUCKET",
		},
		{
			name:    "unknown replica",
			env:     map[string]string{"REPLICA_PROVIDER": "gcs"},
			wantErr: "REPLICA_PROVIDER",
		},
		{
			name:    "negative fanout",
			env:     map[string]string{"STORE_FILE_FANOUT": "-5"},
			wantErr: "FANOUT",
		},
		{
			name:    "zero pixel limit",
			env:     map[string]string{"STORE_MAX_PIXELS": "0"},
			wantErr: "STORE_MAX_PIXELS",
		},
		{
			name:    "production with localhost url",
			env:     map[string]string{"ENVIRONMENT": "production"},
			wantErr: "STORE_PUBLIC_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreConfig_RelativeBaseDir(t *testing.T) {
	cfg, err := LoadConfig(envMap(map[string]string{"STORE_BASE_DIR": "media"}))
	require.NoError(t, err)

	storeCfg, err := cfg.StoreConfig()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "media"), storeCfg.BaseDir)
	assert.Empty(t, storeCfg.ReplicaProvider)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, &Config{Environment: "production", LogLevel: "warn"}).Warn("stored", "path", "a/1.jpg")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "production logs are JSON")

	buf.Reset()
	logger := newLogger(&buf, &Config{Environment: "dev", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AFISHA_TEST_ENV_VALUE=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("AFISHA_TEST_ENV_VALUE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("AFISHA_TEST_ENV_VALUE"))
}
