package cli

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/app"
	"github.com/seuros/pacer/internal/blobstore"
	"github.com/seuros/pacer/internal/config"
)

func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fnErr := fn()

	_ = w.Close()
	os.Stdout = originalStdout

	output, readErr := io.ReadAll(r)
	require.NoError(t, readErr)
	_ = r.Close()

	return string(output), fnErr
}

// stubApp routes every command to one shared in-memory backend so state
// survives across command invocations within a test.
func stubApp(t *testing.T) *blobstore.MemoryStore {
	t.Helper()
	blobs := blobstore.NewMemoryStore()
	cfg := &config.Config{
		StorageBackend: config.BackendMemory,
		Port:           "3000",
		WeekStart:      time.Monday,
		Location:       time.UTC,
	}

	originalLoad := loadConfig
	originalOpen := openApp
	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	openApp = func(ctx context.Context, cfg *config.Config) (*app.App, error) {
		return app.NewWithBlobStore(ctx, cfg, blobs, zap.NewNop())
	}
	t.Cleanup(func() {
		loadConfig = originalLoad
		openApp = originalOpen
	})
	return blobs
}

func stubTerminal(t *testing.T, isTerminal bool) {
	t.Helper()
	original := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return isTerminal }
	t.Cleanup(func() {
		stdoutIsTerminal = original
	})
}
