package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/dukerupert/afisha"
	"github.com/stretchr/testify/require"
)

// createTestImage encodes a width x height gradient as JPEG or PNG.
func createTestImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	require.NoError(t, err)

	return buf.Bytes()
}

// writeSource writes data to a file outside the store's base directory.
func writeSource(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// newTestStore creates a store rooted at a fresh temp directory.
func newTestStore(t *testing.T, cfg afisha.StoreConfig, opts ...Option) *Store {
	t.Helper()

	if cfg.BaseDir == "" {
		cfg.BaseDir = t.TempDir()
	}
	if cfg.PublicURLPrefix == "" {
		cfg.PublicURLPrefix = "http://localhost:8080/media"
	}

	store, err := NewStore(testLogger(), cfg, opts...)
	require.NoError(t, err)
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// listTree returns every path under root, relative and slash-separated.
func listTree(t *testing.T, root string) []string {
	t.Helper()

	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}
