package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/storage"
	"github.com/dukerupert/afisha/mock"
	"github.com/stretchr/testify/require"
)

const testPublicURL = "http://cdn.example.com/media"

type testDeps struct {
	images  *mock.ImageService
	kinds   *mock.ImageKindService
	baseDir string
}

// newTestServer wires mocks for persistence and a real store in a temp dir.
func newTestServer(t *testing.T, cfg Config) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		images:  &mock.ImageService{},
		kinds:   &mock.ImageKindService{},
		baseDir: t.TempDir(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Store == nil {
		store, err := storage.NewStore(logger, afisha.StoreConfig{
			BaseDir:         deps.baseDir,
			PublicURLPrefix: testPublicURL,
		})
		require.NoError(t, err)
		cfg.Store = store
	}

	cfg.Logger = logger
	cfg.ImageService = deps.images
	cfg.ImageKindService = deps.kinds

	s := NewServer(cfg)
	t.Cleanup(func() {
		if s.limiter != nil {
			s.limiter.Shutdown()
		}
	})
	return s, deps
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a request with data in the "image" field.
func multipartRequest(t *testing.T, method, target string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if data != nil {
		part, err := writer.CreateFormFile("image", "upload.bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// storedFiles lists the regular files under root.
func storedFiles(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
