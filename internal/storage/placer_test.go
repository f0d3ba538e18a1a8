package storage

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/dukerupert/afisha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns an intn replacement that yields values in order.
func sequence(values ...int) func(int) int {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		v := values[i%len(values)]
		i++
		return v % n
	}
}

func TestPlacer_Place(t *testing.T) {
	tests := []struct {
		name       string
		subdir     string
		ext        string
		wantPrefix string
		wantDepth  int
	}{
		{"no subdir", "", ".txt", "", 2},
		{"single subdir", "img", ".jpg", "img/", 3},
		{"nested subdir", "img/event/posters", ".png", "img/event/posters/", 5},
		{"subdir with empty and dot segments", "./img//b/", ".gif", "img/b/", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			source := writeSource(t, "source.bin", []byte("Temp file"))
			p := NewPlacer(base, 0, 0)

			rel, err := p.Place(source, tt.ext, tt.subdir, nil)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(rel, tt.wantPrefix), "path %q", rel)
			assert.Equal(t, tt.ext, filepath.Ext(rel))
			assert.Len(t, strings.Split(rel, "/"), tt.wantDepth)
			assert.NotContains(t, rel, "..")
			assert.False(t, filepath.IsAbs(rel))

			pattern := regexp.MustCompile(`^(?:[^/]+/)*([0-9]+)/([0-9]+)` + regexp.QuoteMeta(tt.ext) + `$`)
			assert.Regexp(t, pattern, rel)

			content, err := os.ReadFile(p.FullPath(rel))
			require.NoError(t, err)
			assert.Equal(t, "Temp file", string(content))
		})
	}
}

func TestPlacer_LabelsWithinFanout(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 3, 5)

	for i := 0; i < 50; i++ {
		rel, err := p.Place(source, ".bin", "", nil)
		if err != nil {
			// With 15 slots the tree eventually fills up.
			assert.True(t, afisha.IsErrorCode(err, afisha.ECONFLICT))
			break
		}
		parts := strings.Split(rel, "/")
		assert.Contains(t, []string{"1", "2", "3"}, parts[0])
		assert.Contains(t, []string{"1.bin", "2.bin", "3.bin", "4.bin", "5.bin"}, parts[1])
	}
}

func TestPlacer_RetriesOnCollision(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("new"))
	p := NewPlacer(base, 99, 999)

	// First candidate is 5/7.txt (occupied), second is 6/8.txt.
	p.intn = sequence(4, 6, 5, 7)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "5"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "5", "7.txt"), []byte("old"), 0644))

	rel, err := p.Place(source, ".txt", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "6/8.txt", rel)

	old, err := os.ReadFile(filepath.Join(base, "5", "7.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old), "existing file must not be overwritten")
}

func TestPlacer_ExhaustedAttempts(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 1, 1)

	_, err := p.Place(source, ".bin", "", nil)
	require.NoError(t, err)

	_, err = p.Place(source, ".bin", "", nil)
	require.Error(t, err)
	assert.True(t, afisha.IsErrorCode(err, afisha.ECONFLICT))
}

func TestPlacer_Errors(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 0, 0)

	tests := []struct {
		name     string
		source   string
		ext      string
		subdir   string
		wantCode string
	}{
		{"missing source", filepath.Join(base, "nope"), ".txt", "", afisha.ENOTFOUND},
		{"directory source", base, ".txt", "", afisha.ENOTFOUND},
		{"parent traversal", source, ".txt", "img/../../etc", afisha.EINVALID},
		{"absolute subdir", source, ".txt", "/etc", afisha.EINVALID},
		{"extension with separator", source, "/x.txt", "", afisha.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := p.Place(tt.source, tt.ext, tt.subdir, nil)
			require.Error(t, err)
			assert.Empty(t, rel)
			assert.Equal(t, tt.wantCode, afisha.ErrorCode(err))
		})
	}

	assert.Empty(t, listTree(t, base), "failed placements must not create directories")
}

func TestPlacer_MaterializeFailureRemovesReservation(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 0, 0)
	p.intn = sequence(0, 0)

	failing := func(source, target string) error {
		require.NoError(t, os.WriteFile(target, []byte("partial"), 0644))
		return errors.New("disk full")
	}

	rel, err := p.Place(source, ".bin", "b", failing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaterialize)
	assert.Empty(t, rel)

	_, statErr := os.Stat(filepath.Join(base, "b", "1", "1.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlacer_MkdirFailureIsFatal(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 0, 0)

	// A regular file where the subdirectory should be.
	require.NoError(t, os.WriteFile(filepath.Join(base, "img"), []byte("x"), 0644))

	_, err := p.Place(source, ".bin", "img", nil)
	require.Error(t, err)
	assert.True(t, afisha.IsErrorCode(err, afisha.EINTERNAL))
}

func TestPlacer_DistinctPaths(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	p := NewPlacer(base, 0, 0)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		rel, err := p.Place(source, ".bin", "b", nil)
		require.NoError(t, err)
		assert.False(t, seen[rel], "duplicate path %s", rel)
		seen[rel] = true
	}
}

func TestPlacer_Concurrent(t *testing.T) {
	base := t.TempDir()
	source := writeSource(t, "source.bin", []byte("x"))
	// Small fanout forces shared shard directories and collisions.
	p := NewPlacer(base, 2, 1000)

	const workers = 16
	const perWorker = 10

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths []string
		errs  []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rel, err := p.Place(source, ".bin", "event/a", nil)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					paths = append(paths, rel)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	unique := make(map[string]struct{}, len(paths))
	for _, rel := range paths {
		unique[rel] = struct{}{}
		_, err := os.Stat(p.FullPath(rel))
		assert.NoError(t, err)
	}
	assert.Len(t, unique, workers*perWorker)
}

func TestCopyFile(t *testing.T) {
	source := writeSource(t, "a.txt", []byte("hello"))
	target := filepath.Join(t.TempDir(), "b.txt")

	require.NoError(t, CopyFile(source, target))
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	assert.Error(t, CopyFile(filepath.Join(t.TempDir(), "missing"), target))
}
