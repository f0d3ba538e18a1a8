package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/afisha"
)

// MaxPlaceAttempts bounds the number of candidate paths tried by Place.
const MaxPlaceAttempts = 64

// ErrMaterialize is wrapped by Place when the materializer fails.
var ErrMaterialize = errors.New("materialize failed")

// Materializer writes the content for source into target. Target already
// exists as an empty file reserved by the placer.
type Materializer func(source, target string) error

// Placer reserves unique paths in a randomized directory tree rooted at
// baseDir and materializes files into them.
type Placer struct {
	baseDir    string
	dirFanout  int
	fileFanout int

	// intn returns a value in [0, n). Tests replace it.
	intn func(n int) int
}

// NewPlacer creates a placer. Non-positive fanouts fall back to the
// defaults.
func NewPlacer(baseDir string, dirFanout, fileFanout int) *Placer {
	if dirFanout <= 0 {
		dirFanout = afisha.DefaultDirFanout
	}
	if fileFanout <= 0 {
		fileFanout = afisha.DefaultFileFanout
	}
	return &Placer{
		baseDir:    baseDir,
		dirFanout:  dirFanout,
		fileFanout: fileFanout,
		intn:       rand.IntN,
	}
}

// FullPath resolves a relative path against the base directory.
func (p *Placer) FullPath(relativePath string) string {
	return filepath.Join(p.baseDir, filepath.FromSlash(relativePath))
}

// Place copies source into a new file named <random><ext> inside
// subdir/<random shard>/ and returns its slash-separated relative path.
//
// The path is reserved with an exclusive create, so concurrent placers
// never share a file. If materialize fails the reserved file is removed
// and the returned error wraps ErrMaterialize.
func (p *Placer) Place(source, ext, subdir string, materialize Materializer) (string, error) {
	start := time.Now()
	defer func() { placementDuration.Observe(time.Since(start).Seconds()) }()

	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		return "", afisha.NotFound("source file not found: %s", source)
	}
	if strings.ContainsAny(ext, `/\`) {
		return "", afisha.Invalid("invalid file extension: %q", ext)
	}
	prefix, err := splitSubdir(subdir)
	if err != nil {
		return "", err
	}
	if materialize == nil {
		materialize = CopyFile
	}

	for attempt := 0; attempt < MaxPlaceAttempts; attempt++ {
		segments := append(prefix[:len(prefix):len(prefix)], p.label(p.dirFanout))
		if err := p.ensureDirs(segments); err != nil {
			placementsTotal.WithLabelValues(outcomeError).Inc()
			return "", err
		}

		relativePath := path.Join(append(segments, p.label(p.fileFanout)+ext)...)
		target := p.FullPath(relativePath)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			pathCollisionsTotal.Inc()
			continue
		}
		if err != nil {
			placementsTotal.WithLabelValues(outcomeError).Inc()
			return "", afisha.Internal("Failed to reserve file", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(target)
			placementsTotal.WithLabelValues(outcomeError).Inc()
			return "", afisha.Internal("Failed to reserve file", err)
		}

		if err := materialize(source, target); err != nil {
			os.Remove(target)
			placementsTotal.WithLabelValues(outcomeMaterialize).Inc()
			return "", fmt.Errorf("%w: %s: %w", ErrMaterialize, relativePath, err)
		}

		placementsTotal.WithLabelValues(outcomePlaced).Inc()
		return relativePath, nil
	}

	placementsTotal.WithLabelValues(outcomeExhausted).Inc()
	return "", afisha.Conflict("no free path in %q after %d attempts", subdir, MaxPlaceAttempts)
}

// label returns a random decimal label in [1, n].
func (p *Placer) label(n int) string {
	return strconv.Itoa(p.intn(n) + 1)
}

// ensureDirs creates every prefix of segments under baseDir. Directories
// created concurrently by another placer are not an error.
func (p *Placer) ensureDirs(segments []string) error {
	for i := 1; i <= len(segments); i++ {
		dir := p.FullPath(path.Join(segments[:i]...))
		if err := os.Mkdir(dir, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
			return afisha.Internal("Failed to create directory", err)
		}
	}
	return nil
}

// ValidateSubdir reports whether subdir is a relative path that stays
// inside the directory it is joined to. It returns an EINVALID error
// otherwise.
func ValidateSubdir(subdir string) error {
	_, err := splitSubdir(subdir)
	return err
}

// splitSubdir splits a logical subdirectory into path segments, dropping
// empty and "." segments. Absolute paths and ".." are rejected.
func splitSubdir(subdir string) ([]string, error) {
	subdir = filepath.ToSlash(subdir)
	if strings.HasPrefix(subdir, "/") {
		return nil, afisha.Invalid("subdirectory must be relative: %q", subdir)
	}

	var segments []string
	for _, s := range strings.Split(subdir, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return nil, afisha.Invalid("subdirectory must not contain '..': %q", subdir)
		}
		segments = append(segments, s)
	}
	return segments, nil
}

// CopyFile is the default Materializer: a byte-for-byte copy.
func CopyFile(source, target string) error {
	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to save file: %w", err)
	}
	return dst.Close()
}
