// Package photo is the image-source side of the diary: it asks for access to
// a photo library and hands back references to the images the user picked.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrCancelled is returned by Pick when the user picked nothing.
	ErrCancelled = errors.New("photo selection cancelled")
	// ErrNotImage is returned when a picked file is not an image.
	ErrNotImage = errors.New("not an image")
)

// Source is the collaborator the entry editor draws photos from.
type Source interface {
	// RequestPermission reports whether the library may be read.
	RequestPermission(ctx context.Context) (bool, error)
	// Pick returns at most max image references.
	Pick(ctx context.Context, max int) ([]string, error)
}

// Library keeps imported copies of picked images under Dir, so entries keep
// working after the originals move.
type Library struct {
	Dir string
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

// RequestPermission checks that the library directory can be created and
// written to.
func (l *Library) RequestPermission(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("creating photo library: %w", err)
	}
	probe, err := os.CreateTemp(l.Dir, ".probe-*")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("probing photo library: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return true, nil
}

// Import copies the image at path into the library and returns the new
// reference. Files that do not sniff as images are rejected.
func (l *Library) Import(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, filepath.Base(path), mtype.String())
	}

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating photo library: %w", err)
	}
	dst := filepath.Join(l.Dir, uuid.NewString()+mtype.Extension())

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copying %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	return dst, nil
}

// Files is a Source over a fixed list of candidate paths, such as files
// named on the command line or typed into the browser.
type Files struct {
	Library *Library
	Paths   []string
}

// RequestPermission defers to the library.
func (f Files) RequestPermission(ctx context.Context) (bool, error) {
	return f.Library.RequestPermission(ctx)
}

// Pick imports up to max of the candidate paths, in order.
func (f Files) Pick(ctx context.Context, max int) ([]string, error) {
	paths := f.Paths
	if len(paths) == 0 {
		return nil, ErrCancelled
	}
	if max < len(paths) {
		paths = paths[:max]
	}
	refs := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref, err := f.Library.Import(p)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
