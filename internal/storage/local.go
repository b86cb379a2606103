// Package storage provides file persistence for user uploads.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores uploaded files on the local filesystem under a single
// root directory and serves them by relative name.
type LocalStorage struct {
	root      string
	publicURL string
}

// NewLocalStorage creates the root directory if needed. publicURL is the
// path prefix under which stored files are served, e.g. "/uploads".
func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{
		root:      root,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Save writes the reader's contents under a uuid-prefixed name derived from
// filename and returns the stored name and its public URL.
func (s *LocalStorage) Save(r io.Reader, filename string) (name string, url string, err error) {
	base := sanitizeFilename(filename)
	name = uuid.NewString() + "_" + base

	path := filepath.Join(s.root, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", "", fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("write file: %w", err)
	}

	return name, s.publicURL + "/" + name, nil
}

// Open returns a reader for a stored file. Names that escape the storage
// root are rejected.
func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path) // #nosec G304: path is validated by resolve
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStorage) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Root returns the storage root directory.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "..") ||
		strings.ContainsRune(cleaned, os.PathSeparator) ||
		strings.ContainsRune(cleaned, '/') {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.root, cleaned), nil
}

// sanitizeFilename strips directories and characters that would be unsafe in
// a stored name, keeping the extension so served files get a sensible type.
func sanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "file"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
