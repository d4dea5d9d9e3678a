package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// SharedFile is a Transport backed by a regular file that both ends can reach.
type SharedFile struct {
	path   string
	mu     sync.Mutex
	closed bool
}

// NewSharedFile creates a shared-file transport at path. The parent directory
// must exist; the file itself is created on the first Put.
func NewSharedFile(path string) (*SharedFile, error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrTransportFailure, dir)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewSharedFile",
		"path":     path,
	}).Debug("Shared file transport created")

	return &SharedFile{path: path}, nil
}

// Path returns the location of the shared file.
func (s *SharedFile) Path() string {
	return s.path
}

// Put atomically replaces the file content with text.
func (s *SharedFile) Put(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrTransportFailure, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrTransportFailure, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename to %s: %v", ErrTransportFailure, s.path, err)
	}
	return nil
}

// Get returns the file content, or an empty string if it does not exist yet.
func (s *SharedFile) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrTransportFailure, s.path, err)
	}
	return string(data), nil
}

// Close marks the transport closed. The file is left in place.
func (s *SharedFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
