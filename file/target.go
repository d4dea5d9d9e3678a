package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// defaultName is used for frames that carry no source name.
const defaultName = "unknown"

// Target describes where received files are written.
type Target struct {
	path   string
	dir    bool
	append bool
}

// FileTarget writes every received file to the single path given.
func FileTarget(path string) Target {
	return Target{path: path}
}

// DirectoryTarget writes each received file under dir using its relative name.
func DirectoryTarget(dir string) Target {
	return Target{path: dir, dir: true}
}

// WithAppend returns a copy of t that appends to existing outputs instead of
// truncating them.
func (t Target) WithAppend(enabled bool) Target {
	t.append = enabled
	return t
}

// IsZero reports whether no target was configured.
func (t Target) IsZero() bool {
	return t.path == ""
}

// IsDirectory reports whether t is a directory target.
func (t Target) IsDirectory() bool {
	return t.dir
}

// String returns the configured path.
func (t Target) String() string {
	return t.path
}

// ValidatePath checks if a relative name is safe to place under an output
// directory. It returns the cleaned, OS-specific path or ErrDirectoryTraversal.
func ValidatePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrDirectoryTraversal)
	}

	// Names travel with forward slashes; accept backslashes from Windows senders.
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: absolute path %q", ErrDirectoryTraversal, name)
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrDirectoryTraversal, name)
		}
	}

	cleaned := filepath.Clean(filepath.FromSlash(slashed))
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q names no file", ErrDirectoryTraversal, name)
	}
	return cleaned, nil
}

// Resolve returns the output path for a received name.
func (t Target) Resolve(name string) (string, error) {
	if !t.dir {
		return t.path, nil
	}
	if name == "" {
		name = defaultName
	}
	rel, err := ValidatePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(t.path, rel), nil
}

// Open creates the output for name, making parent directories as needed.
func (t Target) Open(name string) (*os.File, string, error) {
	path, err := t.Resolve(name)
	if err != nil {
		return nil, "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", fmt.Errorf("%w: create directory for %s: %v", ErrOutputFailure, path, err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if t.append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %s: %v", ErrOutputFailure, path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Target.Open",
		"name":     name,
		"path":     path,
		"append":   t.append,
	}).Debug("Output opened")

	return f, path, nil
}
