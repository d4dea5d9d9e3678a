package file

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/opd-ai/clipxfer/limits"
	"github.com/sirupsen/logrus"
)

// Source is one file queued for sending.
type Source struct {
	// Path is where the file is read from.
	Path string
	// Name is the slash-separated name relative to the collection root.
	Name    string
	Size    int64
	ModTime time.Time
}

// CollectSources lists the files to send from root. A regular file yields a
// single source named after its base name. A directory yields its regular
// files, descending into subdirectories when recursive is set. When exts is
// non-empty only files with one of those extensions are kept (case-insensitive,
// with or without the leading dot). Sources are ordered by name.
func CollectSources(root string, recursive bool, exts []string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s is not a regular file", ErrSourceFailure, root)
		}
		src := Source{Path: root, Name: filepath.Base(root), Size: info.Size(), ModTime: info.ModTime()}
		if err := limits.ValidateFileName(src.Name); err != nil {
			return nil, err
		}
		return []Source{src}, nil
	}

	filter := normalizeExtensions(exts)
	var sources []Source

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(filter) > 0 && !filter[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if err := limits.ValidateFileName(name); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "CollectSources",
				"path":     path,
				"error":    err.Error(),
			}).Warn("Skipping file with unusable name")
			return nil
		}

		sources = append(sources, Source{Path: path, Name: name, Size: fi.Size(), ModTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", ErrSourceFailure, root, err)
	}

	sortSources(sources)

	logrus.WithFields(logrus.Fields{
		"function":  "CollectSources",
		"root":      root,
		"recursive": recursive,
		"count":     len(sources),
	}).Debug("Collected sources")

	return sources, nil
}

func normalizeExtensions(exts []string) map[string]bool {
	filter := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		filter[e] = true
	}
	return filter
}

// sortSources orders by case-folded name, then by the exact name.
func sortSources(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := strings.ToLower(sources[i].Name), strings.ToLower(sources[j].Name)
		if a != b {
			return a < b
		}
		return sources[i].Name < sources[j].Name
	})
}
