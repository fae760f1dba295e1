// Package framework reads the review framework documents from disk and picks
// the ones a review request asks for.
package framework

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"review-framework-api/internal/common/config"
	"review-framework-api/internal/common/errors"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/common/metrics"
)

// Store reads framework files from a single directory. It keeps no state
// between calls: every LoadAll re-reads and re-parses the directory.
type Store struct {
	directory string
	extension string
	root      string
	logger    logger.Logger
}

type StoreOption func(*Store)

// WithRoot sets the directory RootDirectories lists. Defaults to the working directory.
func WithRoot(root string) StoreOption {
	return func(s *Store) {
		s.root = root
	}
}

func NewStore(cfg config.FrameworkConfig, log logger.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	ext := cfg.Extension
	if ext == "" {
		ext = config.DefaultExtension
	}
	dir := cfg.Directory
	if dir == "" {
		dir = config.DefaultFrameworkDir
	}

	s := &Store{
		directory: dir,
		extension: ext,
		root:      ".",
		logger:    log.With(map[string]interface{}{"component": "framework-store", "directory": dir}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Directory() string {
	return s.directory
}

func (s *Store) Extension() string {
	return s.extension
}

func (s *Store) DirectoryExists() bool {
	info, err := os.Stat(s.directory)
	return err == nil && info.IsDir()
}

// LoadAll parses every file in the directory that carries the configured
// extension. Unreadable or malformed files are logged and left out; a missing
// directory yields an empty map.
func (s *Store) LoadAll() map[string]interface{} {
	files := make(map[string]interface{})

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Framework directory does not exist", nil)
		} else {
			s.logger.Error("Failed to read framework directory", map[string]interface{}{
				"error": err.Error(),
			})
		}
		metrics.FrameworkFilesLoaded.Set(0)
		return files
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, s.extension) {
			continue
		}

		doc, err := s.parse(name)
		if err != nil {
			metrics.FrameworkLoadErrors.Inc()
			s.logger.Error("Error loading framework file", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		files[name] = doc
		s.logger.Debug("Loaded framework file", map[string]interface{}{"file": name})
	}

	metrics.FrameworkFilesLoaded.Set(float64(len(files)))
	return files
}

// ReadFile reads one file by name straight from the directory, bypassing the
// extension filter. name is normalized before the lookup.
func (s *Store) ReadFile(name string) (interface{}, error) {
	name = NormalizeName(name, s.extension)
	if !isPlainName(name) {
		return nil, errors.NewFrameworkFileNotFoundError(name, s.directory)
	}

	info, err := os.Stat(filepath.Join(s.directory, name))
	if err != nil || info.IsDir() {
		return nil, errors.NewFrameworkFileNotFoundError(name, s.directory)
	}

	doc, err := s.parse(name)
	if err != nil {
		return nil, errors.NewFrameworkFileInvalidError(name, err)
	}
	return doc, nil
}

// ListEntries returns every file name in the directory, JSON or not, sorted.
func (s *Store) ListEntries() []string {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// RootDirectories lists the directories next to the framework directory's
// expected location, which helps diagnose a misconfigured path.
func (s *Store) RootDirectories() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return []string{}
	}
	dirs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Names returns the sorted keys of a loaded file map.
func Names(files map[string]interface{}) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) parse(name string) (interface{}, error) {
	data, err := os.ReadFile(filepath.Join(s.directory, name))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func isPlainName(name string) bool {
	return name != "" && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`) && name != ".."
}
