package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound        = errors.New("configuration file not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidJSON         = errors.New("invalid JSON syntax")
	ErrInvalidYAML         = errors.New("invalid YAML syntax")
	ErrEmptyFile           = errors.New("configuration file is empty")
	ErrDuplicateCollection = errors.New("collection is defined more than once")
)

// LoadFromFile reads a configuration from a JSON or YAML file.
// The format is auto-detected based on file extension (.yaml, .yml for YAML, otherwise JSON).
// Collection files named by collectionFiles are merged in, and relative WSDL
// paths are resolved against the directory of path.
func LoadFromFile(path string) (*File, error) {
	f, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	f.Path = path

	baseDir := filepath.Dir(path)
	for _, pattern := range f.CollectionFiles {
		if err := f.mergeCollectionFiles(pattern, baseDir); err != nil {
			return nil, err
		}
	}
	for _, conn := range f.Connections {
		conn.WSDL = ResolvePath(baseDir, conn.WSDL)
	}
	return f, nil
}

func loadFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	data = []byte(ExpandEnvVars(string(data)))

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		f, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return f, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	f, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseJSON parses and validates a JSON configuration.
func ParseJSON(data []byte) (*File, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return decode(doc)
}

// ParseYAML parses and validates a YAML configuration.
func ParseYAML(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return decode(doc)
}

// decode validates a generic document against the schema, then converts it
// to a File.
func decode(doc any) (*File, error) {
	normalized, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := ValidateDocument(normalized); err != nil {
		return nil, err
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &f, nil
}

// mergeCollectionFiles loads the collections of every file matching pattern.
// A collection file may only define collections.
func (f *File) mergeCollectionFiles(pattern, baseDir string) error {
	matches, err := expandGlob(ResolvePath(baseDir, pattern))
	if err != nil {
		return fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	for _, match := range matches {
		relPath, _ := filepath.Rel(baseDir, match)
		if relPath == "" {
			relPath = match
		}

		part, err := loadFile(match)
		if err != nil {
			return fmt.Errorf("loading %s: %w", relPath, err)
		}
		if len(part.Connections) > 0 || len(part.CollectionFiles) > 0 || part.Logging != nil {
			return fmt.Errorf("loading %s: %w: collection files may only define collections", relPath, ErrInvalidConfig)
		}
		if f.Collections == nil {
			f.Collections = make(map[string]*CollectionConfig)
		}
		for id, c := range part.Collections {
			if _, ok := f.Collections[id]; ok {
				return fmt.Errorf("loading %s: %w: %s", relPath, ErrDuplicateCollection, id)
			}
			f.Collections[id] = c
		}
	}
	return nil
}

// expandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** support, falls back to filepath.Glob for simple patterns.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		// FilepathGlob returns matches using the OS path separator
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// ResolvePath resolves a relative file path against baseDir. URLs and
// absolute paths are returned unchanged.
func ResolvePath(baseDir, path string) string {
	if path == "" || strings.Contains(path, "://") || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
