package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sdcard/logging"
	"sdcard/types"
)

var (
	// ErrInvalidName is returned for names that are not a single path element
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotFound is returned when a private file does not exist
	ErrNotFound = errors.New("file not found")
)

// PrivateStore keeps small text files in a directory only this application uses
type PrivateStore struct {
	dir string
}

// NewPrivateStore creates a store rooted at dir, creating it if needed
func NewPrivateStore(dir string) (*PrivateStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create private dir %s: %w", dir, err)
	}
	return &PrivateStore{dir: dir}, nil
}

// Dir returns the directory backing the store
func (s *PrivateStore) Dir() string {
	return s.dir
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (s *PrivateStore) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes content to name, replacing any previous content
func (s *PrivateStore) Save(name, content string) (types.SavedFile, error) {
	p, err := s.path(name)
	if err != nil {
		return types.SavedFile{}, err
	}

	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		return types.SavedFile{}, fmt.Errorf("cannot save %s: %w", name, err)
	}

	info, err := os.Stat(p)
	if err != nil {
		return types.SavedFile{}, fmt.Errorf("cannot stat %s: %w", name, err)
	}
	logging.DebugLog("Saved private file %s (%d bytes)", name, info.Size())

	return types.SavedFile{
		Name:       name,
		Path:       p,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Load returns the full content of name
func (s *PrivateStore) Load(name string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("cannot read %s: %w", name, err)
	}
	return string(data), nil
}

// List returns the sorted names of the stored files
func (s *PrivateStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes name from the store
func (s *PrivateStore) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("cannot delete %s: %w", name, err)
	}
	logging.DebugLog("Deleted private file %s", name)
	return nil
}
