package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/go-intentions/internal/models"
)

// FileStorage implements Storage interface with one JSON file per intention
type FileStorage struct {
	mu       sync.RWMutex
	basePath string
	memory   *MemoryStorage
	skipped  []string
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	dir := filepath.Join(basePath, "intentions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	// Load existing data
	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// Skipped returns the files that could not be read or decoded at load time
func (f *FileStorage) Skipped() []string {
	return f.skipped
}

// loadAll loads all intentions from disk. Unreadable files are recorded in
// skipped rather than failing the whole load.
func (f *FileStorage) loadAll() error {
	dir := filepath.Join(f.basePath, "intentions")
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(name)
		if err != nil {
			f.skipped = append(f.skipped, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		var ixn models.Intention
		if err := json.Unmarshal(data, &ixn); err != nil {
			f.skipped = append(f.skipped, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		f.memory.intentions[ixn.ID] = &ixn
	}

	return nil
}

func (f *FileStorage) path(id string) string {
	return filepath.Join(f.basePath, "intentions", id+".json")
}

// save writes an intention to disk
func (f *FileStorage) save(ixn *models.Intention) error {
	data, err := json.MarshalIndent(ixn, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(f.path(ixn.ID), data, 0644)
}

// CreateIntention creates a new intention
func (f *FileStorage) CreateIntention(ixn *models.Intention) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateIntention(ixn); err != nil {
		return err
	}

	if err := f.save(ixn); err != nil {
		f.memory.DeleteIntention(ixn.ID)
		return fmt.Errorf("failed to save intention: %w", err)
	}
	return nil
}

// GetIntention retrieves an intention by ID
func (f *FileStorage) GetIntention(id string) (*models.Intention, error) {
	return f.memory.GetIntention(id)
}

// ListIntentions retrieves all intentions passing the filter
func (f *FileStorage) ListIntentions(filter *models.IntentionFilter) ([]*models.Intention, error) {
	return f.memory.ListIntentions(filter)
}

// UpdateIntention replaces a stored intention
func (f *FileStorage) UpdateIntention(ixn *models.Intention) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, err := f.memory.GetIntention(ixn.ID)
	if err != nil {
		return err
	}
	if err := f.memory.UpdateIntention(ixn); err != nil {
		return err
	}

	if err := f.save(ixn); err != nil {
		// Disk still holds previous
		f.memory.UpdateIntention(previous)
		return fmt.Errorf("failed to save intention: %w", err)
	}
	return nil
}

// DeleteIntention deletes an intention
func (f *FileStorage) DeleteIntention(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, err := f.memory.GetIntention(id)
	if err != nil {
		return err
	}
	if err := f.memory.DeleteIntention(id); err != nil {
		return err
	}

	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		f.memory.CreateIntention(previous)
		return fmt.Errorf("failed to remove intention: %w", err)
	}
	return nil
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
