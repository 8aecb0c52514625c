package storage

import (
	"fmt"
	"path/filepath"

	"github.com/prasenjit/go-intentions/internal/config"
)

// BoltFile is the database file name used under the storage path
const BoltFile = "intentions.db"

// Open creates the backend selected by cfg
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StorageFile:
		return NewFileStorage(cfg.Path)
	case config.StorageBolt:
		return NewBoltStorage(filepath.Join(cfg.Path, BoltFile))
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
