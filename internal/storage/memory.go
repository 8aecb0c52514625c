package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prasenjit/go-intentions/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu         sync.RWMutex
	intentions map[string]*models.Intention
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		intentions: make(map[string]*models.Intention),
	}
}

// CreateIntention creates a new intention
func (m *MemoryStorage) CreateIntention(ixn *models.Intention) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.intentions[ixn.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, ixn.ID)
	}
	if err := m.checkPair(ixn); err != nil {
		return err
	}

	m.intentions[ixn.ID] = clone(ixn)
	return nil
}

// GetIntention retrieves an intention by ID
func (m *MemoryStorage) GetIntention(id string) (*models.Intention, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ixn, exists := m.intentions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return clone(ixn), nil
}

// ListIntentions retrieves all intentions passing the filter
func (m *MemoryStorage) ListIntentions(filter *models.IntentionFilter) ([]*models.Intention, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Intention, 0, len(m.intentions))
	for _, ixn := range m.intentions {
		if filter.Matches(ixn) {
			result = append(result, clone(ixn))
		}
	}

	sortIntentions(result)
	return result, nil
}

// UpdateIntention replaces a stored intention
func (m *MemoryStorage) UpdateIntention(ixn *models.Intention) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.intentions[ixn.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, ixn.ID)
	}
	if err := m.checkPair(ixn); err != nil {
		return err
	}

	m.intentions[ixn.ID] = clone(ixn)
	return nil
}

// DeleteIntention deletes an intention
func (m *MemoryStorage) DeleteIntention(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.intentions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(m.intentions, id)
	return nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}

// checkPair must be called with the lock held
func (m *MemoryStorage) checkPair(ixn *models.Intention) error {
	for id, other := range m.intentions {
		if id == ixn.ID {
			continue
		}
		if other.SourceName == ixn.SourceName && other.DestinationName == ixn.DestinationName {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicatePair, ixn.SourceName, ixn.DestinationName)
		}
	}
	return nil
}

// clone copies the record so callers cannot change stored state in place.
// Permissions are shared; they are replaced wholesale on update.
func clone(ixn *models.Intention) *models.Intention {
	cp := *ixn
	return &cp
}

// sortIntentions orders by precedence (highest first), then by names
func sortIntentions(ixns []*models.Intention) {
	sort.Slice(ixns, func(i, j int) bool {
		a, b := ixns[i], ixns[j]
		if a.Precedence != b.Precedence {
			return a.Precedence > b.Precedence
		}
		if a.SourceName != b.SourceName {
			return a.SourceName < b.SourceName
		}
		return a.DestinationName < b.DestinationName
	})
}
