package storage

import (
	"errors"

	"github.com/prasenjit/go-intentions/internal/models"
)

var (
	// ErrNotFound is returned when an intention does not exist
	ErrNotFound = errors.New("intention not found")
	// ErrAlreadyExists is returned when creating an intention with a used ID
	ErrAlreadyExists = errors.New("intention already exists")
	// ErrDuplicatePair is returned when another intention has the same source and destination
	ErrDuplicatePair = errors.New("an intention already exists for this source and destination")
)

// Storage defines the interface for intention persistence
type Storage interface {
	CreateIntention(ixn *models.Intention) error
	GetIntention(id string) (*models.Intention, error)
	// ListIntentions returns intentions ordered by precedence, highest first
	ListIntentions(filter *models.IntentionFilter) ([]*models.Intention, error)
	UpdateIntention(ixn *models.Intention) error
	DeleteIntention(id string) error

	// Utility
	Close() error
}
