package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-intentions/internal/models"
)

// Service records intention changes and fans them out to live subscribers
type Service struct {
	mu          sync.RWMutex
	events      []*models.Event
	maxEvents   int
	subscribers map[string]chan *models.Event
}

// NewService creates a new event service keeping at most maxEvents events
func NewService(maxEvents int) *Service {
	if maxEvents <= 0 {
		maxEvents = 1000
	}

	return &Service{
		events:      make([]*models.Event, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.Event),
	}
}

// Publish records a change of the given type. ixn may be nil for deletions.
func (s *Service) Publish(eventType, intentionID string, ixn *models.Intention) *models.Event {
	event := &models.Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		IntentionID: intentionID,
		Timestamp:   time.Now(),
		Intention:   ixn,
	}

	s.mu.Lock()

	s.events = append(s.events, event)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}

	// Send under the lock so Unsubscribe cannot close a channel mid-send
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}

	s.mu.Unlock()

	return event
}

// GetEvents returns events matching the filter, newest first
func (s *Service) GetEvents(filter *models.EventFilter) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Event, 0)

	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]

		if filter != nil {
			if filter.IntentionID != "" && event.IntentionID != filter.IntentionID {
				continue
			}
			if filter.Type != "" && event.Type != filter.Type {
				continue
			}
			if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
				continue
			}
		}

		result = append(result, event)

		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

// Subscribe creates a subscription for live events
func (s *Service) Subscribe() (string, chan *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Event, 100)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// GetStats returns event feed statistics
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"totalEvents":       len(s.events),
		"maxEvents":         s.maxEvents,
		"activeSubscribers": len(s.subscribers),
	}
}
