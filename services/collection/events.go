package collection

import (
	"log"

	"watchlog/models"
)

// EventType tags the closed set of change notifications the service emits.
type EventType string

const (
	EventItemAdded         EventType = "ITEM_ADDED"
	EventItemRemoved       EventType = "ITEM_REMOVED"
	EventItemUpdated       EventType = "ITEM_UPDATED"
	EventProfileUpdated    EventType = "PROFILE_UPDATED"
	EventCollectionCleared EventType = "COLLECTION_CLEARED"
)

// Event is a change notification. Only the payload field matching the type is
// set: Item for added/updated, ItemID for removed, Profile for profile
// updates, Status for cleared partitions.
type Event struct {
	Type    EventType              `json:"type"`
	Item    *models.CollectionItem `json:"item,omitempty"`
	ItemID  string                 `json:"itemId,omitempty"`
	Profile *models.UserProfile    `json:"profile,omitempty"`
	Status  models.WatchStatus     `json:"status,omitempty"`
}

// Listener receives change events. Listeners run synchronously after the
// triggering mutation has been persisted.
type Listener func(Event)

// Subscribe registers a listener and returns its unsubscribe handle.
func (s *Service) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

// emit notifies every registered listener. A panicking listener is logged and
// never aborts the triggering operation or starves other listeners.
func (s *Service) emit(event Event) {
	s.subMu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[collection] WARN: event listener panicked on %s: %v", event.Type, r)
				}
			}()
			fn(event)
		}()
	}
}
