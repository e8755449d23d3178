package collection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"watchlog/internal/storage"
	"watchlog/models"
)

// Storage keys owned by the collection service.
const (
	keyUserProfile = "user_profile"
	keyCollections = "collections"
	keyFirstLaunch = "is_first_launch"
	keyTheme       = "theme_preference"
)

var (
	ErrDuplicateItem   = errors.New("item already exists in a collection")
	ErrItemNotFound    = errors.New("collection item not found")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrInvalidStatus   = errors.New("unknown watch status")
	ErrInvalidRating   = errors.New("rating must be between 1 and 10")
	ErrNotesTooLong    = errors.New("notes must be 500 characters or fewer")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrInvalidProfile  = errors.New("invalid profile data")
)

// Service is the single authority for profile and collection mutation. It
// wraps the store with domain validation and invariant enforcement and is the
// sole emitter of change notifications.
//
// Every mutation runs a full read-modify-write cycle over the collections
// record and is serialized through one writer mutex, so the read phase of a
// mutation always observes the previous mutation's completed write.
type Service struct {
	store *storage.Store

	mu sync.Mutex

	subMu     sync.RWMutex
	listeners map[int]Listener
	nextSub   int
}

// NewService creates a collection service over the given store.
func NewService(store *storage.Store) *Service {
	return &Service{
		store:     store,
		listeners: make(map[int]Listener),
	}
}

// laterOf keeps updatedAt monotonically non-decreasing even when the clock
// steps backwards between mutations.
func laterOf(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev
}

// loadCollections reads the composite collections record. The read is
// lenient: a corrupted record (already purged by the store) yields empty
// collections and malformed items are dropped, both logged rather than
// surfaced, so the app stays usable after partial corruption.
func (s *Service) loadCollections(ctx context.Context) (models.Collections, error) {
	record, err := storage.Get[models.Collections](ctx, s.store, keyCollections)
	if err != nil {
		if errors.Is(err, storage.ErrDataCorruption) {
			log.Printf("[collection] WARN: collections record corrupted, starting empty: %v", err)
			return models.Collections{}, nil
		}
		return models.Collections{}, fmt.Errorf("load collections: %w", err)
	}
	if record == nil {
		return models.Collections{}, nil
	}
	return sanitizeCollections(*record), nil
}

func sanitizeCollections(c models.Collections) models.Collections {
	dropped := 0
	var clean models.Collections
	for _, status := range models.AllStatuses {
		src := *c.Partition(status)
		dst := clean.Partition(status)
		for _, item := range src {
			if item.ID == "" || !item.Status.Valid() || item.Media.ID == 0 {
				dropped++
				continue
			}
			*dst = append(*dst, item)
		}
	}
	if dropped > 0 {
		log.Printf("[collection] WARN: dropped %d malformed collection items on read", dropped)
	}
	return clean
}

func (s *Service) saveCollections(ctx context.Context, cols models.Collections) error {
	if err := storage.Set(ctx, s.store, keyCollections, cols); err != nil {
		return fmt.Errorf("save collections: %w", err)
	}
	return nil
}

// CreateProfile validates and persists a new user profile, stamping its
// identifier and timestamps. All violated validation rules are reported
// together.
func (s *Service) CreateProfile(ctx context.Context, name string, age int, genres []int) (*models.UserProfile, error) {
	now := time.Now().UTC()
	profile := models.UserProfile{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(name),
		Age:             age,
		PreferredGenres: genres,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := storage.Set(ctx, s.store, keyUserProfile, profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}

	s.emit(Event{Type: EventProfileUpdated, Profile: &profile})
	return &profile, nil
}

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
type ProfilePatch struct {
	Name            *string `json:"name,omitempty"`
	Age             *int    `json:"age,omitempty"`
	PreferredGenres []int   `json:"preferredGenres,omitempty"`
}

// UpdateProfile merges the patch onto the existing profile and bumps its
// updatedAt. Fails with ErrProfileNotFound when no profile exists.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (*models.UserProfile, error) {
	var updated models.UserProfile
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		current, err := s.Profile(ctx)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrProfileNotFound
		}

		merged := *current
		if patch.Name != nil {
			merged.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Age != nil {
			merged.Age = *patch.Age
		}
		if patch.PreferredGenres != nil {
			merged.PreferredGenres = patch.PreferredGenres
		}
		merged.UpdatedAt = laterOf(time.Now().UTC(), current.UpdatedAt)

		if err := validateProfile(merged); err != nil {
			return err
		}
		if err := storage.Set(ctx, s.store, keyUserProfile, merged); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		updated = merged
		return nil
	}()
	if err != nil {
		return nil, err
	}

	s.emit(Event{Type: EventProfileUpdated, Profile: &updated})
	return &updated, nil
}

// Profile returns the stored profile, or nil when none exists. The read is
// lenient: a corrupted or invalid stored profile is treated as absent and
// logged, never surfaced.
func (s *Service) Profile(ctx context.Context) (*models.UserProfile, error) {
	profile, err := storage.Get[models.UserProfile](ctx, s.store, keyUserProfile)
	if err != nil {
		if errors.Is(err, storage.ErrDataCorruption) {
			log.Printf("[collection] WARN: stored profile corrupted, treating as absent: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}
	if err := validateProfile(*profile); err != nil {
		log.Printf("[collection] WARN: stored profile failed validation, treating as absent: %v", err)
		return nil, nil
	}
	return profile, nil
}

// AddItem creates a tracking record for media in the target partition. Fails
// with ErrDuplicateItem when any partition already holds the same media id.
func (s *Service) AddItem(ctx context.Context, media models.MediaItem, status models.WatchStatus) (*models.CollectionItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if media.ID == 0 {
		return nil, fmt.Errorf("add item: media id is required")
	}

	var item models.CollectionItem
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cols, err := s.loadCollections(ctx)
		if err != nil {
			return err
		}
		for _, existing := range cols.All() {
			if existing.Media.ID == media.ID {
				return fmt.Errorf("%w: media %d", ErrDuplicateItem, media.ID)
			}
		}

		now := time.Now().UTC()
		item = models.CollectionItem{
			ID:        uuid.NewString(),
			Media:     media,
			Status:    status,
			AddedAt:   now,
			UpdatedAt: now,
		}
		if status == models.StatusWatched {
			watched := now
			item.WatchedDate = &watched
		}

		partition := cols.Partition(status)
		*partition = append(*partition, item)
		return s.saveCollections(ctx, cols)
	}()
	if err != nil {
		return nil, err
	}

	s.emit(Event{Type: EventItemAdded, Item: &item})
	return &item, nil
}

// RemoveItem erases the item from whichever partition holds it.
func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cols, err := s.loadCollections(ctx)
		if err != nil {
			return err
		}
		for _, status := range models.AllStatuses {
			partition := cols.Partition(status)
			for i, item := range *partition {
				if item.ID == itemID {
					*partition = append((*partition)[:i], (*partition)[i+1:]...)
					return s.saveCollections(ctx, cols)
				}
			}
		}
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}()
	if err != nil {
		return err
	}

	s.emit(Event{Type: EventItemRemoved, ItemID: itemID})
	return nil
}

// UpdateItemStatus moves the item into the partition for newStatus. The move
// is atomic from the caller's perspective: one persisted record transition.
// Re-applying the current status still bumps updatedAt. The watched date is
// stamped on the first transition to watched and cleared on any transition
// away from it.
func (s *Service) UpdateItemStatus(ctx context.Context, itemID string, newStatus models.WatchStatus) (*models.CollectionItem, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var updated models.CollectionItem
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cols, err := s.loadCollections(ctx)
		if err != nil {
			return err
		}

		for _, status := range models.AllStatuses {
			partition := cols.Partition(status)
			for i, item := range *partition {
				if item.ID != itemID {
					continue
				}
				*partition = append((*partition)[:i], (*partition)[i+1:]...)

				now := time.Now().UTC()
				item.Status = newStatus
				if newStatus == models.StatusWatched {
					if item.WatchedDate == nil {
						watched := now
						item.WatchedDate = &watched
					}
				} else {
					item.WatchedDate = nil
				}
				item.UpdatedAt = laterOf(now, item.UpdatedAt)

				target := cols.Partition(newStatus)
				*target = append(*target, item)
				updated = item
				return s.saveCollections(ctx, cols)
			}
		}
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}()
	if err != nil {
		return nil, err
	}

	s.emit(Event{Type: EventItemUpdated, Item: &updated})
	return &updated, nil
}

// updateItem applies mutate to the located item, bumps updatedAt, persists the
// full record and emits ITEM_UPDATED. Shared by the field-level updates, which
// never touch the embedded media, status or timestamps.
func (s *Service) updateItem(ctx context.Context, itemID string, mutate func(item *models.CollectionItem)) (*models.CollectionItem, error) {
	var updated models.CollectionItem
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cols, err := s.loadCollections(ctx)
		if err != nil {
			return err
		}
		for _, status := range models.AllStatuses {
			partition := cols.Partition(status)
			for i := range *partition {
				item := &(*partition)[i]
				if item.ID != itemID {
					continue
				}
				mutate(item)
				item.UpdatedAt = laterOf(time.Now().UTC(), item.UpdatedAt)
				updated = *item
				return s.saveCollections(ctx, cols)
			}
		}
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}()
	if err != nil {
		return nil, err
	}

	s.emit(Event{Type: EventItemUpdated, Item: &updated})
	return &updated, nil
}

// UpdateItemRating records a personal rating on the item.
func (s *Service) UpdateItemRating(ctx context.Context, itemID string, rating int) (*models.CollectionItem, error) {
	if rating < models.RatingMin || rating > models.RatingMax {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return s.updateItem(ctx, itemID, func(item *models.CollectionItem) {
		item.UserRating = &rating
	})
}

// UpdateItemNotes trims and stores free-form notes on the item.
func (s *Service) UpdateItemNotes(ctx context.Context, itemID string, notes string) (*models.CollectionItem, error) {
	trimmed := strings.TrimSpace(notes)
	if utf8.RuneCountInString(trimmed) > models.NotesMaxLength {
		return nil, fmt.Errorf("%w: got %d characters", ErrNotesTooLong, utf8.RuneCountInString(trimmed))
	}
	return s.updateItem(ctx, itemID, func(item *models.CollectionItem) {
		item.Notes = trimmed
	})
}

// UpdateItemProgress records watch progress as a percentage.
func (s *Service) UpdateItemProgress(ctx context.Context, itemID string, progress int) (*models.CollectionItem, error) {
	if progress < models.ProgressMin || progress > models.ProgressMax {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidProgress, progress)
	}
	return s.updateItem(ctx, itemID, func(item *models.CollectionItem) {
		item.Progress = &progress
	})
}

// ItemsByStatus returns the items in one partition. Pure read, never emits.
func (s *Service) ItemsByStatus(ctx context.Context, status models.WatchStatus) ([]models.CollectionItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	cols, err := s.loadCollections(ctx)
	if err != nil {
		return nil, err
	}
	return *cols.Partition(status), nil
}

// FindItemByMediaID locates the item tracking the given catalog id across all
// partitions, or nil when no partition holds it.
func (s *Service) FindItemByMediaID(ctx context.Context, mediaID int) (*models.CollectionItem, error) {
	cols, err := s.loadCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range cols.All() {
		if item.Media.ID == mediaID {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

// AllItems returns every tracked item across the three partitions.
func (s *Service) AllItems(ctx context.Context) ([]models.CollectionItem, error) {
	cols, err := s.loadCollections(ctx)
	if err != nil {
		return nil, err
	}
	return cols.All(), nil
}

// AllCollections returns the full materialized collections record.
func (s *Service) AllCollections(ctx context.Context) (models.Collections, error) {
	return s.loadCollections(ctx)
}

// ClearCollection empties one partition.
func (s *Service) ClearCollection(ctx context.Context, status models.WatchStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cols, err := s.loadCollections(ctx)
		if err != nil {
			return err
		}
		*cols.Partition(status) = nil
		return s.saveCollections(ctx, cols)
	}()
	if err != nil {
		return err
	}

	s.emit(Event{Type: EventCollectionCleared, Status: status})
	return nil
}

// LoadAppState composes profile, collections and the first-launch flag into
// one aggregate for the shell. An absent flag reads as first launch.
func (s *Service) LoadAppState(ctx context.Context) (*models.AppState, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := s.loadCollections(ctx)
	if err != nil {
		return nil, err
	}

	firstLaunch := true
	flag, err := storage.Get[bool](ctx, s.store, keyFirstLaunch)
	if err != nil {
		if !errors.Is(err, storage.ErrDataCorruption) {
			return nil, fmt.Errorf("load first-launch flag: %w", err)
		}
		log.Printf("[collection] WARN: first-launch flag corrupted, assuming first launch: %v", err)
	} else if flag != nil {
		firstLaunch = *flag
	}

	return &models.AppState{
		Profile:     profile,
		Collections: cols,
		FirstLaunch: firstLaunch,
	}, nil
}

// AppStatePatch is a partial app state save. Nil fields are not written.
type AppStatePatch struct {
	Profile     *models.UserProfile `json:"profile,omitempty"`
	Collections *models.Collections `json:"collections,omitempty"`
	FirstLaunch *bool               `json:"isFirstLaunch,omitempty"`
}

// SaveAppState writes only the provided sub-fields of the aggregate.
func (s *Service) SaveAppState(ctx context.Context, patch AppStatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Profile != nil {
		if err := storage.Set(ctx, s.store, keyUserProfile, *patch.Profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	if patch.Collections != nil {
		if err := s.saveCollections(ctx, *patch.Collections); err != nil {
			return err
		}
	}
	if patch.FirstLaunch != nil {
		if err := storage.Set(ctx, s.store, keyFirstLaunch, *patch.FirstLaunch); err != nil {
			return fmt.Errorf("save first-launch flag: %w", err)
		}
	}
	return nil
}

// ThemePreference returns the stored theme, empty when unset. Presentation of
// the value is the shell's concern.
func (s *Service) ThemePreference(ctx context.Context) (string, error) {
	theme, err := storage.Get[string](ctx, s.store, keyTheme)
	if err != nil {
		if errors.Is(err, storage.ErrDataCorruption) {
			log.Printf("[collection] WARN: theme preference corrupted, treating as unset: %v", err)
			return "", nil
		}
		return "", fmt.Errorf("load theme preference: %w", err)
	}
	if theme == nil {
		return "", nil
	}
	return *theme, nil
}

// SetThemePreference persists the shell's theme choice.
func (s *Service) SetThemePreference(ctx context.Context, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.Set(ctx, s.store, keyTheme, theme); err != nil {
		return fmt.Errorf("save theme preference: %w", err)
	}
	return nil
}
