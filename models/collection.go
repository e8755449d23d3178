package models

import "time"

// WatchStatus names the three disjoint collection partitions.
type WatchStatus string

const (
	StatusWatched   WatchStatus = "watched"
	StatusWatching  WatchStatus = "watching"
	StatusWillWatch WatchStatus = "will_watch"
)

// AllStatuses lists the partitions in their canonical order.
var AllStatuses = []WatchStatus{StatusWatched, StatusWatching, StatusWillWatch}

// Valid reports whether the status is one of the three known partitions.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatched, StatusWatching, StatusWillWatch:
		return true
	}
	return false
}

const (
	// NotesMaxLength bounds the free-form notes field.
	NotesMaxLength = 500
	// RatingMin and RatingMax bound the personal rating scale.
	RatingMin = 1
	RatingMax = 10
	// ProgressMin and ProgressMax bound the watch progress percentage.
	ProgressMin = 0
	ProgressMax = 100
)

// CollectionItem is a user's tracking record wrapping one catalog entry.
// Pointer fields distinguish "not set" (nil) from explicit values.
type CollectionItem struct {
	ID          string      `json:"id"`
	Media       MediaItem   `json:"mediaItem"`
	Status      WatchStatus `json:"status"`
	AddedAt     time.Time   `json:"addedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	UserRating  *int        `json:"userRating,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	WatchedDate *time.Time  `json:"watchedDate,omitempty"`
	Progress    *int        `json:"progress,omitempty"`
}

// Collections is the composite record holding all three partitions. It is
// persisted as one value under a single storage key and owned exclusively by
// the collection service.
type Collections struct {
	Watched   []CollectionItem `json:"watched"`
	Watching  []CollectionItem `json:"watching"`
	WillWatch []CollectionItem `json:"will_watch"`
}

// Partition returns a pointer to the slice backing the given status, or nil
// for an unknown status.
func (c *Collections) Partition(status WatchStatus) *[]CollectionItem {
	switch status {
	case StatusWatched:
		return &c.Watched
	case StatusWatching:
		return &c.Watching
	case StatusWillWatch:
		return &c.WillWatch
	}
	return nil
}

// All returns every item across the three partitions in canonical order.
func (c Collections) All() []CollectionItem {
	all := make([]CollectionItem, 0, len(c.Watched)+len(c.Watching)+len(c.WillWatch))
	all = append(all, c.Watched...)
	all = append(all, c.Watching...)
	all = append(all, c.WillWatch...)
	return all
}

// Total counts items across all partitions.
func (c Collections) Total() int {
	return len(c.Watched) + len(c.Watching) + len(c.WillWatch)
}

// AppState aggregates everything the shell needs to boot.
type AppState struct {
	Profile     *UserProfile `json:"profile,omitempty"`
	Collections Collections  `json:"collections"`
	FirstLaunch bool         `json:"isFirstLaunch"`
}
