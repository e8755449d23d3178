package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"watchlog/models"
	collectionsvc "watchlog/services/collection"
	"watchlog/utils/textmatch"
)

type collectionService interface {
	CreateProfile(ctx context.Context, name string, age int, genres []int) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, patch collectionsvc.ProfilePatch) (*models.UserProfile, error)
	Profile(ctx context.Context) (*models.UserProfile, error)

	AddItem(ctx context.Context, media models.MediaItem, status models.WatchStatus) (*models.CollectionItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	UpdateItemStatus(ctx context.Context, itemID string, newStatus models.WatchStatus) (*models.CollectionItem, error)
	UpdateItemRating(ctx context.Context, itemID string, rating int) (*models.CollectionItem, error)
	UpdateItemNotes(ctx context.Context, itemID string, notes string) (*models.CollectionItem, error)
	UpdateItemProgress(ctx context.Context, itemID string, progress int) (*models.CollectionItem, error)

	ItemsByStatus(ctx context.Context, status models.WatchStatus) ([]models.CollectionItem, error)
	FindItemByMediaID(ctx context.Context, mediaID int) (*models.CollectionItem, error)
	AllItems(ctx context.Context) ([]models.CollectionItem, error)
	AllCollections(ctx context.Context) (models.Collections, error)
	ClearCollection(ctx context.Context, status models.WatchStatus) error

	LoadAppState(ctx context.Context) (*models.AppState, error)
	SaveAppState(ctx context.Context, patch collectionsvc.AppStatePatch) error
	ThemePreference(ctx context.Context) (string, error)
	SetThemePreference(ctx context.Context, theme string) error
}

// CollectionHandler serves the user profile, the three watch collections and
// persisted app state.
type CollectionHandler struct {
	Service collectionService
}

var _ collectionService = (*collectionsvc.Service)(nil)

func NewCollectionHandler(s collectionService) *CollectionHandler {
	return &CollectionHandler{Service: s}
}

// writeServiceError maps the collection service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collectionsvc.ErrDuplicateItem):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, collectionsvc.ErrItemNotFound),
		errors.Is(err, collectionsvc.ErrProfileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, collectionsvc.ErrInvalidStatus),
		errors.Is(err, collectionsvc.ErrInvalidRating),
		errors.Is(err, collectionsvc.ErrNotesTooLong),
		errors.Is(err, collectionsvc.ErrInvalidProgress),
		errors.Is(err, collectionsvc.ErrInvalidProfile):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// CreateProfile sets up the user profile during onboarding.
func (h *CollectionHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name            string `json:"name"`
		Age             int    `json:"age"`
		PreferredGenres []int  `json:"preferredGenres"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.CreateProfile(r.Context(), request.Name, request.Age, request.PreferredGenres)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

// GetProfile returns the stored profile, 404 when onboarding never ran.
func (h *CollectionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.Profile(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	writeJSON(w, profile)
}

// UpdateProfile applies a partial profile update.
func (h *CollectionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch collectionsvc.ProfilePatch

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, profile)
}

// AddItem places a catalog title into one of the collections.
func (h *CollectionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Media  models.MediaItem   `json:"mediaItem"`
		Status models.WatchStatus `json:"status"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.AddItem(r.Context(), request.Media, request.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	log.Printf("[collection-handler] Added %q (%s) as %s", item.Media.Title, item.Media.MediaType, item.Status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// RemoveItem deletes an item from whichever collection holds it.
func (h *CollectionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]

	if err := h.Service.RemoveItem(r.Context(), itemID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateItem changes an item's status, rating, notes or progress. Exactly one
// field per request.
func (h *CollectionHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]

	var request struct {
		Status   *models.WatchStatus `json:"status"`
		Rating   *int                `json:"userRating"`
		Notes    *string             `json:"notes"`
		Progress *int                `json:"progress"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		item *models.CollectionItem
		err  error
	)
	switch {
	case request.Status != nil:
		item, err = h.Service.UpdateItemStatus(r.Context(), itemID, *request.Status)
	case request.Rating != nil:
		item, err = h.Service.UpdateItemRating(r.Context(), itemID, *request.Rating)
	case request.Notes != nil:
		item, err = h.Service.UpdateItemNotes(r.Context(), itemID, *request.Notes)
	case request.Progress != nil:
		item, err = h.Service.UpdateItemProgress(r.Context(), itemID, *request.Progress)
	default:
		http.Error(w, "no updatable field provided", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, item)
}

// ListCollections returns all three collections keyed by status.
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Service.AllCollections(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, cols)
}

// ListByStatus returns a single collection.
func (h *CollectionHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := models.WatchStatus(mux.Vars(r)["status"])

	items, err := h.Service.ItemsByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, items)
}

// SearchItems filters the whole collection by a case- and accent-insensitive
// title substring.
func (h *CollectionHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	items, err := h.Service.AllItems(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	matches := make([]models.CollectionItem, 0)
	for _, item := range items {
		if textmatch.Contains(item.Media.Title, query) {
			matches = append(matches, item)
		}
	}
	writeJSON(w, matches)
}

// LookupByMediaID reports whether a catalog title is already in the
// collection, and under which status.
func (h *CollectionHandler) LookupByMediaID(w http.ResponseWriter, r *http.Request) {
	mediaID, err := strconv.Atoi(mux.Vars(r)["mediaID"])
	if err != nil || mediaID <= 0 {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}

	item, err := h.Service.FindItemByMediaID(r.Context(), mediaID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "media not in collection", http.StatusNotFound)
		return
	}
	writeJSON(w, item)
}

// ClearCollection empties one collection.
func (h *CollectionHandler) ClearCollection(w http.ResponseWriter, r *http.Request) {
	status := models.WatchStatus(mux.Vars(r)["status"])

	if err := h.Service.ClearCollection(r.Context(), status); err != nil {
		writeServiceError(w, err)
		return
	}

	log.Printf("[collection-handler] Cleared the %s collection", status)
	w.WriteHeader(http.StatusNoContent)
}

// GetAppState returns profile, collections and the first-launch flag in one
// payload so the client can boot with a single request.
func (h *CollectionHandler) GetAppState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.LoadAppState(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, state)
}

// SaveAppState applies a partial app state write.
func (h *CollectionHandler) SaveAppState(w http.ResponseWriter, r *http.Request) {
	var patch collectionsvc.AppStatePatch

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.SaveAppState(r.Context(), patch); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTheme returns the persisted theme preference.
func (h *CollectionHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.Service.ThemePreference(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"theme": theme})
}

// SetTheme persists the theme preference.
func (h *CollectionHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Theme string `json:"theme"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.SetThemePreference(r.Context(), request.Theme); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
