package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"watchlog/models"
	catalogsvc "watchlog/services/catalog"
)

type catalogService interface {
	Search(ctx context.Context, query string, page int) (*catalogsvc.SearchResponse, error)
	Details(ctx context.Context, id int, mediaType models.MediaType, extras ...string) (*catalogsvc.Details, error)
	DetailsBatch(ctx context.Context, refs []catalogsvc.Ref) ([]*catalogsvc.Details, error)
}

// CatalogHandler exposes remote catalog search and detail lookups.
type CatalogHandler struct {
	Service catalogService
}

var _ catalogService = (*catalogsvc.Client)(nil)

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// Search proxies a free-text query to the catalog and returns matching
// movies and TV shows.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	results, err := h.Service.Search(r.Context(), query, page)
	if err != nil {
		log.Printf("[catalog-handler] WARN: search %q failed: %v", query, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// Details returns the full record for a single title.
func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	mediaType := models.MediaType(vars["mediaType"])
	if !mediaType.Valid() {
		http.Error(w, "invalid media type", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	details, err := h.Service.Details(r.Context(), id, mediaType)
	if err != nil {
		log.Printf("[catalog-handler] WARN: details %s/%d failed: %v", mediaType, id, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}

// DetailsBatch fetches several title records concurrently.
func (h *CatalogHandler) DetailsBatch(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Refs []catalogsvc.Ref `json:"refs"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(request.Refs) == 0 {
		http.Error(w, "refs must not be empty", http.StatusBadRequest)
		return
	}

	details, err := h.Service.DetailsBatch(r.Context(), request.Refs)
	if err != nil {
		log.Printf("[catalog-handler] WARN: batch details failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}
