package handlers

import (
	"context"
	"net/http"

	"watchlog/models"
	collectionsvc "watchlog/services/collection"
	"watchlog/services/stats"
)

type collectionsReader interface {
	AllCollections(ctx context.Context) (models.Collections, error)
}

// StatsHandler derives watch statistics from the current collections. Nothing
// is persisted; every request recomputes from scratch.
type StatsHandler struct {
	Service collectionsReader
}

var _ collectionsReader = (*collectionsvc.Service)(nil)

func NewStatsHandler(s collectionsReader) *StatsHandler {
	return &StatsHandler{Service: s}
}

// Get returns the full statistics payload.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Service.AllCollections(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats.Calculate(cols.Watched, cols.Watching, cols.WillWatch))
}
