package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"watchlog/internal/storage"
)

// Backups larger than this are rejected before parsing.
const maxBackupBytes = 32 << 20

type backupStore interface {
	CreateBackup(ctx context.Context) ([]byte, error)
	RestoreFromBackup(ctx context.Context, blob []byte) error
}

// BackupHandler exports and restores full database snapshots.
type BackupHandler struct {
	Store backupStore
}

var _ backupStore = (*storage.Store)(nil)

func NewBackupHandler(s backupStore) *BackupHandler {
	return &BackupHandler{Store: s}
}

// Export streams a backup file for download.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	blob, err := h.Store.CreateBackup(r.Context())
	if err != nil {
		log.Printf("[backup-handler] WARN: export failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("watchlog-backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(blob)
}

// Restore replaces the entire database with an uploaded backup. The payload
// is sniffed first so a stray binary upload cannot reach the restore path.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBackupBytes+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(blob) > maxBackupBytes {
		http.Error(w, "backup too large", http.StatusRequestEntityTooLarge)
		return
	}

	if detected := mimetype.Detect(blob); !detected.Is("application/json") {
		http.Error(w, fmt.Sprintf("expected a JSON backup, got %s", detected.String()), http.StatusUnsupportedMediaType)
		return
	}

	if err := h.Store.RestoreFromBackup(r.Context(), blob); err != nil {
		if errors.Is(err, storage.ErrInvalidBackup) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[backup-handler] WARN: restore failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("[backup-handler] Restored database from uploaded backup (%d bytes)", len(blob))
	w.WriteHeader(http.StatusNoContent)
}
