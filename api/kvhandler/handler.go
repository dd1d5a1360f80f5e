// Package kvhandler serves the generic key/value storage over HTTP.
// Values are opaque bytes keyed by 32-byte hex identifiers.
package kvhandler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// Storage is the value store served by Handler.
type Storage = interfaces.Storage[interfaces.ContentID, []byte]

type Handler struct {
	store Storage
	log   *slog.Logger
}

func NewHandler(store Storage, log *slog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/kv", h.HandlePost)
	r.Put("/api/kv/{key}", h.HandlePut)
	r.Get("/api/kv/{key}", h.HandleGet)
	r.Head("/api/kv/{key}", h.HandleHead)
	r.Delete("/api/kv/{key}", h.HandleDelete)
}

// HandlePut stores the request body under key, replacing any previous value.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	key, err := interfaces.NewContentIDFromHex(r.PathValue("key"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	value, err := readBody(w, r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.store.Set(r.Context(), key, value); err != nil {
		h.log.Error("Failed to store value", "key", key.String(), "err", err)
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePost stores the request body under the sha256 of its content.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	value, err := readBody(w, r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	key := interfaces.ComputeID(value)
	if err := h.store.Set(r.Context(), key, value); err != nil {
		h.log.Error("Failed to store value", "key", key.String(), "err", err)
		api.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(api.KeyResponse{Key: key})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key, err := interfaces.NewContentIDFromHex(r.PathValue("key"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	value, ok, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.log.Error("Failed to fetch value", "key", key.String(), "err", err)
		api.WriteError(w, err)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("key %s not found", key), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

// HandleHead reports existence through the status code only.
func (h *Handler) HandleHead(w http.ResponseWriter, r *http.Request) {
	key, err := interfaces.NewContentIDFromHex(r.PathValue("key"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ok, err := h.store.Exists(r.Context(), key)
	if err != nil {
		w.WriteHeader(api.StatusForError(err))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleDelete removes key. Removing an absent key succeeds.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := interfaces.NewContentIDFromHex(r.PathValue("key"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.store.Remove(r.Context(), key); err != nil {
		h.log.Error("Failed to remove value", "key", key.String(), "err", err)
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, api.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: could not read body: %v", interfaces.ErrInvalidArgument, err)
	}
	return value, nil
}
