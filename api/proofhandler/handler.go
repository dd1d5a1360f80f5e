package proofhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// Store is the proof store surface served over HTTP.
type Store interface {
	interfaces.ProofStore
	SetVerified(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error
	GetVerified(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error)
}

// Handler serves the proof endpoints.
type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/proofs/verify", h.HandleVerify)
	r.Post("/api/proofs", h.HandlePut)
	r.Put("/api/proofs/{id}", h.HandleSet)
	r.Get("/api/proofs/{id}", h.HandleGet)
}

// HandleSet stores the proof in the body under the id in the path.
//
// URL format: PUT /api/proofs/{id}[?verify=true]
// With verify=true a proof that does not verify is rejected with 422.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewProofIDFromHex(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	verify, err := verifyParam(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	proof, err := decodeProof(w, r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if verify {
		err = h.store.SetVerified(r.Context(), id, proof)
	} else {
		err = h.store.Set(r.Context(), id, proof)
	}
	if err != nil {
		h.logFailure("set", id.String(), err)
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePut stores the proof in the body under its content-addressed id.
//
// URL format: POST /api/proofs[?verify=true]
// Response: 201 {"id": "<hex>"}
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	verify, err := verifyParam(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	proof, err := decodeProof(w, r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	id := interfaces.ComputeProofID(proof)
	if verify {
		err = h.store.SetVerified(r.Context(), id, proof)
	} else {
		err = h.store.Set(r.Context(), id, proof)
	}
	if err != nil {
		h.logFailure("put", id.String(), err)
		api.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.ProofIDResponse{ID: id})
}

// HandleGet returns the proof stored under id.
//
// URL format: GET /api/proofs/{id}[?verify=true]
// With verify=true a stored proof that no longer verifies yields 422.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewProofIDFromHex(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	verify, err := verifyParam(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var (
		proof interfaces.Proof
		ok    bool
	)
	if verify {
		proof, ok, err = h.store.GetVerified(r.Context(), id)
	} else {
		proof, ok, err = h.store.Get(r.Context(), id)
	}
	if err != nil {
		h.logFailure("get", id.String(), err)
		api.WriteError(w, err)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("proof %s not found", id), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, proof)
}

// HandleVerify checks the proof in the body without storing it.
//
// URL format: POST /api/proofs/verify
// Response: 200 {"valid": bool}. Malformed proofs yield 422, unknown schemes 400.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	proof, err := decodeProof(w, r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	valid, err := h.store.Verify(r.Context(), proof)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.VerifyResponse{Valid: valid})
}

func (h *Handler) logFailure(op, id string, err error) {
	status := api.StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Proof request failed", "op", op, "id", id, "err", err)
		return
	}
	h.log.Debug("Proof request rejected", "op", op, "id", id, "status", status, "err", err)
}

func verifyParam(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get(api.VerifyQueryParam)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s parameter %q", interfaces.ErrInvalidArgument, api.VerifyQueryParam, raw)
	}
	return v, nil
}

func decodeProof(w http.ResponseWriter, r *http.Request) (interfaces.Proof, error) {
	var proof interfaces.Proof
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, api.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&proof); err != nil {
		return interfaces.Proof{}, fmt.Errorf("%w: could not decode proof: %v", interfaces.ErrInvalidArgument, err)
	}
	return proof, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
