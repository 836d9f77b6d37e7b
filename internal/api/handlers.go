package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
	"github.com/sells-group/buyer-dedupe/internal/store"
)

const maxBodyBytes = 1 << 20

type handler struct {
	svc Service
}

type errorBody struct {
	Error string `json:"error"`
}

type checkRequest struct {
	Buyer  model.Buyer `json:"buyer"`
	Ignore []string    `json:"ignore,omitempty"`
}

type createRequest struct {
	Buyer model.Buyer `json:"buyer"`
	Force bool        `json:"force,omitempty"`
}

type mergeRequest struct {
	PrimaryID   string            `json:"primary_id"`
	SecondaryID string            `json:"secondary_id"`
	Choices     map[string]string `json:"choices,omitempty"`
}

type clustersResponse struct {
	Clusters []dedupe.Cluster `json:"clusters"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.Check(r.Context(), chi.URLParam(r, "ownerID"), req.Buyer, req.Ignore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, result, err := h.svc.Create(r.Context(), chi.URLParam(r, "ownerID"), req.Buyer, req.Force)
	if eris.Is(err, buyer.ErrDuplicate) {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	choices, err := dedupe.ParseMergeChoices(req.Choices)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	merged, err := h.svc.Merge(r.Context(), chi.URLParam(r, "ownerID"), req.PrimaryID, req.SecondaryID, choices)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (h *handler) duplicates(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.svc.Scan(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if clusters == nil {
		clusters = []dedupe.Cluster{}
	}
	writeJSON(w, http.StatusOK, clustersResponse{Clusters: clusters})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case eris.Is(err, buyer.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case eris.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
