package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/middleware"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/window"
)

// SilenceHandler exposes the silencing engine: ad-hoc creation, per-host
// lookup, and the active-window overview.
type SilenceHandler struct {
	Factory    *window.Factory
	Resolver   *window.Resolver
	Aggregator *window.Aggregator
	Hosts      *repo.HostRepo
	// Enabled gates ad-hoc creation; when false the endpoint fails fast
	// without touching storage.
	Enabled bool
}

// adhocResponse is the fixed success/failure envelope for ad-hoc creation.
type adhocResponse struct {
	Success   bool   `json:"success"`
	WindowID  int    `json:"window_id,omitempty"`
	Message   string `json:"message,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CreateAdhoc creates an ad-hoc window.
// Body: {"target_type": "host"|"group", "target_id": N, "duration": minutes, "description": "..."}.
func (h *SilenceHandler) CreateAdhoc(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled {
		writeJSON(w, http.StatusForbidden, adhocResponse{Success: false, Error: "maintenance windows are disabled"})
		return
	}

	var input struct {
		TargetType  string `json:"target_type"`
		TargetID    int    `json:"target_id"`
		Duration    int    `json:"duration"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, adhocResponse{Success: false, Error: "invalid JSON"})
		return
	}

	createdBy := middleware.Username(r.Context())
	id, until, err := h.Factory.Create(r.Context(), input.TargetType, input.TargetID, input.Duration, input.Description, createdBy)
	var verr *window.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, adhocResponse{Success: false, Error: verr.Error()})
		return
	}
	if err != nil {
		slog.Error("create adhoc window", "error", err)
		writeJSON(w, http.StatusInternalServerError, adhocResponse{Success: false, Error: ErrMessageInternal})
		return
	}

	writeJSON(w, http.StatusCreated, adhocResponse{
		Success:   true,
		WindowID:  id,
		Message:   fmt.Sprintf("silenced %s %d for %d minutes", input.TargetType, input.TargetID, input.Duration),
		ExpiresAt: until.Format("2006-01-02 15:04:05"),
	})
}

// HostSilence reports whether the host is covered by an active window.
func (h *SilenceHandler) HostSilence(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid host id", http.StatusBadRequest)
		return
	}

	host, err := h.Hosts.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if host == nil {
		JSONError(w, "host not found", http.StatusNotFound)
		return
	}

	s, err := h.Resolver.ActiveWindowFor(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Silenced bool            `json:"silenced"`
		Silence  *window.Silence `json:"silence,omitempty"`
	}{Silenced: s != nil, Silence: s})
}

// ActiveSilences returns the active-window overview for the dashboard.
func (h *SilenceHandler) ActiveSilences(w http.ResponseWriter, r *http.Request) {
	list, err := h.Aggregator.AllActive(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []window.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}
