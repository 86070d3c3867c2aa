package handlers

import (
	"net/http"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
)

// HostHandler exposes the host inventory read side.
type HostHandler struct {
	Repo *repo.HostRepo
}

// ListHosts returns all monitored hosts.
func (h *HostHandler) ListHosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Host{}
	}
	writeJSON(w, http.StatusOK, list)
}
