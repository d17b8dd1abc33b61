package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techideas/interview/backend/internal/model/profile"
	"github.com/techideas/interview/backend/pkg/utils"
)

// Handler serves the responder profile catalogue.
type Handler struct {
	profiles profile.Store
}

// New creates a profile handler.
func New(profiles profile.Store) *Handler {
	return &Handler{
		profiles: profiles,
	}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.List())
}
