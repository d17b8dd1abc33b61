package interview

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/techideas/interview/backend/internal/model/interview"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
	"github.com/techideas/interview/backend/internal/service/webhook"
	"github.com/techideas/interview/backend/pkg/utils"
)

// Handler exposes the interview controller over REST.
type Handler struct {
	svc           *interviewService.Service
	defaultUserID string
}

// New creates the interview handler. defaultUserID pre-fills the identity
// form for test deployments.
func New(svc *interviewService.Service, defaultUserID string) *Handler {
	return &Handler{
		svc:           svc,
		defaultUserID: defaultUserID,
	}
}

// RegisterRoutes registers the interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/interview", func(r chi.Router) {
		r.Post("/session", h.handleCreateSession)
		r.Get("/session/{sessionID}", h.handleView)
		r.Post("/session/{sessionID}/metadata", h.handleSubmitMetadata)
		r.Post("/session/{sessionID}/answer", h.handleSubmitAnswer)
		r.Post("/session/{sessionID}/abort", h.handleAbort)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}
	// Body is optional; an empty profile means the default interview flow.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	state := h.svc.StartSession(r.Context(), payload.ProfileID)
	view := interviewService.Render(state)
	utils.RespondJSON(w, http.StatusCreated, renderResponse{View: view, DefaultUserID: h.defaultUserID})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, renderResponse{View: interviewService.Render(state), DefaultUserID: h.defaultUserID})
}

func (h *Handler) handleSubmitMetadata(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
		Area   string `json:"area"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.SubmitMetadata(r.Context(), sessionID, payload.UserID, model.Role(payload.Role), model.Area(payload.Area))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, renderResponse{View: interviewService.Render(state)})
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.SubmitAnswer(r.Context(), sessionID, payload.Answer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, renderResponse{View: interviewService.Render(state)})
}

func (h *Handler) handleAbort(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.svc.Abort(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, renderResponse{View: interviewService.Render(state)})
}

type renderResponse struct {
	interviewService.View
	DefaultUserID string `json:"defaultUserId,omitempty"`
}

// respondServiceError maps the controller's error classes to HTTP statuses.
// Validation and configuration problems get distinct, specific messages so a
// respondent or operator is never left guessing.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *interviewService.ValidationError
	if errors.As(err, &validationErr) {
		utils.RespondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var saveErr *interviewService.SaveFailedError
	if errors.As(err, &saveErr) {
		status := http.StatusBadGateway
		message := "your answer was not recorded, please try again"
		if errors.Is(err, webhook.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
			message = "answer endpoint is not configured; contact the operator"
		}
		utils.RespondJSON(w, status, map[string]string{
			"error":      message,
			"questionId": saveErr.QuestionID,
			"detail":     saveErr.Err.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, interviewService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "interview session not found")
	case errors.Is(err, interviewService.ErrWrongPhase):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
