package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techideas/interview/backend/internal/model/chat"
	modelInterview "github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
	"github.com/techideas/interview/backend/internal/service/webhook"
	"github.com/techideas/interview/backend/pkg/utils"
)

// Handler serves chat session and message endpoints.
type Handler struct {
	chatSvc      *chatService.Service
	profileStore profile.Store
	interviews   *interviewService.Service
}

// New creates a chat handler. interviews may be nil when no interview flow is
// deployed.
func New(chatSvc *chatService.Service, profileStore profile.Store, interviews *interviewService.Service) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		profileStore: profileStore,
		interviews:   interviews,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/session", h.handleCreateSession)
	r.Post("/chat/messages", h.handleSaveMessage)
	r.Get("/chat/session/{sessionID}/transcript", h.handleTranscript)
	r.Post("/chat/session/{sessionID}/finalize", h.handleFinalize)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID   string `json:"profileId"`
		InterviewID string `json:"interviewId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		utils.RespondError(w, http.StatusBadRequest, "profileId is required")
		return
	}

	prof, ok := h.profileStore.FindByID(payload.ProfileID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "profile not found")
		return
	}
	if prof.RequireInterview && payload.InterviewID == "" {
		utils.RespondError(w, http.StatusBadRequest, "this profile requires an interview; provide interviewId")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), prof.ID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload.InterviewID != "" {
		if err := h.chatSvc.BindInterview(r.Context(), session.ID, payload.InterviewID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to bind interview to session")
			return
		}
		session.InterviewID = payload.InterviewID
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := chat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
	}

	if err := h.chatSvc.SaveMessage(r.Context(), message); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleFinalize exports the conversation to the workflow endpoint and ends
// the session. Export failure keeps the session so the client can retry.
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	meta := h.interviewMetadata(r.Context(), sessionID)

	export, err := h.chatSvc.FinalizeSession(r.Context(), sessionID, meta)
	if err != nil {
		switch {
		case errors.Is(err, chatService.ErrSessionNotFound):
			utils.RespondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, webhook.ErrNotConfigured):
			utils.RespondError(w, http.StatusServiceUnavailable, "session export endpoint is not configured; contact the operator")
		default:
			utils.RespondError(w, http.StatusBadGateway, "your conversation was not exported, please try again")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":       "finalized",
		"sessionId":    export.SessionID,
		"messageCount": export.MessageCount,
	})
}

// interviewMetadata resolves the respondent identity bound to a chat session,
// if any.
func (h *Handler) interviewMetadata(ctx context.Context, sessionID string) *modelInterview.SessionMetadata {
	if h.interviews == nil {
		return nil
	}

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil || session.InterviewID == "" {
		return nil
	}

	state, err := h.interviews.GetSession(ctx, session.InterviewID)
	if err != nil {
		return nil
	}
	return state.Metadata
}
