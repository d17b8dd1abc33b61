package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/techideas/interview/backend/internal/metrics"
	"github.com/techideas/interview/backend/internal/model/chat"
	modelInterview "github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
	aiService "github.com/techideas/interview/backend/internal/service/ai"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
	"github.com/techideas/interview/backend/pkg/utils"
)

// Handler manages streaming responder turns via Server-Sent Events.
type Handler struct {
	aiService  *aiService.Service
	chatSvc    *chatService.Service
	interviews *interviewService.Service
	profiles   profile.Store
	metrics    *metrics.Metrics
}

// New creates a stream handler. interviews may be nil when no interview flow
// is deployed.
func New(aiSvc *aiService.Service, chatSvc *chatService.Service, interviews *interviewService.Service, profiles profile.Store, m *metrics.Metrics) *Handler {
	return &Handler{
		aiService:  aiSvc,
		chatSvc:    chatSvc,
		interviews: interviews,
		profiles:   profiles,
		metrics:    m,
	}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one responder turn for a chat session. On
// responder failure the user message appended for this turn is rolled back so
// history never implies an answered turn that never completed.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, prof, err := h.getSessionProfile(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to resolve session: %v", err))
		return err
	}

	messages, err := h.chatSvc.LoadTranscript(ctx, session.ID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to load conversation: %v", err))
		return err
	}

	// Save the user message unless the client already persisted it via REST.
	savedThisTurn := false
	if !hasMatchingUserMessage(messages, sessionID, userMessage) {
		userMsg := chat.Message{
			SessionID: sessionID,
			Sender:    "user",
			Content:   userMessage,
		}
		if err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
			log.Printf("failed to save user message: %v", err)
		} else {
			messages = append(messages, userMsg)
			savedThisTurn = true
		}
	}

	meta := h.interviewMetadata(ctx, session)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s:", prof.Name),
	})

	response, err := h.dispatchResponderTurn(ctx, w, flusher, sessionID, prof, messages, userMessage, meta)
	if err != nil {
		if savedThisTurn {
			if rbErr := h.chatSvc.RemoveLastMessage(ctx, sessionID); rbErr != nil {
				log.Printf("[stream] failed to roll back user message: %v", rbErr)
			}
		}
		h.sendSSEError(w, flusher, fmt.Sprintf("responder failed: %v", err))
		return err
	}

	assistantMsg := chat.Message{
		SessionID: sessionID,
		Sender:    "assistant",
		Content:   response.Content,
	}
	if err := h.chatSvc.SaveMessage(ctx, assistantMsg); err != nil {
		log.Printf("failed to save assistant message: %v", err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s, profile=%s", sessionID, prof.ID)
	return nil
}

func (h *Handler) dispatchResponderTurn(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, prof *profile.Profile, messages []chat.Message, userMessage string, meta *modelInterview.SessionMetadata) (*schema.Message, error) {
	if h.aiService.StreamingEnabled() {
		response, err := h.streamResponderTurn(ctx, w, flusher, sessionID, prof, messages, userMessage, meta)
		if err != nil {
			h.metrics.ResponderTurn("stream", "error")
			return nil, err
		}
		h.metrics.ResponderTurn("stream", "ok")
		return response, nil
	}

	response, err := h.aiService.GenerateResponse(ctx, sessionID, prof, messages, userMessage, meta)
	if err != nil {
		h.metrics.ResponderTurn("invoke", "error")
		return nil, err
	}
	h.metrics.ResponderTurn("invoke", "ok")

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response, nil
}

// getSessionProfile resolves the chat session and its responder profile.
func (h *Handler) getSessionProfile(ctx context.Context, sessionID string) (*chat.Session, *profile.Profile, error) {
	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}

	prof, ok := h.profiles.FindByID(session.ProfileID)
	if !ok {
		return nil, nil, fmt.Errorf("profile %s not found", session.ProfileID)
	}

	return &session, &prof, nil
}

// interviewMetadata returns the respondent identity bound to this chat, if
// the session is linked to an interview that collected one.
func (h *Handler) interviewMetadata(ctx context.Context, session *chat.Session) *modelInterview.SessionMetadata {
	if h.interviews == nil || session.InterviewID == "" {
		return nil
	}

	state, err := h.interviews.GetSession(ctx, session.InterviewID)
	if err != nil {
		log.Printf("[stream] bound interview %s not found: %v", session.InterviewID, err)
		return nil
	}
	return state.Metadata
}

func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	if last.SessionID != sessionID {
		return false
	}

	if last.Sender != "user" {
		return false
	}

	return last.Content == content
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}

func (h *Handler) streamResponderTurn(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, prof *profile.Profile, messages []chat.Message, userMessage string, meta *modelInterview.SessionMetadata) (*schema.Message, error) {
	stream, err := h.aiService.StreamResponse(ctx, prof, messages, userMessage, meta)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response, nil
}
