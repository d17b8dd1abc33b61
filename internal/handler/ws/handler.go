package ws

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/techideas/interview/backend/internal/metrics"
	"github.com/techideas/interview/backend/internal/model/chat"
	modelInterview "github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
	aiService "github.com/techideas/interview/backend/internal/service/ai"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
)

// Handler serves the WebSocket chat transport: the same responder turn
// pipeline as the SSE endpoint, for clients that keep one connection open.
type Handler struct {
	aiSvc      *aiService.Service
	chatSvc    *chatService.Service
	interviews *interviewService.Service
	profiles   profile.Store
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
}

// New creates a WebSocket chat handler.
func New(aiSvc *aiService.Service, chatSvc *chatService.Service, interviews *interviewService.Service, profiles profile.Store, m *metrics.Metrics) *Handler {
	return &Handler{
		aiSvc:      aiSvc,
		chatSvc:    chatSvc,
		interviews: interviews,
		profiles:   profiles,
		metrics:    m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type outboundFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	prof, ok := h.profiles.FindByID(session.ProfileID)
	if !ok {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		switch frame.Type {
		case "message":
			if frame.Content == "" {
				h.writeFrame(conn, outboundFrame{Type: "error", SessionID: sessionID, Error: "empty message"})
				continue
			}
			h.handleTurn(r.Context(), conn, sessionID, &prof, frame.Content)
		case "ping":
			h.writeFrame(conn, outboundFrame{Type: "pong", SessionID: sessionID})
		default:
			h.writeFrame(conn, outboundFrame{Type: "error", SessionID: sessionID, Error: "unknown frame type"})
		}
	}
}

// handleTurn runs one responder turn and streams delta frames back. A failed
// turn rolls the user message back out of history.
func (h *Handler) handleTurn(ctx context.Context, conn *websocket.Conn, sessionID string, prof *profile.Profile, userMessage string) {
	messages, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.writeFrame(conn, outboundFrame{Type: "error", SessionID: sessionID, Error: err.Error()})
		return
	}

	userMsg := chat.Message{SessionID: sessionID, Sender: "user", Content: userMessage}
	savedThisTurn := false
	if err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
		log.Printf("[ws] failed to save user message: %v", err)
	} else {
		messages = append(messages, userMsg)
		savedThisTurn = true
	}

	meta := h.interviewMetadata(ctx, sessionID)

	response, err := h.runResponder(ctx, conn, sessionID, prof, messages, userMessage, meta)
	if err != nil {
		if savedThisTurn {
			if rbErr := h.chatSvc.RemoveLastMessage(ctx, sessionID); rbErr != nil {
				log.Printf("[ws] failed to roll back user message: %v", rbErr)
			}
		}
		h.metrics.ResponderTurn("ws", "error")
		h.writeFrame(conn, outboundFrame{Type: "error", SessionID: sessionID, Error: err.Error()})
		return
	}
	h.metrics.ResponderTurn("ws", "ok")

	if err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    "assistant",
		Content:   response.Content,
	}); err != nil {
		log.Printf("[ws] failed to save assistant message: %v", err)
	}

	h.writeFrame(conn, outboundFrame{Type: "message", SessionID: sessionID, Content: response.Content})
}

func (h *Handler) runResponder(ctx context.Context, conn *websocket.Conn, sessionID string, prof *profile.Profile, messages []chat.Message, userMessage string, meta *modelInterview.SessionMetadata) (*schema.Message, error) {
	if !h.aiSvc.StreamingEnabled() {
		return h.aiSvc.GenerateResponse(ctx, sessionID, prof, messages, userMessage, meta)
	}

	stream, err := h.aiSvc.StreamResponse(ctx, prof, messages, userMessage, meta)
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
			h.writeFrame(conn, outboundFrame{Type: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	return schema.ConcatMessages(chunks)
}

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

func (h *Handler) writeFrame(conn *websocket.Conn, frame outboundFrame) {
	frame.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
