package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/techideas/interview/backend/internal/model/chat"
	"github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/service/webhook"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// TranscriptExporter posts a finished session to the external workflow.
// webhook.Client satisfies it.
type TranscriptExporter interface {
	SaveSession(ctx context.Context, export webhook.SessionExport) error
}

// Service encapsulates conversation state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message

	exporter TranscriptExporter
	now      func() time.Time
}

// Option customizes Service construction.
type Option func(*Service)

// WithExporter wires the end-of-session transcript export.
func WithExporter(exporter TranscriptExporter) Option {
	return func(s *Service) { s.exporter = exporter }
}

// NewService bootstraps the in-memory chat service.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions an anonymous session bound to a responder profile.
func (s *Service) CreateSession(_ context.Context, profileID string) (chat.Session, error) {
	if profileID == "" {
		return chat.Session{}, ErrProfileRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// BindInterview associates an interview session with the chat session so the
// responder can inject the respondent's role and area into its context.
func (s *Service) BindInterview(_ context.Context, sessionID, interviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.InterviewID = interviewID
	s.sessions[sessionID] = session
	return nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// RemoveLastMessage drops the most recent message of a session. It is the
// rollback used when a responder turn fails after the user message was
// appended, so history never implies an answered turn that never completed.
func (s *Service) RemoveLastMessage(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if len(messages) == 0 {
		return nil
	}

	s.messages[sessionID] = messages[:len(messages)-1]
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// FinalizeSession exports the completed conversation to the external
// workflow and then ends the session. meta is the respondent identity when an
// interview supplied one; nil otherwise. A failed export leaves the session
// fully intact so the caller can retry; the session is removed only after the
// export was accepted.
func (s *Service) FinalizeSession(ctx context.Context, sessionID string, meta *interview.SessionMetadata) (webhook.SessionExport, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.RUnlock()
		return webhook.SessionExport{}, ErrSessionNotFound
	}
	messages := make([]chat.Message, len(s.messages[sessionID]))
	copy(messages, s.messages[sessionID])
	s.mu.RUnlock()

	export := s.buildExport(session, messages, meta)

	if s.exporter == nil {
		return export, fmt.Errorf("%w: save_session", webhook.ErrNotConfigured)
	}
	if err := s.exporter.SaveSession(ctx, export); err != nil {
		return export, fmt.Errorf("export session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	s.mu.Unlock()

	return export, nil
}

func (s *Service) buildExport(session chat.Session, messages []chat.Message, meta *interview.SessionMetadata) webhook.SessionExport {
	finishedAt := s.now()

	lines := make([]string, 0, len(messages))
	exported := make([]webhook.ExportMessage, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Sender, msg.Content))
		exported = append(exported, webhook.ExportMessage{
			Sender:  msg.Sender,
			Content: msg.Content,
			SentAt:  msg.CreatedAt.Format(time.RFC3339),
		})
	}

	export := webhook.SessionExport{
		Event:           webhook.EventSessionFinished,
		SessionID:       session.ID,
		ProfileID:       session.ProfileID,
		StartedAt:       session.CreatedAt.Format(time.RFC3339),
		FinishedAt:      finishedAt.Format(time.RFC3339),
		DurationSeconds: int64(finishedAt.Sub(session.CreatedAt).Seconds()),
		MessageCount:    len(messages),
		TranscriptText:  strings.Join(lines, "\n"),
		Messages:        exported,
	}
	if meta != nil {
		export.UserID = meta.UserID
		export.Role = string(meta.Role)
		export.Area = string(meta.Area)
	}
	return export
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
