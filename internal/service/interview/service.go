// Package interview implements the session-state machine behind the
// step-through interview flow: metadata intake, question-set acquisition,
// per-question answer capture, advancement, and finalization.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techideas/interview/backend/internal/journal"
	"github.com/techideas/interview/backend/internal/metrics"
	model "github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/service/webhook"
)

// minAnswerLength is the trimmed length a response must reach to count as a
// meaningful answer.
const minAnswerLength = 5

var (
	ErrSessionNotFound = errors.New("interview session not found")
	// ErrWrongPhase means the requested operation does not apply to the
	// session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
)

// ValidationError reports user input that fails a local constraint. It is
// recoverable by re-input and never reaches the transport.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveFailedError wraps a transport failure during answer persistence. The
// answer was not recorded and the session did not advance.
type SaveFailedError struct {
	QuestionID string
	Err        error
}

func (e *SaveFailedError) Error() string {
	return fmt.Sprintf("answer for %s was not recorded: %v", e.QuestionID, e.Err)
}

func (e *SaveFailedError) Unwrap() error { return e.Err }

// Transport is the collaborator that supplies questions and records answers.
// webhook.Client satisfies it.
type Transport interface {
	FetchQuestions(ctx context.Context, meta model.SessionMetadata) ([]model.Question, error)
	SaveAnswer(ctx context.Context, record webhook.AnswerRecord) error
}

// FinalizeReason distinguishes natural completion from an explicit abort.
type FinalizeReason string

const (
	ReasonCompleted     FinalizeReason = "completed"
	ReasonAbortedByUser FinalizeReason = "aborted_by_user"
)

// sessionSlot pairs one session's state with the lock that serializes its
// operations.
type sessionSlot struct {
	mu    sync.Mutex
	state model.SessionState
}

// Service owns interview sessions and drives the phase machine. Each
// session's operations run one at a time; the per-session lock covers an
// entire operation including its transport call, so no interleaved mutation
// is observable within a session. Sessions are independent: one session's
// slow webhook call never delays another session's operations. The
// service-wide lock guards only the session map.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionSlot

	transport Transport
	journal   *journal.Journal
	metrics   *metrics.Metrics
	fallback  []model.Question
	now       func() time.Time
}

// Option customizes Service construction.
type Option func(*Service)

// WithJournal enables the local answer journal.
func WithJournal(j *journal.Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithMetrics wires the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFallbackQuestions overrides the built-in fallback question list.
func WithFallbackQuestions(questions []model.Question) Option {
	return func(s *Service) {
		if len(questions) > 0 {
			s.fallback = append([]model.Question(nil), questions...)
		}
	}
}

// NewService bootstraps the in-memory interview service.
func NewService(transport Transport, opts ...Option) *Service {
	s := &Service{
		sessions:  make(map[string]*sessionSlot),
		transport: transport,
		fallback:  model.FallbackQuestions(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession provisions a fresh session awaiting metadata.
func (s *Service) StartSession(_ context.Context, profileID string) model.SessionState {
	slot := &sessionSlot{
		state: model.SessionState{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			Phase:     model.PhaseAwaitingMetadata,
			CreatedAt: s.now(),
		},
	}

	s.mu.Lock()
	s.sessions[slot.state.ID] = slot
	s.mu.Unlock()

	return slot.state
}

// slot looks up a session's slot. The service-wide lock is held only for the
// map read, never across a slot operation.
func (s *Service) slot(sessionID string) (*sessionSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.sessions[sessionID]
	return slot, ok
}

// GetSession returns a copy of the session state.
func (s *Service) GetSession(_ context.Context, sessionID string) (model.SessionState, error) {
	slot, ok := s.slot(sessionID)
	if !ok {
		return model.SessionState{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state, nil
}

// SubmitMetadata validates the identity form, fetches the question set, and
// moves the session into the interviewing phase.
//
// Question acquisition is lenient: any transport, configuration, or shape
// failure substitutes the fallback list rather than blocking the respondent.
// Fewer than two usable questions also triggers the substitution, because
// the step-through UI needs both a "next" and a "finish" branch.
func (s *Service) SubmitMetadata(ctx context.Context, sessionID, userID string, role model.Role, area model.Area) (model.SessionState, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.SessionState{}, &ValidationError{Field: "userId", Message: "name or ID is required"}
	}
	if !role.Valid() {
		return model.SessionState{}, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	if !area.Valid() {
		return model.SessionState{}, &ValidationError{Field: "area", Message: fmt.Sprintf("unknown area %q", area)}
	}

	slot, ok := s.slot(sessionID)
	if !ok {
		return model.SessionState{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	session := &slot.state
	if session.Phase != model.PhaseAwaitingMetadata {
		return model.SessionState{}, fmt.Errorf("%w: metadata already submitted", ErrWrongPhase)
	}

	meta := model.SessionMetadata{
		UserID:    userID,
		Role:      role,
		Area:      area,
		StartedAt: s.now(),
	}

	session.Phase = model.PhaseFetchingQuestions
	questions := s.fetchQuestions(ctx, meta)

	session.Metadata = &meta
	session.Questions = questions
	session.CurrentIndex = 0
	session.Phase = model.PhaseInterviewing
	s.metrics.SessionStarted()

	return *session, nil
}

// fetchQuestions retrieves the question set for the respondent, applying the
// fallback policy on any failure or short list.
func (s *Service) fetchQuestions(ctx context.Context, meta model.SessionMetadata) []model.Question {
	started := time.Now()
	questions, err := s.transport.FetchQuestions(ctx, meta)
	s.metrics.ObserveWebhook("fetch_questions", time.Since(started))

	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotConfigured):
			log.Printf("[interview] questions webhook not configured, using fallback list")
		case errors.Is(err, webhook.ErrMalformedResponse):
			log.Printf("[interview] questions webhook returned unusable payload: %v", err)
		default:
			log.Printf("[interview] questions webhook failed: %v", err)
		}
		s.metrics.FallbackUsed()
		return append([]model.Question(nil), s.fallback...)
	}

	if len(questions) < 2 {
		log.Printf("[interview] webhook returned %d usable question(s), using fallback list", len(questions))
		s.metrics.FallbackUsed()
		return append([]model.Question(nil), s.fallback...)
	}

	return questions
}

// SubmitAnswer validates and persists the response to the current question.
// On transport failure the cursor does not move and the caller keeps the
// typed text for a retry; the same question id is reused on that retry. On
// success the session advances, or finalizes when the set is exhausted.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, answerText string) (model.SessionState, error) {
	if len(strings.TrimSpace(answerText)) < minAnswerLength {
		return model.SessionState{}, &ValidationError{
			Field:   "answer",
			Message: fmt.Sprintf("a meaningful answer of at least %d characters is required", minAnswerLength),
		}
	}

	slot, ok := s.slot(sessionID)
	if !ok {
		return model.SessionState{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	session := &slot.state
	question, ok := session.CurrentQuestion()
	if !ok {
		return model.SessionState{}, fmt.Errorf("%w: no question awaiting an answer", ErrWrongPhase)
	}

	answer := model.Answer{
		QuestionID: question.ID,
		Text:       answerText,
		AnsweredAt: s.now(),
	}
	record := webhook.AnswerRecord{
		UserID:     session.Metadata.UserID,
		Role:       string(session.Metadata.Role),
		Area:       string(session.Metadata.Area),
		QuestionID: answer.QuestionID,
		AnswerText: answer.Text,
		AnsweredAt: answer.AnsweredAt.Format(time.RFC3339),
	}

	var journalID int64
	if s.journal != nil {
		id, err := s.journal.Record(ctx, journal.Entry{
			SessionID:  session.ID,
			QuestionID: answer.QuestionID,
			AnswerText: answer.Text,
			AnsweredAt: answer.AnsweredAt,
		})
		if err != nil {
			log.Printf("[interview] journal write failed: %v", err)
		} else {
			journalID = id
		}
	}

	started := time.Now()
	err := s.transport.SaveAnswer(ctx, record)
	s.metrics.ObserveWebhook("save_answer", time.Since(started))
	if err != nil {
		// The respondent must never believe an unsaved answer was recorded.
		s.metrics.AnswerSaved("failed")
		return *session, &SaveFailedError{QuestionID: question.ID, Err: err}
	}
	s.metrics.AnswerSaved("ok")

	if s.journal != nil && journalID != 0 {
		if err := s.journal.MarkDelivered(ctx, journalID); err != nil {
			log.Printf("[interview] journal update failed: %v", err)
		}
	}

	if session.CurrentIndex+1 < len(session.Questions) {
		session.CurrentIndex++
		return *session, nil
	}

	// Question set exhausted. The returned snapshot reports the finalizing
	// phase so the caller can render completion; the stored session is
	// already cleared for a fresh start.
	session.CurrentIndex = len(session.Questions)
	session.Phase = model.PhaseFinalizing
	snapshot := *session
	s.finalizeLocked(session, ReasonCompleted)
	return snapshot, nil
}

// Abort discards any in-progress answer without transmitting it and resets
// the session. This is a deliberate user choice, not a failure path.
func (s *Service) Abort(_ context.Context, sessionID string) (model.SessionState, error) {
	slot, ok := s.slot(sessionID)
	if !ok {
		return model.SessionState{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	s.finalizeLocked(&slot.state, ReasonAbortedByUser)
	return slot.state, nil
}

// finalizeLocked clears the session back to AwaitingMetadata. Caller holds
// the session's lock.
func (s *Service) finalizeLocked(session *model.SessionState, reason FinalizeReason) {
	switch reason {
	case ReasonCompleted:
		s.metrics.SessionCompleted()
		log.Printf("[interview] session=%s completed, %d questions answered", session.ID, len(session.Questions))
	case ReasonAbortedByUser:
		s.metrics.SessionAborted()
		log.Printf("[interview] session=%s aborted by user at question %d", session.ID, session.CurrentIndex+1)
	}
	session.Reset()
}
