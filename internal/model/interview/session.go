package interview

import "time"

// Phase is the controller state for one interview session.
type Phase string

const (
	// PhaseAwaitingMetadata is the initial state: the respondent has not yet
	// identified themselves.
	PhaseAwaitingMetadata Phase = "awaiting_metadata"
	// PhaseFetchingQuestions is transient while the question set is being
	// retrieved; it is never persisted across operations.
	PhaseFetchingQuestions Phase = "fetching_questions"
	// PhaseInterviewing means questions are loaded and answers are being
	// collected one at a time.
	PhaseInterviewing Phase = "interviewing"
	// PhaseFinalizing marks exhaustion of the question set, immediately
	// before reset.
	PhaseFinalizing Phase = "finalizing"
)

// SessionState is the complete interview state for one session.
//
// Invariants: 0 <= CurrentIndex <= len(Questions); PhaseInterviewing implies
// Metadata != nil and len(Questions) > 0. CurrentIndex == len(Questions) is
// never rendered as an interview step.
type SessionState struct {
	ID           string           `json:"id"`
	ProfileID    string           `json:"profileId"`
	Metadata     *SessionMetadata `json:"metadata,omitempty"`
	Questions    []Question       `json:"questions,omitempty"`
	CurrentIndex int              `json:"currentIndex"`
	Phase        Phase            `json:"phase"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Reset clears everything back to the initial state while keeping the
// session identity, so the same client can start over.
func (s *SessionState) Reset() {
	s.Metadata = nil
	s.Questions = nil
	s.CurrentIndex = 0
	s.Phase = PhaseAwaitingMetadata
}

// CurrentQuestion returns the question at the cursor, if the session is in a
// state where one is being shown.
func (s *SessionState) CurrentQuestion() (Question, bool) {
	if s.Phase != PhaseInterviewing {
		return Question{}, false
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}
