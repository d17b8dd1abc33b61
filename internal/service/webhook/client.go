package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/techideas/interview/backend/internal/model/interview"
)

var (
	// ErrNotConfigured means the endpoint URL is empty or still the
	// placeholder from the sample env file. This is an operator problem,
	// reported distinctly from a transport failure.
	ErrNotConfigured = errors.New("webhook endpoint not configured")
	// ErrMalformedResponse means the endpoint answered with a success status
	// but a body that could not be mapped to questions.
	ErrMalformedResponse = errors.New("webhook returned a malformed response")
)

// TransportError reports an unreachable endpoint or a non-success status.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook %s unreachable: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("webhook %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config holds the workflow endpoints and the per-call timeout.
type Config struct {
	FetchQuestionsURL string
	SaveAnswerURL     string
	SaveSessionURL    string
	Timeout           time.Duration
}

// Configured reports whether at least one endpoint is usable.
func (c Config) Configured() bool {
	return usableURL(c.FetchQuestionsURL) || usableURL(c.SaveAnswerURL) || usableURL(c.SaveSessionURL)
}

// Client talks to the external workflow-automation webhooks that supply
// interview questions and record answers. One attempt per call, no retries;
// recovery policy belongs to the caller.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a webhook client with a bounded per-request timeout so
// the UI never blocks indefinitely on a dead endpoint.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// AnswerRecord is the flat payload persisted per answer: the respondent
// identity plus one question/answer pair.
type AnswerRecord struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	Area       string `json:"area"`
	QuestionID string `json:"question_id"`
	AnswerText string `json:"answer_text"`
	AnsweredAt string `json:"answered_at"`
}

// FetchQuestions posts the session metadata and decodes the returned
// question set. The response body is normalized across the shapes the
// workflow endpoint has been seen to emit.
func (c *Client) FetchQuestions(ctx context.Context, meta interview.SessionMetadata) ([]interview.Question, error) {
	body, err := c.post(ctx, "fetch_questions", c.cfg.FetchQuestionsURL, meta)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	questions, err := interview.DecodeQuestions(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return questions, nil
}

// SaveAnswer posts one answer record. Success is the 2xx status alone; no
// body is required.
func (c *Client) SaveAnswer(ctx context.Context, record AnswerRecord) error {
	_, err := c.post(ctx, "save_answer", c.cfg.SaveAnswerURL, record)
	return err
}

// EventSessionFinished marks a SessionExport as the end-of-conversation
// record.
const EventSessionFinished = "session_finished"

// ExportMessage is one transcript entry in a session export.
type ExportMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	SentAt  string `json:"sent_at"`
}

// SessionExport is the payload posted when a chat session is finalized: the
// respondent identity when an interview supplied one, timing, and the full
// transcript in both rendered and structured form.
type SessionExport struct {
	Event           string          `json:"event"`
	SessionID       string          `json:"session_id"`
	ProfileID       string          `json:"profile_id"`
	UserID          string          `json:"user_id,omitempty"`
	Role            string          `json:"role,omitempty"`
	Area            string          `json:"area,omitempty"`
	StartedAt       string          `json:"started_at"`
	FinishedAt      string          `json:"finished_at"`
	DurationSeconds int64           `json:"duration_seconds"`
	MessageCount    int             `json:"message_count"`
	TranscriptText  string          `json:"transcript_text"`
	Messages        []ExportMessage `json:"messages"`
}

// SaveSession posts the finished-session export. Success is the 2xx status
// alone.
func (c *Client) SaveSession(ctx context.Context, export SessionExport) error {
	_, err := c.post(ctx, "save_session", c.cfg.SaveSessionURL, export)
	return err
}

func (c *Client) post(ctx context.Context, endpoint, url string, payload any) ([]byte, error) {
	if !usableURL(url) {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, endpoint)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

// usableURL rejects empty values and the placeholder text shipped in the
// sample env file, so "never configured" is not mistaken for "service down".
func usableURL(url string) bool {
	return url != "" && !strings.Contains(url, "<Webhook URL")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
