package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/techideas/interview/backend/internal/model/profile"
	chatservice "github.com/techideas/interview/backend/internal/service/chat"
	"github.com/techideas/interview/backend/internal/service/webhook"
)

type fakeExporter struct {
	err   error
	calls int
}

func (f *fakeExporter) SaveSession(_ context.Context, _ webhook.SessionExport) error {
	f.calls++
	return f.err
}

func setupRouter() (*chi.Mux, *chatservice.Service, profile.Store) {
	return setupRouterWithService(chatservice.NewService())
}

func setupRouterWithService(chatSvc *chatservice.Service) (*chi.Mux, *chatservice.Service, profile.Store) {
	store := profile.NewMemoryStore(profile.Seed())
	handler := New(chatSvc, store, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, store
}

func TestCreateSessionValidProfile(t *testing.T) {
	r, _, store := setupRouter()
	profiles := store.List()
	body := map[string]string{"profileId": profiles[0].ID}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCreateSessionInvalidProfile(t *testing.T) {
	r, _, _ := setupRouter()
	body := map[string]string{"profileId": "non-existent"}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionMissingProfileID(t *testing.T) {
	r, _, _ := setupRouter()
	payload := []byte(`{}`)

	req := httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionBindsInterview(t *testing.T) {
	r, chatSvc, store := setupRouter()
	profiles := store.List()
	body := map[string]string{"profileId": profiles[0].ID, "interviewId": "interview-1"}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var session struct {
		ID          string `json:"id"`
		InterviewID string `json:"interviewId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.InterviewID != "interview-1" {
		t.Fatalf("interview not bound: %q", session.InterviewID)
	}

	stored, err := chatSvc.GetSession(req.Context(), session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if stored.InterviewID != "interview-1" {
		t.Fatalf("binding not persisted: %q", stored.InterviewID)
	}
}

func TestSaveMessageUnknownSession(t *testing.T) {
	r, _, _ := setupRouter()
	body := map[string]string{"sessionId": "missing", "sender": "user", "content": "hello"}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	r, chatSvc, store := setupRouter()
	profiles := store.List()

	session, err := chatSvc.CreateSession(context.Background(), profiles[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	body := map[string]string{"sessionId": session.ID, "sender": "user", "content": "hello"}
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("save: expected 202, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/session/"+session.ID+"/transcript", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("transcript: expected 200, got %d", resp.Code)
	}

	var messages []struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "hello" {
		t.Fatalf("unexpected transcript: %+v", messages)
	}
}

func TestCreateSessionGatedProfileRequiresInterview(t *testing.T) {
	r, _, _ := setupRouter()

	payload, _ := json.Marshal(map[string]string{"profileId": "tech-ideas"})
	req := httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without interviewId, got %d", resp.Code)
	}

	payload, _ = json.Marshal(map[string]string{"profileId": "tech-ideas", "interviewId": "interview-1"})
	req = httptest.NewRequest(http.MethodPost, "/chat/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 with interviewId, got %d", resp.Code)
	}
}

func TestFinalizeSessionEndsSession(t *testing.T) {
	exporter := &fakeExporter{}
	r, chatSvc, store := setupRouterWithService(chatservice.NewService(chatservice.WithExporter(exporter)))

	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/session/"+session.ID+"/finalize", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d", resp.Code)
	}
	if exporter.calls != 1 {
		t.Fatalf("expected 1 export call, got %d", exporter.calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/session/"+session.ID+"/transcript", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after finalize, got %d", resp.Code)
	}
}

func TestFinalizeSessionExportFailure(t *testing.T) {
	exporter := &fakeExporter{err: &webhook.TransportError{Endpoint: "save_session", StatusCode: 500}}
	r, chatSvc, store := setupRouterWithService(chatservice.NewService(chatservice.WithExporter(exporter)))

	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/session/"+session.ID+"/finalize", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	// The session survives so the client can retry.
	req = httptest.NewRequest(http.MethodGet, "/chat/session/"+session.ID+"/transcript", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected session to survive failed export, got %d", resp.Code)
	}
}

func TestFinalizeSessionNoExporterConfigured(t *testing.T) {
	r, chatSvc, store := setupRouter()

	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/session/"+session.ID+"/finalize", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/chat/session/missing/finalize", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
