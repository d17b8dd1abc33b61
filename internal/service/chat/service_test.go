package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	model "github.com/techideas/interview/backend/internal/model/chat"
	interviewModel "github.com/techideas/interview/backend/internal/model/interview"
	chat "github.com/techideas/interview/backend/internal/service/chat"
	"github.com/techideas/interview/backend/internal/service/webhook"
)

// fakeExporter records the export it was handed and fails on demand.
type fakeExporter struct {
	export webhook.SessionExport
	err    error
	calls  int
}

func (f *fakeExporter) SaveSession(_ context.Context, export webhook.SessionExport) error {
	f.calls++
	f.export = export
	return f.err
}

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "advisor")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.ProfileID != "advisor" {
		t.Fatalf("unexpected profile ID: got %s", got.ProfileID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceBindInterview(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "tech-ideas")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := svc.BindInterview(ctx, session.ID, "interview-1"); err != nil {
		t.Fatalf("BindInterview err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.InterviewID != "interview-1" {
		t.Fatalf("unexpected interview ID: got %s", got.InterviewID)
	}
}

func TestServiceRemoveLastMessage(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "advisor")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	for _, content := range []string{"hello", "how are you"} {
		if err := svc.SaveMessage(ctx, model.Message{SessionID: session.ID, Sender: "user", Content: content}); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}

	if err := svc.RemoveLastMessage(ctx, session.ID); err != nil {
		t.Fatalf("RemoveLastMessage err: %v", err)
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("expected 1 message after rollback, got %d", len(transcript))
	}
	if transcript[0].Content != "hello" {
		t.Fatalf("wrong message survived rollback: %s", transcript[0].Content)
	}
}

func TestServiceFinalizeSessionExportsAndEnds(t *testing.T) {
	exporter := &fakeExporter{}
	svc := chat.NewService(chat.WithExporter(exporter))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "tech-ideas")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	for _, msg := range []model.Message{
		{SessionID: session.ID, Sender: "user", Content: "hello"},
		{SessionID: session.ID, Sender: "assistant", Content: "hi there"},
	} {
		if err := svc.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}

	meta := &interviewModel.SessionMetadata{
		UserID: "alice",
		Role:   interviewModel.RoleDirector,
		Area:   interviewModel.AreaFinance,
	}
	export, err := svc.FinalizeSession(ctx, session.ID, meta)
	if err != nil {
		t.Fatalf("FinalizeSession err: %v", err)
	}

	if exporter.calls != 1 {
		t.Fatalf("expected 1 export call, got %d", exporter.calls)
	}
	if export.Event != webhook.EventSessionFinished {
		t.Fatalf("unexpected event: %s", export.Event)
	}
	if export.MessageCount != 2 || len(export.Messages) != 2 {
		t.Fatalf("unexpected message count: %+v", export)
	}
	if !strings.Contains(export.TranscriptText, "user: hello") || !strings.Contains(export.TranscriptText, "assistant: hi there") {
		t.Fatalf("transcript text incomplete: %q", export.TranscriptText)
	}
	if export.UserID != "alice" || export.Role != "Director" || export.Area != "Finance" {
		t.Fatalf("identity missing from export: %+v", export)
	}
	if export.StartedAt == "" || export.FinishedAt == "" {
		t.Fatalf("timing missing from export: %+v", export)
	}

	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
}

func TestServiceFinalizeSessionExportFailureKeepsSession(t *testing.T) {
	exporter := &fakeExporter{err: &webhook.TransportError{Endpoint: "save_session", StatusCode: 500}}
	svc := chat.NewService(chat.WithExporter(exporter))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "advisor")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := svc.SaveMessage(ctx, model.Message{SessionID: session.ID, Sender: "user", Content: "hello"}); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}

	if _, err := svc.FinalizeSession(ctx, session.ID, nil); err == nil {
		t.Fatal("expected export failure to surface")
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("session gone after failed export: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("transcript lost after failed export: %d messages", len(transcript))
	}

	// A retry after the endpoint recovers ends the session.
	exporter.err = nil
	if _, err := svc.FinalizeSession(ctx, session.ID, nil); err != nil {
		t.Fatalf("retry err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone after retry, got %v", err)
	}
}

func TestServiceFinalizeSessionWithoutExporter(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "advisor")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	_, err = svc.FinalizeSession(ctx, session.ID, nil)
	if !errors.Is(err, webhook.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); err != nil {
		t.Fatalf("session must survive an unconfigured export: %v", err)
	}
}

func TestServiceFinalizeSessionUnknown(t *testing.T) {
	svc := chat.NewService(chat.WithExporter(&fakeExporter{}))

	_, err := svc.FinalizeSession(context.Background(), "missing", nil)
	if !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceRemoveLastMessageEmptyHistory(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "advisor")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := svc.RemoveLastMessage(ctx, session.ID); err != nil {
		t.Fatalf("RemoveLastMessage on empty history err: %v", err)
	}
}
