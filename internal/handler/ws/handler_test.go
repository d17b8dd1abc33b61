package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/techideas/interview/backend/internal/model/profile"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
)

func setupServer(t *testing.T) (*httptest.Server, *chatService.Service, profile.Store) {
	t.Helper()

	chatSvc := chatService.NewService()
	store := profile.NewMemoryStore(profile.Seed())
	handler := New(nil, chatSvc, nil, store, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc, store
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestUnknownSessionRejectedBeforeUpgrade(t *testing.T) {
	srv, _, _ := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}

func TestPingPong(t *testing.T) {
	srv, chatSvc, store := setupServer(t)
	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	if err := conn.WriteJSON(inboundFrame{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "pong" {
		t.Fatalf("expected pong, got %q", frame.Type)
	}
	if frame.SessionID != session.ID {
		t.Fatalf("unexpected session id %q", frame.SessionID)
	}
	if frame.Timestamp == 0 {
		t.Fatal("expected timestamp to be set")
	}
}

func TestEmptyMessageReturnsErrorFrame(t *testing.T) {
	srv, chatSvc, store := setupServer(t)
	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	if err := conn.WriteJSON(inboundFrame{Type: "message", Content: ""}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "error" || frame.Error != "empty message" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestUnknownFrameTypeReturnsErrorFrame(t *testing.T) {
	srv, chatSvc, store := setupServer(t)
	session, err := chatSvc.CreateSession(context.Background(), store.List()[0].ID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	if err := conn.WriteJSON(inboundFrame{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "error" || frame.Error != "unknown frame type" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}
