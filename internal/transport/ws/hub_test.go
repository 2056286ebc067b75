package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"voxllm/internal/cache"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/repository"
	"voxllm/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHubBroadcastsToSessionOnly(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	a := &Connection{SessionID: "a", Send: make(chan []byte, 4), Hub: hub}
	b := &Connection{SessionID: "b", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastToSession("a", service.EventPhaseStarted, map[string]string{"phase": "analysis"})
	msg := receive(t, a.Send)
	if msg.Type != MsgPhaseStarted || !strings.Contains(string(msg.Payload), "analysis") {
		t.Fatalf("msg = %+v", msg)
	}
	select {
	case <-b.Send:
		t.Fatal("other session received the event")
	case <-time.After(50 * time.Millisecond):
	}

	hub.DisconnectSession("a")
	select {
	case _, ok := <-a.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connection not closed")
	}
	// Unregister after a disconnect must not panic on a double close.
	hub.Unregister(a)
}

func TestSessionWSStreamsEvents(t *testing.T) {
	auth, err := service.NewAuthService([]byte("ws-secret"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	hub := NewHub(logger.Nop())
	defer hub.Close()

	svc := service.NewInterviewService(cache.NewMemorySessionCache(time.Hour), repository.NewNoopCaseRepo(),
		cache.NewMemoryStatsCache(), nil, auth, logger.Nop())
	svc.SetBroadcaster(hub)

	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/cases/{id}", NewHandler(hub, auth, svc, []string{"*"}, logger.Nop()).SessionWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	start, err := svc.StartCase(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/cases/" + start.SessionID

	// Wrong or missing token is rejected before the upgrade.
	if _, resp, err := websocket.DefaultDialer.Dial(base, nil); err == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	other, _ := auth.GenerateSessionToken("someone-else")
	if _, resp, err := websocket.DefaultDialer.Dial(base+"?token="+other, nil); err == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+start.Token, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MsgNextAction {
		t.Fatalf("first message = %+v", msg)
	}

	if _, err := svc.SubmitAnswer(t.Context(), start.SessionID, model.FieldExistsExclusionLetter, true); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	var next model.Action
	if err := json.Unmarshal(msg.Payload, &next); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MsgNextAction || next.Question == nil || next.Question.Field != model.FieldExclusionLetter {
		t.Fatalf("msg = %s %+v", msg.Type, next)
	}

	// Closing the case ends the stream.
	if err := svc.CloseCase(t.Context(), start.SessionID); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	err = conn.ReadJSON(&msg)
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Fatalf("expected close after CloseCase, got %v", err)
	}
}
