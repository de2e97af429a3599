package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/deltatask/deltatask/internal/engine"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(&Config{Port: 0, Logger: log.New(io.Discard, "", 0)})
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestHealthEndpoint(t *testing.T) {
	s := startServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.GetAddr()))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	s := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws", s.GetAddr()), nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// First message is the greeting, with a payload naming the server.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read welcome: %v", err)
	}
	var welcome Message
	if err := json.Unmarshal(data, &welcome); err != nil {
		t.Fatalf("failed to decode welcome: %v", err)
	}
	if welcome.Type != MessageTypeHello {
		t.Errorf("welcome type = %q, want %q", welcome.Type, MessageTypeHello)
	}
	var hello HelloData
	if err := json.Unmarshal(welcome.Data, &hello); err != nil {
		t.Fatalf("failed to decode welcome payload: %v", err)
	}
	if hello.Server != "deltatask" || hello.Clients < 1 {
		t.Errorf("welcome payload = %+v", hello)
	}

	s.TaskChanged("created", "task-1", "New task")

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != MessageTypeTaskUpdate {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeTaskUpdate)
	}

	var update TaskUpdateData
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if update.TaskID != "task-1" || update.Action != "created" {
		t.Errorf("payload = %+v", update)
	}
}

func TestSyncCompletedPayload(t *testing.T) {
	s := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws", s.GetAddr()), nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("failed to read welcome: %v", err)
	}

	s.SyncCompleted(&engine.SyncResult{Scanned: 3, Updated: 2, Inserted: 1})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageTypeSyncComplete {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeSyncComplete)
	}
	var payload SyncCompleteData
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Scanned != 3 || payload.Updated != 2 || payload.Inserted != 1 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestClientCountTracksConnections(t *testing.T) {
	s := startServer(t)

	if got := s.ClientCount(); got != 0 {
		t.Errorf("initial client count = %d, want 0", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws", s.GetAddr()), nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want 1", s.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
