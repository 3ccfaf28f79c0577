package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobby-server/internal/auth"
	"github.com/vovakirdan/lobby-server/internal/config"
	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/proto"
	"github.com/vovakirdan/lobby-server/internal/service/directory"
	"github.com/vovakirdan/lobby-server/internal/store"
	"github.com/vovakirdan/lobby-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
	lobby *core.Lobby
}

func newTestEnv(t *testing.T, tune func(*config.Config)) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	dir := directory.New(st)

	logger := zerolog.Nop()
	lobby := core.New(dir, core.Options{HydrationTimeout: 2 * time.Second}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		lobby.Run(ctx)
		close(stopped)
	}()

	cfg := config.Default()
	cfg.Addr = ":0"
	if tune != nil {
		tune(&cfg)
	}

	server := NewServer(lobby, authService, st, dir, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-stopped
		_ = st.Close()
	})

	return &testEnv{ts: ts, store: st, auth: authService, lobby: lobby}
}

// register creates a user and returns its token and id.
func (e *testEnv) register(t *testing.T, username string) (string, uuid.UUID) {
	t.Helper()

	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	claims, err := e.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	return token, claims.UserID
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, query string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	if query != "" {
		wsURL += "?" + query
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// waitMembers polls the lobby until room has n members.
func (e *testEnv) waitMembers(t *testing.T, room string, n int) []uuid.UUID {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		members, err := e.lobby.MembersOf(context.Background(), room)
		if err != nil {
			t.Fatalf("members of %s: %v", room, err)
		}
		if len(members) == n {
			return members
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d members in %s, got %v", n, room, members)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(proto.Payload) bool) proto.Payload {
	t.Helper()

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		p, err := proto.Decode(raw)
		if err != nil {
			t.Fatalf("decode frame %s: %v", raw, err)
		}
		if match(p) {
			return p
		}
	}
}

func sendChat(t *testing.T, ctx context.Context, conn *websocket.Conn, dest proto.Destination, text string) {
	t.Helper()

	data, err := json.Marshal(proto.ChatData{Destination: dest, Text: text})
	if err != nil {
		t.Fatalf("marshal chat: %v", err)
	}
	sendInbound(t, ctx, conn, proto.Inbound{Type: proto.InboundTypeChat, Data: data})
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, inbound proto.Inbound) {
	t.Helper()

	raw, err := json.Marshal(inbound)
	if err != nil {
		t.Fatalf("marshal inbound: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("write inbound: %v", err)
	}
}

func doJSON(t *testing.T, e *testEnv, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := stdhttp.NewRequest(method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out.Bytes()
}
