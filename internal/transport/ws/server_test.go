package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
	"outbreak.gg/internal/sim/world"
)

const arenaMap = `
name: pit
rows:
  - "############"
  - "#..........#"
  - "#.b......r.#"
  - "############"
legend:
  "#": {game: solid}
  "b": {spawn: 1}
  "r": {spawn: 0}
`

func startServer(t *testing.T, tun tuning.Tuning) string {
	t.Helper()
	g, err := tilemap.Parse([]byte(arenaMap))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "pit", Tuning: tun, Map: g})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil returns the first message of type want, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == want {
			return b
		}
	}
}

func hello(name string) protocol.HelloMsg {
	return protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, PlayerName: name}
}

func TestHandshake_WelcomeThenSnap(t *testing.T) {
	url := startServer(t, tuning.Defaults())
	conn := dial(t, url)
	send(t, conn, hello("alice"))

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.ClientID != 0 || welcome.SessionID == "" {
		t.Fatalf("welcome: got %+v", welcome)
	}
	if welcome.WorldParams.TickRateHz != 50 {
		t.Fatalf("tick rate: got %d want 50", welcome.WorldParams.TickRateHz)
	}

	var snap protocol.SnapMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeSnap), &snap); err != nil {
		t.Fatalf("snap: %v", err)
	}
}

func TestHandshake_BadVersionRefused(t *testing.T) {
	url := startServer(t, tuning.Defaults())
	conn := dial(t, url)
	h := hello("old")
	h.ProtocolVersion = "0.1"
	send(t, conn, h)

	var e protocol.ErrorMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeError), &e); err != nil {
		t.Fatalf("error: %v", err)
	}
	if e.Code != protocol.ErrProtoVersion {
		t.Fatalf("code: got %q want %q", e.Code, protocol.ErrProtoVersion)
	}
}

func TestHandshake_WorldFull(t *testing.T) {
	tun := tuning.Defaults()
	tun.MaxPlayers = 1
	url := startServer(t, tun)

	first := dial(t, url)
	send(t, first, hello("a"))
	readUntil(t, first, protocol.TypeWelcome)

	second := dial(t, url)
	send(t, second, hello("b"))
	var e protocol.ErrorMsg
	if err := json.Unmarshal(readUntil(t, second, protocol.TypeError), &e); err != nil {
		t.Fatalf("error: %v", err)
	}
	if e.Code != protocol.ErrWorldFull {
		t.Fatalf("code: got %q want %q", e.Code, protocol.ErrWorldFull)
	}
}

func TestSession_UnknownCmdAndBadType(t *testing.T) {
	url := startServer(t, tuning.Defaults())
	conn := dial(t, url)
	send(t, conn, hello("alice"))
	readUntil(t, conn, protocol.TypeWelcome)

	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, Name: "fly"})
	var e protocol.ErrorMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeError), &e); err != nil {
		t.Fatalf("error: %v", err)
	}
	if e.Code != protocol.ErrUnknownCmd {
		t.Fatalf("code: got %q want %q", e.Code, protocol.ErrUnknownCmd)
	}

	send(t, conn, protocol.BaseMessage{Type: protocol.TypeSnap, ProtocolVersion: protocol.Version})
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeError), &e); err != nil {
		t.Fatalf("error: %v", err)
	}
	if e.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("code: got %q want %q", e.Code, protocol.ErrProtoBadRequest)
	}
}
