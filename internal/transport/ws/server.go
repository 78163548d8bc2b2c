package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/world"
)

const (
	defaultQueue = 8
	maxQueue     = 64

	// Commands allowed per client per second.
	cmdRate = 10
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		h, out, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.logf("client %d connected from %s", h.ID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		s.readLoop(ctx, conn, h, out)
		cancel()

		select {
		case s.world.Leave() <- h:
		case <-time.After(5 * time.Second):
			s.logf("client %d: leave dropped, world not draining", h.ID)
		}
		s.logf("client %d disconnected", h.ID)
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, h world.Handle, out chan []byte) {
	windowStart := time.Now()
	cmdsInWindow := 0
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			reply(out, protocol.ErrProtoBadRequest, "malformed message")
			continue
		}
		if base.ProtocolVersion != protocol.Version {
			reply(out, protocol.ErrProtoVersion, "bad protocol_version")
			continue
		}
		switch base.Type {
		case protocol.TypeInput:
			var in protocol.InputMsg
			if err := json.Unmarshal(msg, &in); err != nil {
				reply(out, protocol.ErrProtoBadRequest, "bad INPUT")
				continue
			}
			select {
			case s.world.Inbox() <- world.InputEnvelope{Handle: h, Input: in}:
			case <-ctx.Done():
				return
			}
		case protocol.TypeCmd:
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				reply(out, protocol.ErrProtoBadRequest, "bad CMD")
				continue
			}
			if now := time.Now(); now.Sub(windowStart) >= time.Second {
				windowStart = now
				cmdsInWindow = 0
			}
			cmdsInWindow++
			if cmdsInWindow > cmdRate {
				reply(out, protocol.ErrRateLimit, "too many commands")
				continue
			}
			select {
			case s.world.Cmds() <- world.CmdEnvelope{Handle: h, Cmd: cmd}:
			case <-ctx.Done():
				return
			}
		default:
			reply(out, protocol.ErrProtoBadRequest, "unexpected "+base.Type)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (world.Handle, chan []byte, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return world.Handle{}, nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		refuse(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return world.Handle{}, nil, false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		refuse(conn, protocol.ErrProtoBadRequest, "bad HELLO")
		return world.Handle{}, nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		refuse(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return world.Handle{}, nil, false
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = defaultQueue
	}
	if maxQ > maxQueue {
		maxQ = maxQueue
	}
	out := make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.world.Join() <- world.JoinRequest{Name: hello.PlayerName, Spectate: hello.Spectate, Out: out, Resp: respCh}:
	case <-time.After(2 * time.Second):
		refuse(conn, protocol.ErrWorldBusy, "join queue full")
		return world.Handle{}, nil, false
	}

	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-time.After(10 * time.Second):
		refuse(conn, protocol.ErrWorldBusy, "join timed out")
		return world.Handle{}, nil, false
	}
	if resp.Code != "" {
		refuse(conn, resp.Code, "join refused")
		return world.Handle{}, nil, false
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return world.Handle{}, nil, false
	}
	return resp.Handle, out, true
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

// reply queues an ERROR behind whatever the writer has pending.
func reply(out chan []byte, code, message string) {
	b, err := json.Marshal(errorMsg(code, message))
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

// refuse writes an ERROR and closes the connection during the handshake.
func refuse(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, errorMsg(code, message))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
