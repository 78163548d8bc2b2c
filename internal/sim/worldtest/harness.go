package worldtest

import (
	"encoding/json"
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/tilemap"
	world "outbreak.gg/internal/sim/world"
)

// Yard is a flat strip with three human spawns and one zombie spawn.
const Yard = `
name: yard
rows:
  - "##############################"
  - "#............................#"
  - "#.b..b..b..................r.#"
  - "##############################"
legend:
  "#": {game: solid}
  "b": {spawn: 1}
  "r": {spawn: 0}
`

// Harness drives a world through its exported API only: joins, inputs and
// commands go through StepOnce and every client's messages are collected.
type Harness struct {
	T *testing.T
	W *world.World

	sessions map[int]*session
}

type session struct {
	Handle world.Handle
	Out    chan []byte

	msgs     [][]byte
	lastSnap protocol.SnapMsg
}

func MustMap(t *testing.T, raw string) *tilemap.Grid {
	t.Helper()
	g, err := tilemap.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	return g
}

func NewHarness(t *testing.T, cfg world.WorldConfig) *Harness {
	t.Helper()
	if cfg.Map == nil {
		cfg.Map = MustMap(t, Yard)
	}
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w, sessions: map[int]*session{}}
}

func (h *Harness) Join(name string) world.Handle     { return h.join(name, false) }
func (h *Harness) Spectate(name string) world.Handle { return h.join(name, true) }

func (h *Harness) join(name string, spectate bool) world.Handle {
	h.T.Helper()
	out := make(chan []byte, 64)
	resp := make(chan world.JoinResponse, 1)
	h.W.StepOnce([]world.JoinRequest{{Name: name, Spectate: spectate, Out: out, Resp: resp}}, nil, nil, nil)
	jr := <-resp
	if jr.Code != "" {
		h.T.Fatalf("join %s: %s", name, jr.Code)
	}
	h.sessions[jr.Handle.ID] = &session{Handle: jr.Handle, Out: out}
	h.drain()
	return jr.Handle
}

func (h *Harness) Leave(hd world.Handle) {
	h.T.Helper()
	h.W.StepOnce(nil, []world.Handle{hd}, nil, nil)
	delete(h.sessions, hd.ID)
	h.drain()
}

// Step advances one tick and returns its digest.
func (h *Harness) Step(inputs []world.InputEnvelope, cmds []world.CmdEnvelope) string {
	h.T.Helper()
	_, d := h.W.StepOnce(nil, nil, inputs, cmds)
	h.drain()
	return d
}

func (h *Harness) StepN(n int) {
	for i := 0; i < n; i++ {
		h.Step(nil, nil)
	}
}

func Input(hd world.Handle, in protocol.PlayerInput) world.InputEnvelope {
	return world.InputEnvelope{Handle: hd, Input: protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Input:           in,
	}}
}

func Cmd(hd world.Handle, name string, on bool) world.CmdEnvelope {
	return world.CmdEnvelope{Handle: hd, Cmd: protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		Name:            name,
		On:              on,
	}}
}

func (h *Harness) LastSnap(hd world.Handle) protocol.SnapMsg {
	h.T.Helper()
	s := h.sessions[hd.ID]
	if s == nil {
		h.T.Fatalf("unknown client %d", hd.ID)
	}
	return s.lastSnap
}

// Messages returns every non-SNAP message of type typ received by hd so far.
func (h *Harness) Messages(hd world.Handle, typ string) [][]byte {
	h.T.Helper()
	s := h.sessions[hd.ID]
	if s == nil {
		h.T.Fatalf("unknown client %d", hd.ID)
	}
	var out [][]byte
	for _, b := range s.msgs {
		if base, err := protocol.DecodeBase(b); err == nil && base.Type == typ {
			out = append(out, b)
		}
	}
	return out
}

func (h *Harness) drain() {
	h.T.Helper()
	for _, s := range h.sessions {
	loop:
		for {
			select {
			case b := <-s.Out:
				base, err := protocol.DecodeBase(b)
				if err != nil {
					h.T.Fatalf("client %d: bad message: %v", s.Handle.ID, err)
				}
				if base.Type != protocol.TypeSnap {
					s.msgs = append(s.msgs, b)
					continue
				}
				if err := json.Unmarshal(b, &s.lastSnap); err != nil {
					h.T.Fatalf("client %d: SNAP: %v", s.Handle.ID, err)
				}
			default:
				break loop
			}
		}
	}
}
