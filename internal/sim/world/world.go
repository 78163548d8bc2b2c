package world

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"outbreak.gg/internal/persistence/snapshot"
	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/rules"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
)

type WorldConfig struct {
	ID     string
	Tuning tuning.Tuning
	Map    *tilemap.Grid

	// SessionID is generated when zero.
	SessionID uuid.UUID
	Logger    *log.Logger
}

type JoinRequest struct {
	Name     string
	Spectate bool
	Out      chan []byte
	Resp     chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Handle  Handle
	// Code is set when the join was refused.
	Code string
}

type InputEnvelope struct {
	Handle Handle
	Input  protocol.InputMsg
}

type CmdEnvelope struct {
	Handle Handle
	Cmd    protocol.CmdMsg
}

type RecordedJoin struct {
	ClientID int    `json:"client_id"`
	Name     string `json:"name"`
	Spectate bool   `json:"spectate,omitempty"`
}

type RecordedInput struct {
	ClientID  int                  `json:"client_id"`
	Predicted bool                 `json:"predicted,omitempty"`
	Input     protocol.PlayerInput `json:"input"`
}

type RecordedCmd struct {
	ClientID int    `json:"client_id"`
	Name     string `json:"name"`
	On       bool   `json:"on,omitempty"`
	Target   int    `json:"target,omitempty"`
}

type TickLogEntry struct {
	Tick   int64           `json:"tick"`
	Joins  []RecordedJoin  `json:"joins,omitempty"`
	Leaves []int           `json:"leaves,omitempty"`
	Inputs []RecordedInput `json:"inputs,omitempty"`
	Cmds   []RecordedCmd   `json:"cmds,omitempty"`
	Paused bool            `json:"paused,omitempty"`
	Digest string          `json:"digest"`
}

// EventEntry is a kill record or a diagnostic produced during one tick.
type EventEntry struct {
	Tick  int64             `json:"tick"`
	Kind  string            `json:"kind"` // KILL or DIAG
	Kill  *protocol.KillMsg `json:"kill,omitempty"`
	Event protocol.Event    `json:"event,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type EventLogger interface {
	WriteEvent(entry EventEntry) error
}

// Session identifies one run of a world process.
type Session struct {
	ID        uuid.UUID
	WorldID   string
	StartedAt time.Time
}

type clientState struct {
	Out     chan []byte
	pending [][]byte
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg     WorldConfig
	tun     tuning.Tuning
	grid    *tilemap.Grid
	session Session
	log     *log.Logger

	tick   atomic.Int64
	paused bool

	core   *physics.World
	rules  *rules.Infection
	arena  *arena
	snapID *snapIDPool

	entities   []entity
	nextEntity int

	events []protocol.Event
	kills  []protocol.KillMsg
	diags  []protocol.Event

	inbox chan InputEnvelope
	cmds  chan CmdEnvelope
	join  chan JoinRequest
	leave chan Handle
	pause chan bool
	stop  chan struct{}

	tickLogger   TickLogger
	eventLogger  EventLogger
	snapshotSink chan<- snapshot.SnapshotV1

	metrics atomic.Value // WorldMetrics
}

func New(cfg WorldConfig) (*World, error) {
	if cfg.Map == nil {
		return nil, fmt.Errorf("world %s: missing map", cfg.ID)
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}
	if cfg.SessionID == uuid.Nil {
		cfg.SessionID = uuid.New()
	}
	capacity := cfg.Tuning.MaxPlayers
	if capacity <= 0 || capacity > physics.MaxClients {
		capacity = physics.MaxClients
	}
	w := &World{
		cfg:  cfg,
		tun:  cfg.Tuning,
		grid: cfg.Map,
		session: Session{
			ID:        cfg.SessionID,
			WorldID:   cfg.ID,
			StartedAt: time.Now().UTC(),
		},
		log:    cfg.Logger,
		core:   physics.NewWorld(cfg.Tuning.TickRateHz),
		arena:  newArena(capacity),
		snapID: newSnapIDPool(physics.MaxClients),

		inbox: make(chan InputEnvelope, 1024),
		cmds:  make(chan CmdEnvelope, 256),
		join:  make(chan JoinRequest, 64),
		leave: make(chan Handle, 64),
		pause: make(chan bool, 4),
		stop:  make(chan struct{}),
	}
	w.rules = rules.New(w, cfg.Map)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetEventLogger(l EventLogger)                  { w.eventLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) Inbox() chan<- InputEnvelope                   { return w.inbox }
func (w *World) Cmds() chan<- CmdEnvelope                      { return w.cmds }
func (w *World) Join() chan<- JoinRequest                      { return w.join }
func (w *World) Leave() chan<- Handle                          { return w.leave }
func (w *World) Pause() chan<- bool                            { return w.pause }
func (w *World) Session() Session                              { return w.session }
func (w *World) ID() string                                    { return w.cfg.ID }
func (w *World) CurrentTick() int64                            { return w.tick.Load() }
func (w *World) Rules() *rules.Infection                       { return w.rules }
func (w *World) TickRateHz() int                               { return w.tun.TickRateHz }

// SetPaused changes the pause state directly. Only call it from the world
// goroutine or while the world is driven with StepOnce.
func (w *World) SetPaused(p bool) { w.paused = p }

func (w *World) logf(format string, args ...any) {
	if w.log != nil {
		w.log.Printf(format, args...)
	}
}

// Host.

func (w *World) Tick() int64                      { return w.tick.Load() }
func (w *World) TickSpeed() int                   { return w.tun.TickRateHz }
func (w *World) Seed() int64                      { return w.tun.Seed }
func (w *World) Paused() bool                     { return w.paused }
func (w *World) Tuning() *tuning.Tuning           { return &w.tun }
func (w *World) Map() character.MapService        { return w.grid }
func (w *World) Controller() character.Controller { return w.rules }
func (w *World) Core() *physics.World             { return w.core }

func (w *World) Character(id int) *character.Character {
	s := w.arena.get(id)
	if s == nil || s.char == nil || !s.char.Alive() {
		return nil
	}
	return s.char
}

func (w *World) Player(id int) *character.Player {
	if s := w.arena.get(id); s != nil {
		return s.player
	}
	return nil
}

// Players lists connected players in id order.
func (w *World) Players() []*character.Player {
	var out []*character.Player
	w.arena.each(func(s *slot) { out = append(out, s.player) })
	return out
}

func (w *World) characters() []*character.Character {
	var out []*character.Character
	w.arena.each(func(s *slot) {
		if s.char != nil && s.char.Alive() {
			out = append(out, s.char)
		}
	})
	return out
}

func (w *World) CharactersNear(pos mathx.Vec2, radius float64) []*character.Character {
	var out []*character.Character
	for _, c := range w.characters() {
		if c.Pos().Dist(pos) < radius+character.ProximityRadius {
			out = append(out, c)
		}
	}
	return out
}

func (w *World) Emit(ev protocol.Event) {
	ev["t"] = w.Tick()
	w.events = append(w.events, ev)
}

func (w *World) Diagnostic(ev protocol.Event) {
	ev["t"] = w.Tick()
	w.diags = append(w.diags, ev)
	w.logf("diagnostic tick=%d %s client=%v stage=%v", w.Tick(), ev.Type(), ev["client"], ev["stage"])
}

// Chat sends text to one client, or to everybody when to is -1.
func (w *World) Chat(to int, text string) {
	w.queue(to, protocol.ChatMsg{
		Type:            protocol.TypeChat,
		ProtocolVersion: w.tun.ProtocolVersion,
		Tick:            w.Tick(),
		Text:            text,
	})
}

func (w *World) Broadcast(to int, text string) {
	w.queue(to, protocol.BroadcastMsg{
		Type:            protocol.TypeBroadcast,
		ProtocolVersion: w.tun.ProtocolVersion,
		Tick:            w.Tick(),
		Text:            text,
	})
}

func (w *World) PushTuning(to int, zone int) {
	w.queue(to, protocol.TuningMsg{
		Type:            protocol.TypeTuning,
		ProtocolVersion: w.tun.ProtocolVersion,
		Tick:            w.Tick(),
		Zone:            zone,
		Params:          w.tun.ZoneParams(zone).Map(),
	})
}

func (w *World) Kill(k protocol.KillMsg) {
	w.kills = append(w.kills, k)
	w.queue(-1, k)
}

func (w *World) RemoveCharacter(c *character.Character) {
	if s := w.arena.get(c.ID()); s != nil && s.char == c {
		s.char = nil
	}
	w.core.ReleaseHooked(c.ID())
	c.Destroy()
}

func (w *World) NewSnapID() int    { return w.snapID.alloc() }
func (w *World) FreeSnapID(id int) { w.snapID.release(id) }

var (
	_ character.Host = (*World)(nil)
	_ rules.World    = (*World)(nil)
)

func (w *World) welcome(id, team int) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: w.tun.ProtocolVersion,
		SessionID:       w.session.ID.String(),
		ClientID:        id,
		Team:            team,
		WorldParams: protocol.WorldParams{
			TickRateHz:   w.tun.TickRateHz,
			MapName:      w.grid.Name,
			MapWidth:     w.grid.Width,
			MapHeight:    w.grid.Height,
			Seed:         w.tun.Seed,
			TuningDigest: w.tun.Digest(),
		},
	}
}

func (w *World) joinPlayer(req JoinRequest, now int64) JoinResponse {
	team := character.TeamBlue
	switch {
	case req.Spectate:
		team = character.TeamSpectators
	case w.rules.Started() && !w.rules.Warmup():
		team = character.TeamRed
	}
	name := req.Name
	if name == "" {
		name = "nameless tee"
	}
	s, h, ok := w.arena.alloc()
	if !ok {
		return JoinResponse{Code: protocol.ErrWorldFull}
	}
	p := character.NewPlayer(h.ID, name, team)
	p.RespawnTick = now
	s.player = p
	s.client = &clientState{Out: req.Out}
	return JoinResponse{Welcome: w.welcome(h.ID, team), Handle: h}
}

func (w *World) leavePlayer(h Handle) bool {
	s := w.arena.resolve(h)
	if s == nil {
		return false
	}
	if s.char != nil {
		w.RemoveCharacter(s.char)
	}
	w.arena.release(h.ID)
	return true
}

// respawn brings back every waiting player whose delay has passed.
func (w *World) respawn(now int64) {
	w.arena.each(func(s *slot) {
		p := s.player
		if p.Team == character.TeamSpectators || s.char != nil || p.RespawnTick > now {
			return
		}
		pos, ok := w.rules.CanSpawn(p.Team)
		if !ok {
			return
		}
		s.char = character.Spawn(w, p, pos)
	})
}

func (w *World) applyInput(env InputEnvelope) (RecordedInput, bool) {
	s := w.arena.resolve(env.Handle)
	if s == nil {
		return RecordedInput{}, false
	}
	in := env.Input.Input
	rec := RecordedInput{ClientID: env.Handle.ID, Predicted: env.Input.Predicted, Input: in}
	s.player.PlayerFlags = in.PlayerFlags
	if s.char == nil {
		if s.player.Team == character.TeamSpectators && s.player.SpectatorID < 0 {
			s.player.ViewPos = mathx.V(float64(in.TargetX), float64(in.TargetY))
		}
		return rec, true
	}
	s.char.OnPredictedInput(in)
	if !env.Input.Predicted {
		s.char.OnDirectInput(in)
	}
	return rec, true
}

func (w *World) applyCmd(env CmdEnvelope) (RecordedCmd, bool) {
	s := w.arena.resolve(env.Handle)
	if s == nil {
		return RecordedCmd{}, false
	}
	rec := RecordedCmd{ClientID: env.Handle.ID, Name: env.Cmd.Name, On: env.Cmd.On, Target: env.Cmd.Target}
	switch env.Cmd.Name {
	case protocol.CmdShield, protocol.CmdHeartShield, protocol.CmdSlowBomb, protocol.CmdTurret:
	case protocol.CmdFollow:
		target := -1
		if env.Cmd.On {
			target = env.Cmd.Target
		}
		if !w.Follow(env.Handle, target) {
			w.sendError(s, protocol.ErrInvalidTarget, "follow needs a spectator and a player to follow")
		}
		return rec, true
	default:
		w.sendError(s, protocol.ErrUnknownCmd, env.Cmd.Name)
		return RecordedCmd{}, false
	}
	c := s.char
	if c == nil {
		w.sendError(s, protocol.ErrNoCharacter, "no character")
		return rec, true
	}
	switch env.Cmd.Name {
	case protocol.CmdShield:
		c.SwitchShield()
	case protocol.CmdHeartShield:
		c.SwitchHeartShield(env.Cmd.On)
	case protocol.CmdSlowBomb:
		c.SwitchSlowBomb(env.Cmd.On)
	case protocol.CmdTurret:
		c.PlaceTurret()
	}
	return rec, true
}

func (w *World) sendError(s *slot, code, msg string) {
	if s.client == nil {
		return
	}
	w.queueTo(s.client, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: w.tun.ProtocolVersion,
		Code:            code,
		Message:         msg,
	})
}

// updateViews moves every player's view to its character, or for followers
// to the followed character.
func (w *World) updateViews() {
	w.arena.each(func(s *slot) {
		p := s.player
		if s.char != nil {
			p.ViewPos = s.char.Pos()
			return
		}
		if p.SpectatorID >= 0 {
			if c := w.Character(p.SpectatorID); c != nil {
				p.ViewPos = c.Pos()
			}
		}
	})
}

// Follow makes spectator h follow player target; -1 returns to free view.
func (w *World) Follow(h Handle, target int) bool {
	s := w.arena.resolve(h)
	if s == nil || s.player.Team != character.TeamSpectators {
		return false
	}
	if target != -1 && (target == h.ID || w.Player(target) == nil) {
		return false
	}
	s.player.SpectatorID = target
	return true
}
