package world

import (
	"context"
	"encoding/json"
	"time"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/mathx"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []Handle
	var pendingInputs []InputEnvelope
	var pendingCmds []CmdEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case h := <-w.leave:
			pendingLeaves = append(pendingLeaves, h)
		case env := <-w.inbox:
			pendingInputs = append(pendingInputs, env)
		case env := <-w.cmds:
			pendingCmds = append(pendingCmds, env)
		case p := <-w.pause:
			w.paused = p
		case <-ticker.C:
			w.stepInternal(pendingJoins, pendingLeaves, pendingInputs, pendingCmds)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingInputs = pendingInputs[:0]
			pendingCmds = pendingCmds[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []Handle, inputs []InputEnvelope, cmds []CmdEnvelope) (tick int64, digest string) {
	tick = w.tick.Load()
	digest = w.stepInternal(joins, leaves, inputs, cmds)
	return tick, digest
}

func (w *World) stepInternal(joins []JoinRequest, leaves []Handle, inputs []InputEnvelope, cmds []CmdEnvelope) string {
	start := time.Now()
	nowTick := w.tick.Load()
	w.events = w.events[:0]
	w.kills = w.kills[:0]
	w.diags = w.diags[:0]

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]int, 0, len(leaves))
	for _, h := range leaves {
		if w.leavePlayer(h) {
			recordedLeaves = append(recordedLeaves, h.ID)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.joinPlayer(req, nowTick)
		if req.Resp != nil {
			req.Resp <- resp
		}
		if resp.Code != "" {
			continue
		}
		recordedJoins = append(recordedJoins, RecordedJoin{ClientID: resp.Handle.ID, Name: req.Name, Spectate: req.Spectate})
	}

	// Inputs and commands apply in server receive order.
	recordedInputs := make([]RecordedInput, 0, len(inputs))
	for _, env := range inputs {
		if rec, ok := w.applyInput(env); ok {
			recordedInputs = append(recordedInputs, rec)
		}
	}
	recordedCmds := make([]RecordedCmd, 0, len(cmds))
	for _, env := range cmds {
		if rec, ok := w.applyCmd(env); ok {
			recordedCmds = append(recordedCmds, rec)
		}
	}

	if w.paused {
		for _, c := range w.characters() {
			c.TickPaused()
		}
	} else {
		w.rules.Tick()
		w.respawn(nowTick)
		w.arena.each(func(s *slot) {
			if s.char != nil && s.char.Alive() {
				s.char.Tick()
			}
		})
		w.tickEntities()
		w.arena.each(func(s *slot) {
			if s.char != nil && s.char.Alive() {
				s.char.TickDeferred()
			}
		})
	}

	w.updateViews()
	w.sendSnaps(nowTick)
	w.flushOutbox()

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{
			Tick:   nowTick,
			Joins:  recordedJoins,
			Leaves: recordedLeaves,
			Inputs: recordedInputs,
			Cmds:   recordedCmds,
			Paused: w.paused,
			Digest: digest,
		}); err != nil {
			w.logf("tick log: %v", err)
		}
	}
	w.writeEvents(nowTick)

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.tun.SnapshotEveryTicks > 0 {
		if nowTick%int64(w.tun.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick, digest)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	w.publishMetrics(nowTick, time.Since(start))
	w.tick.Add(1)
	return digest
}

func (w *World) writeEvents(nowTick int64) {
	if w.eventLogger == nil {
		return
	}
	for i := range w.kills {
		k := w.kills[i]
		if err := w.eventLogger.WriteEvent(EventEntry{Tick: nowTick, Kind: "KILL", Kill: &k}); err != nil {
			w.logf("event log: %v", err)
			return
		}
	}
	for _, ev := range w.diags {
		if err := w.eventLogger.WriteEvent(EventEntry{Tick: nowTick, Kind: "DIAG", Event: ev}); err != nil {
			w.logf("event log: %v", err)
			return
		}
	}
}

func (w *World) viewerFor(p *character.Player) character.Viewer {
	return character.Viewer{ID: p.ID, Team: p.Team, ViewPos: p.ViewPos, SpectatorID: p.SpectatorID}
}

// BuildSnap assembles the SNAP message seen by view.
func (w *World) BuildSnap(view character.Viewer, nowTick int64) protocol.SnapMsg {
	msg := protocol.SnapMsg{
		Type:            protocol.TypeSnap,
		ProtocolVersion: w.tun.ProtocolVersion,
		Tick:            nowTick,
		Characters:      []protocol.CharacterSnap{},
	}
	for _, c := range w.characters() {
		sv := c.Snap(view)
		if sv.Character != nil {
			msg.Characters = append(msg.Characters, *sv.Character)
		}
		msg.Items = append(msg.Items, sv.Items...)
	}
	for _, e := range w.entities {
		msg.Items = append(msg.Items, e.snap(view)...)
	}
	for _, ev := range w.events {
		if to, ok := ev["to"].(int); ok && view.ID != -1 && to != view.ID {
			continue
		}
		x, _ := ev["x"].(int)
		y, _ := ev["y"].(int)
		if _, positioned := ev["x"]; positioned && character.NetworkClipped(view, mathx.V(float64(x), float64(y))) {
			continue
		}
		msg.Events = append(msg.Events, ev)
	}
	return msg
}

func (w *World) sendSnaps(nowTick int64) {
	w.arena.each(func(s *slot) {
		if s.client == nil || s.client.Out == nil {
			return
		}
		b, err := json.Marshal(w.BuildSnap(w.viewerFor(s.player), nowTick))
		if err != nil {
			return
		}
		sendLatest(s.client.Out, b)
	})
}

// queue stores a message for one client, or for all when to is -1. Messages
// are flushed after the tick's SNAP.
func (w *World) queue(to int, msg any) {
	if to == -1 {
		w.arena.each(func(s *slot) {
			if s.client != nil {
				w.queueTo(s.client, msg)
			}
		})
		return
	}
	if s := w.arena.get(to); s != nil && s.client != nil {
		w.queueTo(s.client, msg)
	}
}

func (w *World) queueTo(c *clientState, msg any) {
	if c.Out == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.pending = append(c.pending, b)
}

func (w *World) flushOutbox() {
	w.arena.each(func(s *slot) {
		c := s.client
		if c == nil {
			return
		}
		for _, b := range c.pending {
			select {
			case c.Out <- b:
			default:
				w.logf("client %d: outbox full, dropped %d bytes", s.player.ID, len(b))
			}
		}
		c.pending = c.pending[:0]
	})
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
