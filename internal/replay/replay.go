// Package replay re-runs a recorded tick log against a fresh world and
// checks every tick's state digest.
package replay

import (
	"encoding/json"
	"fmt"

	persistlog "outbreak.gg/internal/persistence/log"
	"outbreak.gg/internal/sim/world"
)

type Replayer struct {
	w       *world.World
	handles map[int]world.Handle

	VerifyFrom int64
	ToTick     int64 // inclusive; 0 means no limit

	Checked    int
	LastTick   int64
	LastDigest string
}

func New(w *world.World) *Replayer {
	return &Replayer{w: w, handles: map[int]world.Handle{}, LastTick: -1}
}

// Done reports whether ToTick has been stepped.
func (r *Replayer) Done() bool {
	return r.ToTick != 0 && r.LastTick >= r.ToTick
}

// Apply steps the world once with the inputs recorded in entry.
func (r *Replayer) Apply(entry world.TickLogEntry) error {
	if entry.Tick != r.w.CurrentTick() {
		return fmt.Errorf("tick mismatch: want=%d got=%d", r.w.CurrentTick(), entry.Tick)
	}

	leaves := make([]world.Handle, 0, len(entry.Leaves))
	for _, id := range entry.Leaves {
		h, ok := r.handles[id]
		if !ok {
			return fmt.Errorf("tick %d: leave of unknown client %d", entry.Tick, id)
		}
		leaves = append(leaves, h)
		delete(r.handles, id)
	}

	joins := make([]world.JoinRequest, 0, len(entry.Joins))
	resps := make([]chan world.JoinResponse, 0, len(entry.Joins))
	for _, j := range entry.Joins {
		ch := make(chan world.JoinResponse, 1)
		resps = append(resps, ch)
		joins = append(joins, world.JoinRequest{Name: j.Name, Spectate: j.Spectate, Resp: ch})
	}

	// Clients only send after their WELCOME, so inputs and commands always
	// reference a join from an earlier tick.
	handleOf := func(id int) (world.Handle, error) {
		h, ok := r.handles[id]
		if !ok {
			return world.Handle{}, fmt.Errorf("tick %d: unknown client %d", entry.Tick, id)
		}
		return h, nil
	}

	inputs := make([]world.InputEnvelope, 0, len(entry.Inputs))
	for _, in := range entry.Inputs {
		h, err := handleOf(in.ClientID)
		if err != nil {
			return err
		}
		env := world.InputEnvelope{Handle: h}
		env.Input.Predicted = in.Predicted
		env.Input.Input = in.Input
		inputs = append(inputs, env)
	}
	cmds := make([]world.CmdEnvelope, 0, len(entry.Cmds))
	for _, c := range entry.Cmds {
		h, err := handleOf(c.ClientID)
		if err != nil {
			return err
		}
		env := world.CmdEnvelope{Handle: h}
		env.Cmd.Name = c.Name
		env.Cmd.On = c.On
		env.Cmd.Target = c.Target
		cmds = append(cmds, env)
	}

	r.w.SetPaused(entry.Paused)
	tick, digest := r.w.StepOnce(joins, leaves, inputs, cmds)

	for i, ch := range resps {
		resp := <-ch
		if resp.Code != "" {
			return fmt.Errorf("tick %d: recorded join %q refused: %s", tick, entry.Joins[i].Name, resp.Code)
		}
		if resp.Handle.ID != entry.Joins[i].ClientID {
			return fmt.Errorf("tick %d: join %q got client %d want %d", tick, entry.Joins[i].Name, resp.Handle.ID, entry.Joins[i].ClientID)
		}
		r.handles[resp.Handle.ID] = resp.Handle
	}

	r.LastTick = tick
	r.LastDigest = digest
	if tick >= r.VerifyFrom {
		r.Checked++
		if digest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
		}
	}
	return nil
}

// ReplayDir replays every tick log file under dir in order.
func (r *Replayer) ReplayDir(dir string) error {
	files, err := persistlog.ListFiles(dir, "ticks")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tick logs found in %s", dir)
	}
	for _, path := range files {
		err := persistlog.ReadLines(path, func(line []byte) error {
			if r.Done() {
				return nil
			}
			var entry world.TickLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			return r.Apply(entry)
		})
		if err != nil {
			return err
		}
		if r.Done() {
			break
		}
	}
	return nil
}
