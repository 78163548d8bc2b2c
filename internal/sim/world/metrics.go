package world

import (
	"time"

	"outbreak.gg/internal/sim/character"
)

type WorldMetrics struct {
	Tick int64 `json:"tick"`

	Players    int  `json:"players"`
	Clients    int  `json:"clients"`
	Characters int  `json:"characters"`
	Zombies    int  `json:"zombies"`
	Entities   int  `json:"entities"`
	Paused     bool `json:"paused"`

	SnapIDsInUse      int `json:"snap_ids_in_use"`
	SnapIDDoubleFrees int `json:"snap_id_double_frees"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Cmds  int `json:"cmds"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

// Metrics returns the figures published at the end of the last tick.
func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

func (w *World) publishMetrics(nowTick int64, step time.Duration) {
	m := WorldMetrics{
		Tick:              nowTick,
		Entities:          len(w.entities),
		Paused:            w.paused,
		SnapIDsInUse:      w.snapID.used(),
		SnapIDDoubleFrees: w.snapID.doubleFrees,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Cmds:  len(w.cmds),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS: float64(step.Microseconds()) / 1000,
	}
	w.arena.each(func(s *slot) {
		m.Players++
		if s.client != nil && s.client.Out != nil {
			m.Clients++
		}
		if s.char != nil && s.char.Alive() {
			m.Characters++
			if s.char.Team() == character.TeamRed {
				m.Zombies++
			}
		}
	})
	w.metrics.Store(m)
}
