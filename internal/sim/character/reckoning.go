package character

import (
	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/physics"
)

// resyncSeconds bounds how long a confirmed snapshot may be extrapolated.
const resyncSeconds = 3

// Reckoner keeps the dead-reckoning pair for one character: the last
// snapshot observers were sent and a shadow core advanced without input.
type Reckoner struct {
	Tick      int64
	Confirmed physics.Core
	Predicted physics.Core
}

// Advance steps the shadow core one tick inside a private world so the live
// cores are never touched.
func (r *Reckoner) Advance(tickSpeed int, m physics.Collision) {
	if r.Tick == 0 {
		return
	}
	w := physics.NewWorld(tickSpeed)
	r.Predicted.Init(w, m)
	r.Predicted.Tick(false)
	r.Predicted.Move()
	r.Predicted.Quantize()
}

// Reconcile resyncs when the shadow core drifted from cur, when cur was
// reset, or when the confirmed snapshot is older than resyncSeconds. It
// reports whether a resync happened.
func (r *Reckoner) Reconcile(now int64, tickSpeed int, cur *physics.Core) bool {
	if !cur.Reset && r.Tick+int64(resyncSeconds*tickSpeed) >= now && r.Predicted.Write() == cur.Write() {
		return false
	}
	r.Tick = now
	r.Confirmed = *cur
	r.Confirmed.Reset = false
	r.Predicted = r.Confirmed
	cur.Reset = false
	return true
}

// Snapshot returns what observers should extrapolate from and the tick it
// is anchored to. Tick 0 means "take it as current".
func (r *Reckoner) Snapshot(paused bool, cur *physics.Core) (int64, protocol.CharacterCore) {
	if r.Tick == 0 || paused {
		return 0, cur.Write()
	}
	return r.Tick, r.Confirmed.Write()
}
