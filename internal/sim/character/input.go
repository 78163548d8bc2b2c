package character

import "outbreak.gg/internal/protocol"

// inputStateMask bounds the wrapping press counters carried in fire and
// weapon-switch fields. The low bit is the held state.
const inputStateMask = 0x3f

type InputCount struct {
	Presses  int
	Releases int
}

// CountInput counts press and release edges between two counter values.
func CountInput(prev, cur int) InputCount {
	var c InputCount
	prev &= inputStateMask
	cur &= inputStateMask
	for i := prev; i != cur; {
		i = (i + 1) & inputStateMask
		if i&1 != 0 {
			c.Presses++
		} else {
			c.Releases++
		}
	}
	return c
}

// InputPair is the input at the end of the previous tick and the latest input
// received since. Edges are always counted between the two.
type InputPair struct {
	Prev protocol.PlayerInput
	Cur  protocol.PlayerInput
}

// With returns the pair with a newer current input.
func (p InputPair) With(in protocol.PlayerInput) InputPair {
	return InputPair{Prev: p.Prev, Cur: in}
}

// Settle ends a tick: the current input becomes the edge baseline.
func (p InputPair) Settle() InputPair {
	return InputPair{Prev: p.Cur, Cur: p.Cur}
}

func (p InputPair) FirePresses() int { return CountInput(p.Prev.Fire, p.Cur.Fire).Presses }
func (p InputPair) NextPresses() int { return CountInput(p.Prev.NextWeapon, p.Cur.NextWeapon).Presses }
func (p InputPair) PrevPresses() int { return CountInput(p.Prev.PrevWeapon, p.Cur.PrevWeapon).Presses }
func (p InputPair) FireHeld() bool   { return p.Cur.Fire&1 != 0 }

// aimFixed keeps the aim target away from the centre.
func aimFixed(in protocol.PlayerInput) protocol.PlayerInput {
	if in.TargetX == 0 && in.TargetY == 0 {
		in.TargetY = -1
	}
	return in
}
