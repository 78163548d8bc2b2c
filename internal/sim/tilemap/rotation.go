package tilemap

// normalizeRotation converts a map-provided rotation value into a stable
// quarter-turn count in [0,3].
//
// We accept either quarter-turns (0..3) or degrees (multiples of 90).
func normalizeRotation(r int) int {
	// Treat large multiples of 90 as degrees.
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}
