package character

import (
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tilemap"
)

// probeOffset is how far past the box edge neighbour stoppers are looked up.
const probeOffset = ProximityRadius/2 + 4

// tileContext is everything the tile resolver reads for one traversed index.
// It is built once per index so the stopper check can be re-run after a
// speed zone without probing the map again.
type tileContext struct {
	index  int
	centre [2]tilemap.Tile // game, front

	posX, negX, posY, negY             [2]tilemap.Tile
	posXIdx, negXIdx, posYIdx, negYIdx int
}

func layers(m MapService, index int) [2]tilemap.Tile {
	return [2]tilemap.Tile{m.TileAt(tilemap.LayerGame, index), m.TileAt(tilemap.LayerFront, index)}
}

func newTileContext(m MapService, index int, pos mathx.Vec2) tileContext {
	tc := tileContext{index: index, centre: layers(m, index)}
	tc.posXIdx = m.PureIndexAt(pos.Add(mathx.V(probeOffset, 0)))
	tc.negXIdx = m.PureIndexAt(pos.Add(mathx.V(-probeOffset, 0)))
	tc.posYIdx = m.PureIndexAt(pos.Add(mathx.V(0, probeOffset)))
	tc.negYIdx = m.PureIndexAt(pos.Add(mathx.V(0, -probeOffset)))
	tc.posX = layers(m, tc.posXIdx)
	tc.negX = layers(m, tc.negXIdx)
	tc.posY = layers(m, tc.posYIdx)
	tc.negY = layers(m, tc.negYIdx)
	return tc
}

func isStop(t tilemap.Tile, rot uint8) bool { return t.ID == tilemap.TileStop && t.Rot == rot }

func isStops(t tilemap.Tile, a, b uint8) bool {
	return t.ID == tilemap.TileStops && (t.Rot == a || t.Rot == b)
}

// stopMatch finds which probe blocks a movement direction. centreRot is the
// STOP rotation that blocks on the centre tile; the neighbour additionally
// matches two-way and all-way stoppers.
func stopMatch(centre, neighbour [2]tilemap.Tile, centreIdx, neighbourIdx int, rot, twoA, twoB uint8) (int, bool) {
	for _, t := range centre {
		if isStop(t, rot) {
			return centreIdx, true
		}
	}
	for _, t := range neighbour {
		if isStop(t, rot) || isStops(t, twoA, twoB) || t.ID == tilemap.TileStopa {
			return neighbourIdx, true
		}
	}
	return -1, false
}

func (tc tileContext) blocksPosX() (int, bool) {
	return stopMatch(tc.centre, tc.posX, tc.index, tc.posXIdx, tilemap.Rot270, tilemap.Rot90, tilemap.Rot270)
}

func (tc tileContext) blocksNegX() (int, bool) {
	return stopMatch(tc.centre, tc.negX, tc.index, tc.negXIdx, tilemap.Rot90, tilemap.Rot90, tilemap.Rot270)
}

func (tc tileContext) blocksNegY() (int, bool) {
	return stopMatch(tc.centre, tc.negY, tc.index, tc.negYIdx, tilemap.Rot180, tilemap.Rot0, tilemap.Rot180)
}

func (tc tileContext) blocksPosY() (int, bool) {
	return stopMatch(tc.centre, tc.posY, tc.index, tc.posYIdx, tilemap.Rot0, tilemap.Rot0, tilemap.Rot180)
}

// gameOrFront returns the first id in [lo, hi] on either layer.
func (tc tileContext) gameOrFront(lo, hi int) (int, bool) {
	for _, t := range tc.centre {
		if id := int(t.ID); id >= lo && id <= hi {
			return id, true
		}
	}
	return 0, false
}

func (tc tileContext) has(id int) bool {
	_, ok := tc.gameOrFront(id, id)
	return ok
}
