package tilemap

// TileSize is the edge length of one map tile in world units.
const TileSize = 32

// Tile ids on the game and front layers.
const (
	TileAir = iota
	TileSolid
	TileDeath
	TileNoHook

	TileStop  = 60
	TileStops = 61
	TileStopa = 62

	TileCP          = 64
	TileSuperStart  = 65
	TileSuperEnd    = 66
	TileWalljump    = 67
	TileRefillJumps = 68
	TileVisible     = 69

	TileHoldpointBegin  = 100
	TileHoldpointEnd    = 115
	TileZStopBegin      = 116
	TileZStopEnd        = 131
	TileZHoldpointBegin = 132
	TileZHoldpointEnd   = 147
)

// ZHoldpointOffset separates zombie holdpoint ids from plain holdpoint ids in
// controller callbacks.
const ZHoldpointOffset = 32

// Quarter-turn rotations stored in Tile.Rot.
const (
	Rot0 = iota
	Rot90
	Rot180
	Rot270
)

type Tile struct {
	ID  uint8
	Rot uint8
}

// TeleKind classifies a tele layer entry.
type TeleKind uint8

const (
	TeleNone TeleKind = iota
	TeleIn
	TeleEvil
	TeleOut
	TeleCheck
	TeleCheckOut
	TeleCheckIn
	TeleCheckEvil
)

type TeleTile struct {
	Kind   TeleKind
	Number int
}

// Speedup describes a speed zone. Angle is in degrees, screen coordinates.
type Speedup struct {
	Force    int
	MaxSpeed int
	Angle    int
}

type Layer uint8

const (
	LayerGame Layer = iota
	LayerFront
)

var tileNames = map[string]int{
	"air":          TileAir,
	"solid":        TileSolid,
	"death":        TileDeath,
	"nohook":       TileNoHook,
	"stop":         TileStop,
	"stops":        TileStops,
	"stopa":        TileStopa,
	"cp":           TileCP,
	"super_start":  TileSuperStart,
	"super_end":    TileSuperEnd,
	"walljump":     TileWalljump,
	"refill_jumps": TileRefillJumps,
	"visible":      TileVisible,
	"holdpoint":    TileHoldpointBegin,
	"zstop":        TileZStopBegin,
	"zholdpoint":   TileZHoldpointBegin,
}

var teleNames = map[string]TeleKind{
	"in":         TeleIn,
	"evil":       TeleEvil,
	"out":        TeleOut,
	"check":      TeleCheck,
	"check_out":  TeleCheckOut,
	"check_in":   TeleCheckIn,
	"check_evil": TeleCheckEvil,
}

func rangeEnd(begin int) int {
	switch begin {
	case TileHoldpointBegin:
		return TileHoldpointEnd
	case TileZStopBegin:
		return TileZStopEnd
	case TileZHoldpointBegin:
		return TileZHoldpointEnd
	}
	return begin
}

// special reports whether a game/front id takes part in tile resolution.
func special(id uint8) bool {
	return id == TileDeath || id >= TileStop
}
