package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// World routing/state.
	ErrWorldBusy = "E_WORLD_BUSY"
	ErrWorldFull = "E_WORLD_FULL"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownCmd    = "E_UNKNOWN_CMD"
	ErrNoCharacter   = "E_NO_CHARACTER"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrWorldBusy:       {},
	ErrWorldFull:       {},
	ErrBadRequest:      {},
	ErrUnknownCmd:      {},
	ErrNoCharacter:     {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
