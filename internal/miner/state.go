package miner

// State is the orchestrator's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateLoggingIn
	StateFetchingInventory
	StateSelectingChannel
	StateWatching
	StateClaiming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoggingIn:
		return "logging-in"
	case StateFetchingInventory:
		return "fetching-inventory"
	case StateSelectingChannel:
		return "selecting-channel"
	case StateWatching:
		return "watching"
	case StateClaiming:
		return "claiming"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
