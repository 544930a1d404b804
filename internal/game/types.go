package game

// #region snapshot

// Snapshot is an immutable record of game state at one step. It is
// produced once per step by the emulator and never mutated downstream.
type Snapshot struct {
	Edition  string  `json:"edition,omitempty"`
	Location string  `json:"location,omitempty"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	MapID    int     `json:"map_id"`
	Badges   int     `json:"badges"`
	PlayTime float64 `json:"play_time,omitempty"` // elapsed in-game play time, seconds
}

// #endregion snapshot

// #region interfaces

// MemoryReader is a narrow read-only view of emulator RAM. Reward
// components that derive facts from raw memory depend on this, not on
// the full emulator.
type MemoryReader interface {
	ReadMemory(addr uint16) byte
}

// Emulator is the external collaborator contract. The training core
// treats it as a read-only oracle plus a step function; it never
// writes memory.
type Emulator interface {
	MemoryReader

	// Step advances the game by one action.
	Step(action string) error

	// GetState returns the current snapshot.
	GetState() (Snapshot, error)

	// Frame returns the rendered screen as raw H*W*C bytes.
	Frame() []byte
}

// #endregion interfaces
