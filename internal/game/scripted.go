package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region scripted-types

// ScriptStep is one recorded step of a scripted session: the snapshot
// after the step plus an optional RAM overlay.
type ScriptStep struct {
	Snapshot Snapshot        `json:"snapshot"`
	Memory   map[string]byte `json:"memory,omitempty"` // hex address -> value
}

// Script is a JSON-loadable recording that a Scripted emulator plays
// back, action-independent.
type Script struct {
	Edition string       `json:"edition"`
	FrameH  int          `json:"frame_h"`
	FrameW  int          `json:"frame_w"`
	FrameC  int          `json:"frame_c"`
	Steps   []ScriptStep `json:"steps"`
}

// #endregion scripted-types

// #region scripted

// Scripted is an Emulator that replays a recorded script. It backs
// offline training runs and tests; the live emulator adapter
// implements the same interface against the running game process.
type Scripted struct {
	script Script
	cursor int
	memory map[uint16]byte
}

// NewScripted builds a scripted emulator positioned before the first
// step.
func NewScripted(script Script) *Scripted {
	s := &Scripted{script: script, memory: make(map[uint16]byte)}
	s.applyOverlay(0)
	return s
}

// LoadScript reads a script file.
func LoadScript(path string) (Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	var script Script
	if err := json.Unmarshal(raw, &script); err != nil {
		return Script{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(script.Steps) == 0 {
		return Script{}, fmt.Errorf("script %s has no steps", path)
	}
	return script, nil
}

func (s *Scripted) applyOverlay(idx int) {
	if idx >= len(s.script.Steps) {
		return
	}
	for hexAddr, val := range s.script.Steps[idx].Memory {
		var addr uint16
		if _, err := fmt.Sscanf(hexAddr, "0x%X", &addr); err == nil {
			s.memory[addr] = val
		}
	}
}

// Step advances the cursor. The recorded session already fixed the
// trajectory, so the action is accepted but not interpreted.
func (s *Scripted) Step(action string) error {
	if s.cursor < len(s.script.Steps)-1 {
		s.cursor++
		s.applyOverlay(s.cursor)
	}
	return nil
}

// GetState returns the snapshot at the cursor.
func (s *Scripted) GetState() (Snapshot, error) {
	snap := s.script.Steps[s.cursor].Snapshot
	if snap.Edition == "" {
		snap.Edition = s.script.Edition
	}
	if snap.Location == "" {
		snap.Location = MapName(snap.MapID)
	}
	return snap, nil
}

// ReadMemory reads an overlay byte; addresses the script never set
// read as zero.
func (s *Scripted) ReadMemory(addr uint16) byte {
	return s.memory[addr]
}

// Frame synthesizes a deterministic frame from the current position so
// novelty tracking behaves: same position, same frame.
func (s *Scripted) Frame() []byte {
	h, w, c := s.script.FrameH, s.script.FrameW, s.script.FrameC
	if h == 0 || w == 0 || c == 0 {
		h, w, c = 36, 40, 1
	}
	snap := s.script.Steps[s.cursor].Snapshot
	frame := make([]byte, h*w*c)
	seed := byte(snap.MapID*31 + snap.X*7 + snap.Y*13)
	for i := range frame {
		frame[i] = seed + byte(i%17)
	}
	return frame
}

// Done reports whether the script is exhausted.
func (s *Scripted) Done() bool {
	return s.cursor >= len(s.script.Steps)-1
}

// #endregion scripted
