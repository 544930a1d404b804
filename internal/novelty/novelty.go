// Package novelty decides whether a rendered frame has been seen
// before. Two interchangeable strategies implement the same interface:
// an exact vector index over flattened pixels and a coarser
// downsample-and-hash fallback for constrained deployments.
package novelty

import "fmt"

// #region mode

// Mode selects the dedup strategy.
type Mode string

const (
	// ModeAuto picks ModeVector when the configured capacity fits the
	// memory budget, ModeHash otherwise.
	ModeAuto   Mode = "auto"
	ModeVector Mode = "vector"
	ModeHash   Mode = "hash"
)

// #endregion mode

// #region config

// Config tunes frame deduplication.
type Config struct {
	FrameH int
	FrameW int
	FrameC int

	// MaxElements caps how many frames the vector index stores. Past
	// capacity the index degrades to query-only.
	MaxElements int

	// Threshold is the squared Euclidean distance below which two
	// frames count as the same.
	Threshold float64

	Mode Mode

	// DownsampleStride is the per-axis stride of the hash fallback.
	DownsampleStride int

	// MemoryBudget bounds the vector index's worst-case footprint in
	// bytes; exceeded budgets fall back to hashing in ModeAuto.
	MemoryBudget int64
}

// DefaultConfig matches the reference deployment: full Game Boy frames
// at 20k capacity.
func DefaultConfig() Config {
	return Config{
		FrameH:           144,
		FrameW:           160,
		FrameC:           3,
		MaxElements:      20000,
		Threshold:        2_000_000,
		Mode:             ModeAuto,
		DownsampleStride: 4,
		MemoryBudget:     16 << 30,
	}
}

// Dim is the flattened frame vector length.
func (c Config) Dim() int {
	return c.FrameH * c.FrameW * c.FrameC
}

// #endregion config

// #region index-interface

// Index deduplicates observed frames.
type Index interface {
	// Observe records a frame and reports whether it is novel:
	// farther than the threshold from every stored frame.
	Observe(frame []byte) bool

	// Reset discards all stored frames and zeroes the unique counter.
	Reset()

	// UniqueCount returns the number of unique frames seen.
	UniqueCount() int
}

// #endregion index-interface

// #region detect

// Detect is the capability-detection step: it resolves ModeAuto to a
// concrete strategy up front so the choice is an explicit
// configuration fact, not a per-call branch.
func Detect(cfg Config) Mode {
	if cfg.Mode == ModeVector || cfg.Mode == ModeHash {
		return cfg.Mode
	}
	// Worst case the vector index holds MaxElements float64 vectors.
	footprint := int64(cfg.Dim()) * int64(cfg.MaxElements) * 8
	if cfg.MemoryBudget > 0 && footprint > cfg.MemoryBudget {
		return ModeHash
	}
	return ModeVector
}

// New builds the index for the detected mode.
func New(cfg Config) (Index, error) {
	if cfg.Dim() <= 0 {
		return nil, fmt.Errorf("novelty: invalid frame shape %dx%dx%d", cfg.FrameH, cfg.FrameW, cfg.FrameC)
	}
	switch cfg.Mode {
	case ModeAuto, ModeVector, ModeHash, "":
	default:
		return nil, fmt.Errorf("novelty: unknown mode %q", cfg.Mode)
	}
	switch Detect(cfg) {
	case ModeHash:
		return newHashIndex(cfg), nil
	default:
		return newVectorIndex(cfg), nil
	}
}

// #endregion detect
