package novelty

import (
	"log"

	"gonum.org/v1/gonum/floats"
)

// #region vector-index

// VectorIndex stores every unique frame as a flattened float vector
// and answers novelty queries by exact nearest-neighbour distance. At
// capacity it stops storing and becomes query-only; the same distance
// rule still decides novelty, so a full index degrades rather than
// fails.
type VectorIndex struct {
	cfg    Config
	dim    int
	frames [][]float64
}

func newVectorIndex(cfg Config) *VectorIndex {
	return &VectorIndex{
		cfg:    cfg,
		dim:    cfg.Dim(),
		frames: make([][]float64, 0, 256),
	}
}

// Observe implements Index.
func (v *VectorIndex) Observe(frame []byte) bool {
	if len(frame) != v.dim {
		log.Printf("[NOVELTY] frame dimension mismatch: %d != %d", len(frame), v.dim)
		return false
	}

	vec := make([]float64, v.dim)
	for i, b := range frame {
		vec[i] = float64(b)
	}

	if len(v.frames) > 0 {
		if v.nearestSq(vec) < v.cfg.Threshold {
			return false
		}
	}

	// Capacity reached: query-only from here on.
	if len(v.frames) >= v.cfg.MaxElements {
		return true
	}

	v.frames = append(v.frames, vec)
	return true
}

// nearestSq returns the squared Euclidean distance to the closest
// stored frame.
func (v *VectorIndex) nearestSq(vec []float64) float64 {
	best := -1.0
	for _, stored := range v.frames {
		d := floats.Distance(vec, stored, 2)
		sq := d * d
		if best < 0 || sq < best {
			best = sq
			if best < v.cfg.Threshold {
				// Already a duplicate, no need to finish the scan.
				break
			}
		}
	}
	return best
}

// Reset implements Index.
func (v *VectorIndex) Reset() {
	v.frames = v.frames[:0]
}

// UniqueCount implements Index.
func (v *VectorIndex) UniqueCount() int {
	return len(v.frames)
}

// #endregion vector-index
