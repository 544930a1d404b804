package novelty

import "hash/fnv"

// #region hash-index

// HashIndex is the fallback strategy: frames are downsampled by a
// fixed stride on both spatial axes and compared by exact hash
// equality over the remaining bytes. Strictly coarser than the vector
// index — near-duplicate frames that differ only between sampled
// pixels collapse to the same hash and are reported as not novel.
type HashIndex struct {
	cfg    Config
	stride int
	seen   map[uint64]struct{}
	count  int
}

func newHashIndex(cfg Config) *HashIndex {
	stride := cfg.DownsampleStride
	if stride < 1 {
		stride = 1
	}
	return &HashIndex{
		cfg:    cfg,
		stride: stride,
		seen:   make(map[uint64]struct{}),
	}
}

// Observe implements Index.
func (h *HashIndex) Observe(frame []byte) bool {
	if len(frame) != h.cfg.Dim() {
		return false
	}

	key := h.downsampleHash(frame)
	if _, ok := h.seen[key]; ok {
		return false
	}
	h.seen[key] = struct{}{}
	h.count++
	return true
}

// downsampleHash hashes every stride-th pixel across both axes, all
// channels included.
func (h *HashIndex) downsampleHash(frame []byte) uint64 {
	hasher := fnv.New64a()
	rowLen := h.cfg.FrameW * h.cfg.FrameC
	for y := 0; y < h.cfg.FrameH; y += h.stride {
		for x := 0; x < h.cfg.FrameW; x += h.stride {
			off := y*rowLen + x*h.cfg.FrameC
			hasher.Write(frame[off : off+h.cfg.FrameC])
		}
	}
	return hasher.Sum64()
}

// Reset implements Index.
func (h *HashIndex) Reset() {
	h.seen = make(map[uint64]struct{})
	h.count = 0
}

// UniqueCount implements Index.
func (h *HashIndex) UniqueCount() int {
	return h.count
}

// #endregion hash-index
