package world

import (
	"sort"

	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world/logic/mathx"
)

// Neighbor bit layout for the 8-bit autotile mask (Blob47 scheme).
// North is +y.
const (
	BitN  uint8 = 1
	BitNE uint8 = 2
	BitE  uint8 = 4
	BitSE uint8 = 8
	BitS  uint8 = 16
	BitSW uint8 = 32
	BitW  uint8 = 64
	BitNW uint8 = 128
)

// ComputeBitmask builds the neighbor mask for the tile at (x, y). A corner
// bit is set only when both adjacent cardinals and the diagonal are solid,
// which keeps single-diagonal contacts from producing corner artifacts.
func ComputeBitmask(isSolidAt func(x, y int) bool, x, y int) uint8 {
	n := isSolidAt(x, y+1)
	e := isSolidAt(x+1, y)
	s := isSolidAt(x, y-1)
	w := isSolidAt(x-1, y)

	var mask uint8
	if n {
		mask |= BitN
	}
	if e {
		mask |= BitE
	}
	if s {
		mask |= BitS
	}
	if w {
		mask |= BitW
	}

	if n && e && isSolidAt(x+1, y+1) {
		mask |= BitNE
	}
	if s && e && isSolidAt(x+1, y-1) {
		mask |= BitSE
	}
	if s && w && isSolidAt(x-1, y-1) {
		mask |= BitSW
	}
	if n && w && isSolidAt(x-1, y+1) {
		mask |= BitNW
	}

	return mask
}

// SelectVariant picks a variant row from a weighted list. The pick is a
// pure function of (variants, x, y, seed): the position hash is scaled by
// the total weight and walked cumulatively, so the same tile always renders
// the same variant with no persisted per-tile state.
func SelectVariant(variants []registry.Variant, x, y int, seed int64) int {
	if len(variants) == 0 {
		return 0
	}
	if len(variants) == 1 {
		return variants[0].Row
	}
	total := 0.0
	for _, v := range variants {
		total += v.Weight
	}
	threshold := mathx.Hash01(x, y, seed) * total
	cumulative := 0.0
	for _, v := range variants {
		cumulative += v.Weight
		if cumulative >= threshold {
			return v.Row
		}
	}
	return variants[len(variants)-1].Row
}

// computeMaskAt recomputes and stores the mask for one tile if its chunk
// is resident. Neighbor solidity goes through the store, so masks are
// correct across chunk borders and the x wrap.
func (s *ChunkStore) computeMaskAt(l Layer, x, y int) (ChunkKey, bool) {
	cfg := s.ctx.Config
	if y < 0 || y >= cfg.HeightTiles {
		return ChunkKey{}, false
	}
	x = cfg.WrapTileX(x)
	key := TileToChunk(x, y, cfg.ChunkSize)
	ch, ok := s.chunks[key]
	if !ok {
		return ChunkKey{}, false
	}
	solidAt := func(nx, ny int) bool {
		solid, known := s.layerSolidity(l, nx, ny)
		return known && solid
	}
	lx, ly := TileToLocal(x, y, cfg.ChunkSize)
	plane := ch.Layer(l)
	if plane.Get(lx, ly, cfg.ChunkSize) == registry.Air {
		plane.Mask[ly*cfg.ChunkSize+lx] = 0
	} else {
		plane.Mask[ly*cfg.ChunkSize+lx] = ComputeBitmask(solidAt, x, y)
	}
	return key, true
}

// UpdateBitmasksAround recomputes the mask for the tile at (x, y) and its
// eight neighbors, returning the touched chunk keys in deterministic order.
func (s *ChunkStore) UpdateBitmasksAround(x, y int, l Layer) []ChunkKey {
	touched := map[ChunkKey]struct{}{}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if key, ok := s.computeMaskAt(l, x+dx, y+dy); ok {
				touched[key] = struct{}{}
			}
		}
	}
	return sortedKeys(touched)
}

// ComputeChunkBitmasks recomputes every mask in a resident chunk. Called
// after a chunk first materializes.
func (s *ChunkStore) ComputeChunkBitmasks(key ChunkKey, l Layer) {
	key = s.wrapKey(key)
	if _, ok := s.chunks[key]; !ok {
		return
	}
	cs := s.ctx.Config.ChunkSize
	for ly := 0; ly < cs; ly++ {
		for lx := 0; lx < cs; lx++ {
			s.computeMaskAt(l, key.CX*cs+lx, key.CY*cs+ly)
		}
	}
}

func sortedKeys(set map[ChunkKey]struct{}) []ChunkKey {
	keys := make([]ChunkKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}
