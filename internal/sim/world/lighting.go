package world

import (
	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world/logic/mathx"
)

var SunColor = registry.RGB{255, 250, 230}

const (
	// Per-step falloff for light spreading through open tiles.
	LightFalloff = 17
	// Scale from tile opacity (0..15) to channel attenuation (0..255).
	OpacityScale = 17
	// Chebyshev bound on point-light propagation and the emitter scan pad.
	MaxLightRadius = 16
)

type lightPos struct {
	x, y int
}

type lightNode struct {
	x, y  int
	light registry.RGB
}

// fgOpacity is the light opacity at a position from the foreground plane
// only; background walls never block light. Chunks that are not resident
// read as fully transparent, so sun columns scan through unloaded sky.
// Columns bordering unresident ground can come out over-bright until the
// neighbor materializes and a relight runs.
func (s *ChunkStore) fgOpacity(x, y int) uint8 {
	id, ok := s.GetTile(x, y, LayerFg)
	if !ok {
		return 0
	}
	return s.ctx.Reg.Tiles.Opacity(id)
}

// Attenuate subtracts amount from each channel, clamping at zero.
func Attenuate(light registry.RGB, amount int) registry.RGB {
	a := uint8(255)
	if amount < 255 {
		a = uint8(amount)
	}
	sub := func(c uint8) uint8 {
		if c <= a {
			return 0
		}
		return c - a
	}
	return registry.RGB{sub(light[0]), sub(light[1]), sub(light[2])}
}

// MergeLight is the per-channel max of two light values. Commutative and
// idempotent; merging is the only way a stored channel increases.
func MergeLight(a, b registry.RGB) registry.RGB {
	max := func(x, y uint8) uint8 {
		if x > y {
			return x
		}
		return y
	}
	return registry.RGB{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

func mergeLightArrays(dst, src []registry.RGB) {
	for i := range dst {
		dst[i] = MergeLight(dst[i], src[i])
	}
}

func exceedsAny(light, existing registry.RGB) bool {
	return light[0] > existing[0] || light[1] > existing[1] || light[2] > existing[2]
}

// ComputeChunkSunlight traces sunlight straight down each column of a
// resident chunk: the fixed sun color enters at the top of the world and
// loses opacity*scale per traversed foreground tile until it dies or
// reaches the chunk.
func (s *ChunkStore) ComputeChunkSunlight(key ChunkKey) []registry.RGB {
	cfg := s.ctx.Config
	cs := cfg.ChunkSize
	key = s.wrapKey(key)
	result := make([]registry.RGB, cs*cs)

	ch, ok := s.chunks[key]
	if !ok {
		return result
	}

	baseX := key.CX * cs
	baseY := key.CY * cs
	for lx := 0; lx < cs; lx++ {
		x := baseX + lx
		light := SunColor

		// From the world top down to the top edge of this chunk.
		for y := cfg.HeightTiles - 1; y >= baseY+cs; y-- {
			if light.IsZero() {
				break
			}
			if op := s.fgOpacity(x, y); op > 0 {
				light = Attenuate(light, int(op)*OpacityScale)
			}
		}

		// Through the chunk itself, top to bottom.
		for ly := cs - 1; ly >= 0; ly-- {
			if light.IsZero() {
				break
			}
			result[ly*cs+lx] = light
			id := ch.Fg.Get(lx, ly, cs)
			if op := s.ctx.Reg.Tiles.Opacity(id); op > 0 {
				light = Attenuate(light, int(op)*OpacityScale)
			}
		}
	}
	return result
}

// spreadSunlight spreads the column-scan result sideways with a
// multi-source BFS, seeded from this chunk's own sunlight and from the
// stored light of resident neighbor chunks. This is what carries daylight
// through cave mouths and side openings.
func (s *ChunkStore) spreadSunlight(key ChunkKey, sun []registry.RGB) []registry.RGB {
	cfg := s.ctx.Config
	cs := cfg.ChunkSize
	baseX := key.CX * cs
	baseY := key.CY * cs
	result := make([]registry.RGB, cs*cs)

	scanMinY := mathx.MaxInt(baseY-MaxLightRadius, 0)
	scanMaxY := mathx.MinInt(baseY+cs+MaxLightRadius, cfg.HeightTiles)

	queue := make([]lightNode, 0, cs*cs)
	visited := map[lightPos]registry.RGB{}

	for ly := 0; ly < cs; ly++ {
		for lx := 0; lx < cs; lx++ {
			l := sun[ly*cs+lx]
			if l.IsZero() {
				continue
			}
			p := lightPos{baseX + lx, baseY + ly}
			visited[p] = l
			queue = append(queue, lightNode{p.x, p.y, l})
		}
	}

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			ncy := key.CY + dy
			if ncy < 0 || ncy >= cfg.HeightChunks() {
				continue
			}
			neighbor := s.chunks[s.wrapKey(ChunkKey{CX: key.CX + dx, CY: ncy})]
			if neighbor == nil {
				continue
			}
			// Neighbor coordinates stay in this chunk's unwrapped frame so
			// the radius window math is uniform.
			nBaseX := (key.CX + dx) * cs
			nBaseY := ncy * cs
			for nly := 0; nly < cs; nly++ {
				for nlx := 0; nlx < cs; nlx++ {
					l := neighbor.Light[nly*cs+nlx]
					if l.IsZero() {
						continue
					}
					tx := nBaseX + nlx
					ty := nBaseY + nly
					if tx < baseX-MaxLightRadius || tx >= baseX+cs+MaxLightRadius ||
						ty < scanMinY || ty >= scanMaxY {
						continue
					}
					p := lightPos{tx, ty}
					if existing, seen := visited[p]; seen {
						if !exceedsAny(l, existing) {
							continue
						}
						visited[p] = MergeLight(l, existing)
					} else {
						visited[p] = l
					}
					queue = append(queue, lightNode{tx, ty, l})
				}
			}
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.light.IsZero() {
			continue
		}

		// Solid or unresident foreground tiles absorb light: they are lit
		// themselves but stop propagation.
		wrappedX := cfg.WrapTileX(node.x)
		if id, ok := s.GetTile(wrappedX, node.y, LayerFg); !ok || s.ctx.Reg.Tiles.IsSolid(id) {
			continue
		}

		for _, d := range [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
			nx := node.x + d[0]
			ny := node.y + d[1]
			if ny < 0 || ny >= cfg.HeightTiles {
				continue
			}
			if nx < baseX-MaxLightRadius || nx >= baseX+cs+MaxLightRadius ||
				ny < scanMinY || ny >= scanMaxY {
				continue
			}
			next := Attenuate(node.light, LightFalloff)
			if next.IsZero() {
				continue
			}
			p := lightPos{nx, ny}
			if existing, seen := visited[p]; seen {
				if !exceedsAny(next, existing) {
					continue
				}
				visited[p] = MergeLight(next, existing)
			} else {
				visited[p] = next
			}
			queue = append(queue, lightNode{nx, ny, next})
		}
	}

	for ly := 0; ly < cs; ly++ {
		for lx := 0; lx < cs; lx++ {
			if l, ok := visited[lightPos{baseX + lx, baseY + ly}]; ok {
				result[ly*cs+lx] = l
			}
		}
	}
	return result
}

// ComputePointLights scans a padded window around the chunk for emissive
// foreground tiles and flood-fills each one's light into the chunk.
func (s *ChunkStore) ComputePointLights(key ChunkKey) []registry.RGB {
	cfg := s.ctx.Config
	cs := cfg.ChunkSize
	baseX := key.CX * cs
	baseY := key.CY * cs
	result := make([]registry.RGB, cs*cs)

	scanMinY := mathx.MaxInt(baseY-MaxLightRadius, 0)
	scanMaxY := mathx.MinInt(baseY+cs+MaxLightRadius, cfg.HeightTiles)

	for y := scanMinY; y < scanMaxY; y++ {
		for dx := -MaxLightRadius; dx < cs+MaxLightRadius; dx++ {
			x := baseX + dx
			id, ok := s.GetTile(cfg.WrapTileX(x), y, LayerFg)
			if !ok {
				continue
			}
			emission := s.ctx.Reg.Tiles.Emission(id)
			if emission.IsZero() {
				continue
			}
			s.floodFromEmitter(result, key, x, y, emission)
		}
	}
	return result
}

// floodFromEmitter runs a 4-directional flood fill from one emitter,
// bounded by the Chebyshev radius, writing contributions that land inside
// the target chunk. The visited map records the best value seen per
// position; a position is re-expanded only when the candidate beats it in
// some channel. Attenuation along any path is monotonic, so this relaxes
// to the true maximum without a priority queue.
func (s *ChunkStore) floodFromEmitter(result []registry.RGB, key ChunkKey, startX, startY int, emission registry.RGB) {
	cfg := s.ctx.Config
	cs := cfg.ChunkSize
	baseX := key.CX * cs
	baseY := key.CY * cs

	queue := []lightNode{{startX, startY, emission}}
	visited := map[lightPos]registry.RGB{}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.light.IsZero() {
			continue
		}
		if mathx.AbsInt(node.x-startX) > MaxLightRadius || mathx.AbsInt(node.y-startY) > MaxLightRadius {
			continue
		}

		wrappedX := cfg.WrapTileX(node.x)
		p := lightPos{wrappedX, node.y}
		if existing, seen := visited[p]; seen {
			if !exceedsAny(node.light, existing) {
				continue
			}
			visited[p] = MergeLight(node.light, existing)
		} else {
			visited[p] = node.light
		}

		if lx, ly := wrappedX-baseX, node.y-baseY; lx >= 0 && lx < cs && ly >= 0 && ly < cs {
			idx := ly*cs + lx
			result[idx] = MergeLight(result[idx], node.light)
		}

		// Solid or unresident tiles absorb: lit but opaque to further spread.
		if id, ok := s.GetTile(wrappedX, node.y, LayerFg); !ok || s.ctx.Reg.Tiles.IsSolid(id) {
			continue
		}

		for _, d := range [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
			ny := node.y + d[1]
			if ny < 0 || ny >= cfg.HeightTiles {
				continue
			}
			next := Attenuate(node.light, LightFalloff)
			if !next.IsZero() {
				queue = append(queue, lightNode{node.x + d[0], ny, next})
			}
		}
	}
}

// ComputeChunkLighting combines column sunlight, the horizontal spread
// pass and point lights into one merged array.
func (s *ChunkStore) ComputeChunkLighting(key ChunkKey) []registry.RGB {
	key = s.wrapKey(key)
	sun := s.ComputeChunkSunlight(key)
	spread := s.spreadSunlight(key, sun)
	point := s.ComputePointLights(key)

	result := make([]registry.RGB, len(sun))
	copy(result, sun)
	mergeLightArrays(result, spread)
	mergeLightArrays(result, point)
	return result
}

// RelightAround fully recomputes lighting for the 3×3 chunk neighborhood
// of the edited tile, restricted to resident chunks, and returns the
// recomputed keys in deterministic order. A full recompute is the only
// operation that lowers stored light values; it trades per-edit cost for
// correctness.
func (s *ChunkStore) RelightAround(x, y int) []ChunkKey {
	cfg := s.ctx.Config
	wrapped := cfg.WrapTileX(x)
	center := TileToChunk(wrapped, clampInt(y, 0, cfg.HeightTiles-1), cfg.ChunkSize)

	dirty := map[ChunkKey]struct{}{}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cy := center.CY + dy
			if cy < 0 || cy >= cfg.HeightChunks() {
				continue
			}
			key := s.wrapKey(ChunkKey{CX: center.CX + dx, CY: cy})
			ch, ok := s.chunks[key]
			if !ok {
				continue
			}
			ch.Light = s.ComputeChunkLighting(key)
			dirty[key] = struct{}{}
		}
	}
	return sortedKeys(dirty)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
