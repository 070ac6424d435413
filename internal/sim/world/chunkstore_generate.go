package world

import "tileplanet/internal/registry"

// GetOrGenerate returns the chunk at key, materializing it on first touch.
// Generation happens exactly once per coordinate: a chunk already resident
// is returned as-is, so redundant same-frame calls collapse to one result.
func (s *ChunkStore) GetOrGenerate(key ChunkKey) *Chunk {
	key = s.wrapKey(key)
	if ch, ok := s.chunks[key]; ok {
		return ch
	}
	ch := newChunk(key, s.ctx.Config.ChunkSize)
	s.generateChunk(ch)
	ch.dirty = true
	s.chunks[key] = ch
	return ch
}

func (s *ChunkStore) generateChunk(ch *Chunk) {
	cs := s.ctx.Config.ChunkSize
	baseX := ch.Key.CX * cs
	baseY := ch.Key.CY * cs
	for ly := 0; ly < cs; ly++ {
		for lx := 0; lx < cs; lx++ {
			x := baseX + lx
			y := baseY + ly
			ch.Fg.Set(lx, ly, cs, GenerateTile(s.ctx, x, y))
			ch.Bg.Set(lx, ly, cs, GenerateBackgroundTile(s.ctx, x, y))
		}
	}
}

// GenerateChunkTiles produces a chunk's foreground tiles without touching
// the store. Exposed for determinism tests and tooling.
func GenerateChunkTiles(ctx *Ctx, key ChunkKey) []registry.TileID {
	cs := ctx.Config.ChunkSize
	tiles := make([]registry.TileID, 0, cs*cs)
	for ly := 0; ly < cs; ly++ {
		for lx := 0; lx < cs; lx++ {
			tiles = append(tiles, GenerateTile(ctx, key.CX*cs+lx, key.CY*cs+ly))
		}
	}
	return tiles
}
