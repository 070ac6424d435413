package world

import (
	"sort"

	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world/logic/mathx"
)

// ChunkStore owns all chunk contents and is their sole writer. It is
// accessed only from the world loop goroutine; nothing here locks.
type ChunkStore struct {
	ctx     *Ctx
	bedrock registry.TileID

	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(ctx *Ctx) *ChunkStore {
	return &ChunkStore{
		ctx:     ctx,
		bedrock: ctx.Reg.Tiles.ByName(ctx.Config.BedrockTile),
		chunks: map[ChunkKey]*Chunk{},
	}
}

// TileToChunk converts absolute tile coordinates (x already wrapped) to a
// chunk key.
func TileToChunk(x, y, chunkSize int) ChunkKey {
	return ChunkKey{CX: mathx.FloorDiv(x, chunkSize), CY: mathx.FloorDiv(y, chunkSize)}
}

// TileToLocal converts absolute tile coordinates to chunk-local ones in
// [0, chunkSize).
func TileToLocal(x, y, chunkSize int) (int, int) {
	return mathx.Mod(x, chunkSize), mathx.Mod(y, chunkSize)
}

// GetTile reads a tile without forcing generation. Below the world it
// reports the synthetic bedrock tile, above it air. When the backing chunk
// is not resident the second result is false and the id is meaningless;
// callers must not assume a default there.
func (s *ChunkStore) GetTile(x, y int, l Layer) (registry.TileID, bool) {
	cfg := s.ctx.Config
	if y < 0 {
		return s.bedrock, true
	}
	if y >= cfg.HeightTiles {
		return registry.Air, true
	}
	x = cfg.WrapTileX(x)
	key := TileToChunk(x, y, cfg.ChunkSize)
	ch, ok := s.chunks[key]
	if !ok {
		return registry.Air, false
	}
	lx, ly := TileToLocal(x, y, cfg.ChunkSize)
	return ch.Layer(l).Get(lx, ly, cfg.ChunkSize), true
}

// SetTile writes a tile, generating the backing chunk if absent. Writes
// outside [0, HeightTiles) are silent no-ops.
func (s *ChunkStore) SetTile(x, y int, l Layer, id registry.TileID) {
	cfg := s.ctx.Config
	if y < 0 || y >= cfg.HeightTiles {
		return
	}
	x = cfg.WrapTileX(x)
	key := TileToChunk(x, y, cfg.ChunkSize)
	ch := s.GetOrGenerate(key)
	lx, ly := TileToLocal(x, y, cfg.ChunkSize)
	plane := ch.Layer(l)
	if plane.Get(lx, ly, cfg.ChunkSize) == id {
		return
	}
	plane.Set(lx, ly, cfg.ChunkSize, id)
	ch.dirty = true
}

// Solidity reports whether the foreground tile at (x, y) is solid, and
// whether that is even known (false when the chunk is not resident).
func (s *ChunkStore) Solidity(x, y int) (solid, known bool) {
	return s.layerSolidity(LayerFg, x, y)
}

// IsSolid treats unknown as not solid. Autotiling uses this: an
// unresident neighbor contributes no border, and the mask is recomputed
// anyway when that chunk materializes.
func (s *ChunkStore) IsSolid(x, y int) bool {
	solid, known := s.Solidity(x, y)
	return known && solid
}

func (s *ChunkStore) layerSolidity(l Layer, x, y int) (solid, known bool) {
	id, ok := s.GetTile(x, y, l)
	if !ok {
		return false, false
	}
	return s.ctx.Reg.Tiles.IsSolid(id), true
}

// Resident reports whether the chunk is materialized, without generating.
func (s *ChunkStore) Resident(key ChunkKey) bool {
	_, ok := s.chunks[s.wrapKey(key)]
	return ok
}

// Chunk returns a resident chunk, or nil.
func (s *ChunkStore) Chunk(key ChunkKey) *Chunk {
	return s.chunks[s.wrapKey(key)]
}

func (s *ChunkStore) wrapKey(key ChunkKey) ChunkKey {
	key.CX = s.ctx.Config.WrapChunkX(key.CX)
	return key
}

// LoadedChunkKeys returns resident chunk keys in deterministic order.
func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
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

// DropAll discards every resident chunk. Called on definition hot-reload;
// chunks regenerate lazily against the new snapshot.
func (s *ChunkStore) DropAll() {
	s.chunks = map[ChunkKey]*Chunk{}
}
