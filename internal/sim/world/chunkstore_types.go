package world

import (
	"crypto/sha256"
	"encoding/binary"

	"tileplanet/internal/registry"
)

// ChunkKey addresses a chunk. CX is logically unbounded; it is wrapped
// onto [0, WidthChunks) before any map lookup.
type ChunkKey struct {
	CX int
	CY int
}

// Layer selects the foreground or background tile plane.
type Layer int

const (
	LayerFg Layer = iota
	LayerBg
)

// LayerData holds one plane of a chunk: tile ids and the autotile
// bitmasks last computed for them, both row-major (index = ly*size + lx).
type LayerData struct {
	Tiles []registry.TileID
	Mask  []uint8
}

func (d *LayerData) Get(lx, ly, size int) registry.TileID {
	return d.Tiles[ly*size+lx]
}

func (d *LayerData) Set(lx, ly, size int, id registry.TileID) {
	d.Tiles[ly*size+lx] = id
}

// Chunk is the unit of lazy generation and caching. The Light array is
// the merged sun+point result for the foreground plane; background walls
// neither emit nor block light.
type Chunk struct {
	Key   ChunkKey
	Fg    LayerData
	Bg    LayerData
	Light []registry.RGB

	dirty bool
	hash  [32]byte
}

func newChunk(key ChunkKey, size int) *Chunk {
	n := size * size
	return &Chunk{
		Key:   key,
		Fg:    LayerData{Tiles: make([]registry.TileID, n), Mask: make([]uint8, n)},
		Bg:    LayerData{Tiles: make([]registry.TileID, n), Mask: make([]uint8, n)},
		Light: make([]registry.RGB, n),
	}
}

func (c *Chunk) Layer(l Layer) *LayerData {
	if l == LayerBg {
		return &c.Bg
	}
	return &c.Fg
}

// Digest hashes both tile planes deterministically. Used by persistence
// and tests to compare world contents without scanning arrays.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, plane := range [][]registry.TileID{c.Fg.Tiles, c.Bg.Tiles} {
			for _, v := range plane {
				binary.LittleEndian.PutUint16(tmp[:], uint16(v))
				h.Write(tmp[:])
			}
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}
