package registry

import "fmt"

// BiomeID is a compact handle into the biome table.
type BiomeID uint16

type BiomeDef struct {
	ID              string
	SurfaceTile     TileID
	SubsurfaceTile  TileID
	SubsurfaceDepth int
	FillTile        TileID
	CaveThreshold   float64
	Backdrop        string // ambient backdrop reference, unused by the core
}

// biomeFile is the on-disk shape: tiles referenced by name, resolved to
// ids against the tile registry at load time.
type biomeFile struct {
	ID              string  `json:"id"`
	SurfaceTile     string  `json:"surface_tile"`
	SubsurfaceTile  string  `json:"subsurface_tile"`
	SubsurfaceDepth int     `json:"subsurface_depth"`
	FillTile        string  `json:"fill_tile"`
	CaveThreshold   float64 `json:"cave_threshold"`
	Backdrop        string  `json:"backdrop,omitempty"`
}

type BiomeRegistry struct {
	Defs   []BiomeDef
	Digest string

	index map[string]BiomeID
}

func NewBiomeRegistry(defs []BiomeDef) (*BiomeRegistry, error) {
	index := make(map[string]BiomeID, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("biome registry: empty id at index %d", i)
		}
		if _, dup := index[d.ID]; dup {
			return nil, fmt.Errorf("biome registry: duplicate id %q", d.ID)
		}
		index[d.ID] = BiomeID(i)
	}
	return &BiomeRegistry{Defs: defs, index: index}, nil
}

// Get panics on unknown ids; registry misuse is fatal (see TileRegistry.Get).
func (r *BiomeRegistry) Get(id BiomeID) *BiomeDef {
	if int(id) >= len(r.Defs) {
		panic(fmt.Sprintf("unknown biome id %d", id))
	}
	return &r.Defs[id]
}

func (r *BiomeRegistry) ByName(name string) BiomeID {
	id, ok := r.index[name]
	if !ok {
		panic(fmt.Sprintf("unknown biome %q", name))
	}
	return id
}

func (r *BiomeRegistry) Resolve(name string) (BiomeID, error) {
	id, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("unknown biome %q", name)
	}
	return id, nil
}

func (r *BiomeRegistry) Len() int { return len(r.Defs) }

func (r *BiomeRegistry) Palette() []string {
	names := make([]string, len(r.Defs))
	for i, d := range r.Defs {
		names[i] = d.ID
	}
	return names
}
