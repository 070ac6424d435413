package registry

import "fmt"

// TileID is a compact handle into the tile table. Id 0 is always AIR.
type TileID uint16

const Air TileID = 0

// RGB is a 3-channel color triple, also used for light values.
type RGB [3]uint8

func (c RGB) IsZero() bool {
	return c[0] == 0 && c[1] == 0 && c[2] == 0
}

// DropEntry is one row of a tile's drop table.
type DropEntry struct {
	Item   string  `json:"item"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Chance float64 `json:"chance"`
}

type TileDef struct {
	ID       string      `json:"id"`
	Solid    bool        `json:"solid"`
	Hardness float64     `json:"hardness"`
	Opacity  uint8       `json:"opacity"` // 0..15 light attenuation strength
	Emission RGB         `json:"emission,omitempty"`
	Albedo   RGB         `json:"albedo,omitempty"`
	Autotile string      `json:"autotile,omitempty"`
	Drops    []DropEntry `json:"drops,omitempty"`
}

// TileRegistry holds all tile definitions in a dense slice indexed by
// TileID. Name resolution goes through a separate table built once at load;
// hot-path accessors index the slice directly.
type TileRegistry struct {
	Defs   []TileDef
	Digest string

	index map[string]TileID
}

// NewTileRegistry builds a registry from an ordered def list. The def at
// position 0 must be the air tile.
func NewTileRegistry(defs []TileDef) (*TileRegistry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("tile registry: no defs")
	}
	if defs[0].ID != "air" || defs[0].Solid {
		return nil, fmt.Errorf("tile registry: def 0 must be non-solid %q, got %q", "air", defs[0].ID)
	}
	if defs[0].Opacity != 0 {
		return nil, fmt.Errorf("tile registry: air must have opacity 0")
	}
	index := make(map[string]TileID, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("tile registry: empty id at index %d", i)
		}
		if _, dup := index[d.ID]; dup {
			return nil, fmt.Errorf("tile registry: duplicate id %q", d.ID)
		}
		if d.Opacity > 15 {
			return nil, fmt.Errorf("tile registry: %q opacity %d out of range 0..15", d.ID, d.Opacity)
		}
		index[d.ID] = TileID(i)
	}
	return &TileRegistry{Defs: defs, index: index}, nil
}

// Get returns the definition for id. Unknown ids are a content-authoring
// bug: they panic rather than silently substituting a default, which would
// corrupt deterministic generation output.
func (r *TileRegistry) Get(id TileID) *TileDef {
	if int(id) >= len(r.Defs) {
		panic(fmt.Sprintf("unknown tile id %d", id))
	}
	return &r.Defs[id]
}

// ByName resolves a tile name to its id. Panics on unknown names (see Get).
func (r *TileRegistry) ByName(name string) TileID {
	id, ok := r.index[name]
	if !ok {
		panic(fmt.Sprintf("unknown tile %q", name))
	}
	return id
}

// Resolve is the error-returning form of ByName, for load-time wiring.
func (r *TileRegistry) Resolve(name string) (TileID, error) {
	id, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("unknown tile %q", name)
	}
	return id, nil
}

func (r *TileRegistry) Len() int { return len(r.Defs) }

// Palette returns tile names in id order.
func (r *TileRegistry) Palette() []string {
	names := make([]string, len(r.Defs))
	for i, d := range r.Defs {
		names[i] = d.ID
	}
	return names
}

func (r *TileRegistry) IsSolid(id TileID) bool      { return r.Get(id).Solid }
func (r *TileRegistry) Opacity(id TileID) uint8     { return r.Get(id).Opacity }
func (r *TileRegistry) Emission(id TileID) RGB      { return r.Get(id).Emission }
func (r *TileRegistry) Albedo(id TileID) RGB        { return r.Get(id).Albedo }
func (r *TileRegistry) AutotileGroup(id TileID) string { return r.Get(id).Autotile }
