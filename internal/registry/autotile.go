package registry

import "fmt"

// Variant is one weighted visual variant for a (group, bitmask) pair.
// Row indexes the variant's sprite row in the group's atlas column.
type Variant struct {
	Row    int     `json:"row"`
	Weight float64 `json:"weight"`
}

// AutotileEntry maps each of the 256 bitmask values to its variant list.
type AutotileEntry struct {
	masks [256][]Variant
}

// VariantsFor returns the variants for a bitmask value, falling back to
// the isolated-tile entry (mask 0) when the mask has no variants of its own.
func (e *AutotileEntry) VariantsFor(mask uint8) []Variant {
	if v := e.masks[mask]; len(v) > 0 {
		return v
	}
	return e.masks[0]
}

// AutotileRegistry holds all autotile groups keyed by group name
// (the TileDef.Autotile field points here).
type AutotileRegistry struct {
	Digest string

	groups map[string]*AutotileEntry
}

// NewAutotileRegistry builds the registry from per-group mask tables.
// Every group must define at least the isolated (mask 0) variants.
func NewAutotileRegistry(groups map[string]map[uint8][]Variant) (*AutotileRegistry, error) {
	out := make(map[string]*AutotileEntry, len(groups))
	for name, table := range groups {
		entry := &AutotileEntry{}
		for mask, variants := range table {
			entry.masks[mask] = variants
		}
		if len(entry.masks[0]) == 0 {
			return nil, fmt.Errorf("autotile group %q: missing variants for mask 0", name)
		}
		out[name] = entry
	}
	return &AutotileRegistry{groups: out}, nil
}

// Group panics on unknown names; a tile def pointing at a missing group is
// a content-authoring bug.
func (r *AutotileRegistry) Group(name string) *AutotileEntry {
	e, ok := r.groups[name]
	if !ok {
		panic(fmt.Sprintf("unknown autotile group %q", name))
	}
	return e
}

func (r *AutotileRegistry) Has(name string) bool {
	_, ok := r.groups[name]
	return ok
}
