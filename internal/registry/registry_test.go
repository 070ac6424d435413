package registry

import (
	"testing"
)

func TestNewTileRegistryValidation(t *testing.T) {
	if _, err := NewTileRegistry(nil); err == nil {
		t.Fatalf("expected error for empty def list")
	}
	if _, err := NewTileRegistry([]TileDef{{ID: "stone", Solid: true}}); err == nil {
		t.Fatalf("expected error when def 0 is not air")
	}
	if _, err := NewTileRegistry([]TileDef{{ID: "air", Opacity: 3}}); err == nil {
		t.Fatalf("expected error for opaque air")
	}
	if _, err := NewTileRegistry([]TileDef{{ID: "air"}, {ID: "stone"}, {ID: "stone"}}); err == nil {
		t.Fatalf("expected error for duplicate ids")
	}
	if _, err := NewTileRegistry([]TileDef{{ID: "air"}, {ID: "stone", Opacity: 16}}); err == nil {
		t.Fatalf("expected error for opacity over 15")
	}
}

func TestTileLookups(t *testing.T) {
	r, err := NewTileRegistry([]TileDef{
		{ID: "air"},
		{ID: "stone", Solid: true, Opacity: 15},
		{ID: "torch", Emission: RGB{255, 180, 90}},
	})
	if err != nil {
		t.Fatalf("NewTileRegistry: %v", err)
	}

	if got := r.ByName("stone"); got != 1 {
		t.Fatalf("ByName(stone) = %d", got)
	}
	if _, err := r.Resolve("bedrock"); err == nil {
		t.Fatalf("expected Resolve error for unknown name")
	}
	if !r.IsSolid(1) || r.IsSolid(0) {
		t.Fatalf("solidity lookups wrong")
	}
	if r.Emission(2).IsZero() {
		t.Fatalf("torch emission lost")
	}

	palette := r.Palette()
	if len(palette) != 3 || palette[0] != "air" || palette[2] != "torch" {
		t.Fatalf("palette = %v", palette)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("Get on unknown id did not panic")
		}
	}()
	_ = r.Get(99)
}

func TestByNamePanicsOnUnknown(t *testing.T) {
	r, err := NewTileRegistry([]TileDef{{ID: "air"}})
	if err != nil {
		t.Fatalf("NewTileRegistry: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("ByName on unknown name did not panic")
		}
	}()
	_ = r.ByName("mystery")
}

func TestAutotileVariantFallback(t *testing.T) {
	iso := []Variant{{Row: 0, Weight: 1}}
	r, err := NewAutotileRegistry(map[string]map[uint8][]Variant{
		"grass": {
			0:   iso,
			255: {{Row: 4, Weight: 1}},
		},
	})
	if err != nil {
		t.Fatalf("NewAutotileRegistry: %v", err)
	}

	g := r.Group("grass")
	if got := g.VariantsFor(255); got[0].Row != 4 {
		t.Fatalf("mask 255 variants = %v", got)
	}
	// Unpopulated masks fall back to the isolated entry.
	if got := g.VariantsFor(17); got[0].Row != 0 {
		t.Fatalf("fallback variants = %v", got)
	}

	if _, err := NewAutotileRegistry(map[string]map[uint8][]Variant{
		"bare": {255: iso},
	}); err == nil {
		t.Fatalf("expected error for group without mask 0")
	}
}

func TestLoadShippedConfigs(t *testing.T) {
	s, err := Load("../../configs")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Digest == "" || s.Tiles.Digest == "" || s.Biomes.Digest == "" || s.Autotiles.Digest == "" {
		t.Fatalf("missing digests: %+v", s)
	}
	if s.Tiles.Defs[0].ID != "air" {
		t.Fatalf("tile 0 is %q", s.Tiles.Defs[0].ID)
	}

	grass := s.Tiles.ByName("grass")
	if !s.Tiles.IsSolid(grass) {
		t.Fatalf("grass is not solid")
	}
	if group := s.Tiles.AutotileGroup(grass); group == "" || !s.Autotiles.Has(group) {
		t.Fatalf("grass autotile group %q not loaded", group)
	}

	torch := s.Tiles.ByName("torch")
	if s.Tiles.Emission(torch).IsZero() {
		t.Fatalf("torch has no emission")
	}

	meadow := s.Biomes.ByName("meadow")
	if def := s.Biomes.Get(meadow); def.SurfaceTile != grass {
		t.Fatalf("meadow surface tile = %d, want grass %d", def.SurfaceTile, grass)
	}

	planet, err := s.Planet("garden")
	if err != nil {
		t.Fatalf("Planet(garden): %v", err)
	}
	if planet.PrimaryBiome != "meadow" || len(planet.SecondaryBiomes) == 0 {
		t.Fatalf("garden planet %+v", planet)
	}
	if _, err := s.Planet("gas_giant"); err == nil {
		t.Fatalf("expected error for unknown planet")
	}
}
