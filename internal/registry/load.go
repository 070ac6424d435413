package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Snapshot bundles every loaded definition table. It is immutable after
// load; hot-reload builds a fresh Snapshot and swaps it in wholesale so
// generation never observes a half-updated registry.
type Snapshot struct {
	Tiles     *TileRegistry
	Biomes    *BiomeRegistry
	Autotiles *AutotileRegistry
	Planets   map[string]PlanetDef

	Digest string
}

// Planet looks up a planet type. Unknown planet types are a load-time
// configuration error, not a hot-path condition.
func (s *Snapshot) Planet(name string) (*PlanetDef, error) {
	p, ok := s.Planets[name]
	if !ok {
		return nil, fmt.Errorf("unknown planet type %q", name)
	}
	return &p, nil
}

// Load reads every definition table from configDir.
func Load(configDir string) (*Snapshot, error) {
	var s Snapshot

	if err := loadTiles(filepath.Join(configDir, "tiles.json"), &s); err != nil {
		return nil, err
	}
	if err := loadBiomes(filepath.Join(configDir, "biomes.json"), &s); err != nil {
		return nil, err
	}
	if err := loadAutotiles(filepath.Join(configDir, "autotiles.json"), &s); err != nil {
		return nil, err
	}
	if err := loadPlanets(filepath.Join(configDir, "planets.yaml"), &s); err != nil {
		return nil, err
	}

	sum := sha256.New()
	for _, d := range []string{s.Tiles.Digest, s.Biomes.Digest, s.Autotiles.Digest} {
		sum.Write([]byte(d))
	}
	s.Digest = hex.EncodeToString(sum.Sum(nil))
	return &s, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTiles(path string, s *Snapshot) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []TileDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	// The air def is forced to id 0 regardless of file order.
	for i, d := range defs {
		if d.ID == "air" && i != 0 {
			defs[0], defs[i] = defs[i], defs[0]
			break
		}
	}
	reg, err := NewTileRegistry(defs)
	if err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	reg.Digest = sha256Hex(raw)
	s.Tiles = reg
	return nil
}

func loadBiomes(path string, s *Snapshot) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var files []biomeFile
	if err := json.Unmarshal(raw, &files); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	defs := make([]BiomeDef, 0, len(files))
	for _, f := range files {
		surface, err := s.Tiles.Resolve(f.SurfaceTile)
		if err != nil {
			return fmt.Errorf("biomes.json: biome %q: %w", f.ID, err)
		}
		subsurface, err := s.Tiles.Resolve(f.SubsurfaceTile)
		if err != nil {
			return fmt.Errorf("biomes.json: biome %q: %w", f.ID, err)
		}
		fill, err := s.Tiles.Resolve(f.FillTile)
		if err != nil {
			return fmt.Errorf("biomes.json: biome %q: %w", f.ID, err)
		}
		defs = append(defs, BiomeDef{
			ID:              f.ID,
			SurfaceTile:     surface,
			SubsurfaceTile:  subsurface,
			SubsurfaceDepth: f.SubsurfaceDepth,
			FillTile:        fill,
			CaveThreshold:   f.CaveThreshold,
			Backdrop:        f.Backdrop,
		})
	}
	reg, err := NewBiomeRegistry(defs)
	if err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	reg.Digest = sha256Hex(raw)
	s.Biomes = reg
	return nil
}

func loadAutotiles(path string, s *Snapshot) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file map[string]map[string][]Variant
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("autotiles.json: %w", err)
	}
	groups := make(map[string]map[uint8][]Variant, len(file))
	for name, table := range file {
		masks := make(map[uint8][]Variant, len(table))
		for key, variants := range table {
			mask, err := strconv.ParseUint(key, 10, 8)
			if err != nil {
				return fmt.Errorf("autotiles.json: group %q: bad bitmask key %q", name, key)
			}
			masks[uint8(mask)] = variants
		}
		groups[name] = masks
	}
	reg, err := NewAutotileRegistry(groups)
	if err != nil {
		return fmt.Errorf("autotiles.json: %w", err)
	}
	reg.Digest = sha256Hex(raw)

	// Every autotile group referenced by a tile def must exist.
	for _, d := range s.Tiles.Defs {
		if d.Autotile != "" {
			if _, ok := reg.groups[d.Autotile]; !ok {
				return fmt.Errorf("autotiles.json: tile %q references missing group %q", d.ID, d.Autotile)
			}
		}
	}
	s.Autotiles = reg
	return nil
}

func loadPlanets(path string, s *Snapshot) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file planetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("planets.yaml: %w", err)
	}
	if len(file.Planets) == 0 {
		return fmt.Errorf("planets.yaml: no planet types")
	}
	for name, p := range file.Planets {
		if err := p.validate(name, s.Biomes); err != nil {
			return fmt.Errorf("planets.yaml: %w", err)
		}
	}
	s.Planets = file.Planets
	return nil
}
