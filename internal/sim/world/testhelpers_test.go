package world

import (
	"testing"

	"tileplanet/internal/registry"
)

// Fixture tile ids, matching the def order in testSnapshot.
const (
	tStone registry.TileID = 1
	tDirt  registry.TileID = 2
	tGrass registry.TileID = 3
	tSand  registry.TileID = 4
	tTorch registry.TileID = 5
)

var torchEmission = registry.RGB{255, 180, 90}

func testSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()

	tiles, err := registry.NewTileRegistry([]registry.TileDef{
		{ID: "air"},
		{ID: "stone", Solid: true, Hardness: 3, Opacity: 15, Autotile: "stone"},
		{ID: "dirt", Solid: true, Hardness: 1, Opacity: 15, Autotile: "dirt"},
		{ID: "grass", Solid: true, Hardness: 1, Opacity: 15, Autotile: "grass"},
		{ID: "sand", Solid: true, Hardness: 0.5, Opacity: 15, Autotile: "dirt"},
		{ID: "torch", Opacity: 0, Emission: torchEmission},
	})
	if err != nil {
		t.Fatalf("tile registry: %v", err)
	}

	biomes, err := registry.NewBiomeRegistry([]registry.BiomeDef{
		{ID: "meadow", SurfaceTile: tGrass, SubsurfaceTile: tDirt, SubsurfaceDepth: 3, FillTile: tStone},
		{ID: "desert", SurfaceTile: tSand, SubsurfaceTile: tSand, SubsurfaceDepth: 4, FillTile: tStone},
		{ID: "rocky", SurfaceTile: tStone, SubsurfaceTile: tStone, SubsurfaceDepth: 2, FillTile: tStone},
		{ID: "underground_dirt", SurfaceTile: tDirt, SubsurfaceTile: tDirt, FillTile: tStone},
		{ID: "underground_rock", SurfaceTile: tStone, SubsurfaceTile: tStone, FillTile: tStone},
		{ID: "core_magma", SurfaceTile: tStone, SubsurfaceTile: tStone, FillTile: tStone},
	})
	if err != nil {
		t.Fatalf("biome registry: %v", err)
	}

	iso := []registry.Variant{{Row: 0, Weight: 1}}
	autotiles, err := registry.NewAutotileRegistry(map[string]map[uint8][]registry.Variant{
		"stone": {0: iso},
		"dirt":  {0: iso},
		"grass": {
			0:   iso,
			255: {{Row: 1, Weight: 3}, {Row: 2, Weight: 1}},
		},
	})
	if err != nil {
		t.Fatalf("autotile registry: %v", err)
	}

	return &registry.Snapshot{
		Tiles:     tiles,
		Biomes:    biomes,
		Autotiles: autotiles,
		Planets: map[string]registry.PlanetDef{
			"garden": {
				PrimaryBiome:       "meadow",
				SecondaryBiomes:    []string{"desert"},
				RegionWidthMin:     64,
				RegionWidthMax:     64,
				PrimaryRegionRatio: 0.6,
				Layers: registry.LayerConfigs{
					// Zero amplitude keeps the surface flat, zero cave
					// thresholds keep the ground solid. Tests that need
					// terrain features carve them with edits.
					Surface:         registry.LayerConfig{TerrainFrequency: 0.05},
					Underground:     registry.LayerConfig{TerrainFrequency: 0.05},
					DeepUnderground: registry.LayerConfig{TerrainFrequency: 0.05},
					Core:            registry.LayerConfig{TerrainFrequency: 0.05},
				},
			},
		},
	}
}

func testConfig() *Config {
	return &Config{
		WidthTiles:  256,
		HeightTiles: 128,
		ChunkSize:   32,
		Seed:        1337,
		PlanetType:  "garden",
		BedrockTile: "stone",
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(testConfig(), testSnapshot(t))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

// flatSurfaceY is where the zero-amplitude fixture puts the heightline.
func flatSurfaceY(cfg *Config) int {
	return int(0.7 * float64(cfg.HeightTiles))
}
