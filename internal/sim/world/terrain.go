package world

import (
	"tileplanet/internal/registry"
)

// Band is one of the four fixed vertical generation bands, bottom-up.
type Band int

const (
	BandCore Band = iota
	BandDeepUnderground
	BandUnderground
	BandSurface
)

// Band boundaries as fractions of world height, from the bottom:
// core 0-12%, deep underground 12-37%, underground 37-70%, surface 70-100%.
func BandForY(y, heightTiles int) Band {
	ratio := float64(y) / float64(heightTiles)
	switch {
	case ratio < 0.12:
		return BandCore
	case ratio < 0.37:
		return BandDeepUnderground
	case ratio < 0.70:
		return BandUnderground
	default:
		return BandSurface
	}
}

// Fallback band biomes when a planet's layer config names none.
const (
	defaultUndergroundBiome     = "underground_dirt"
	defaultDeepUndergroundBiome = "underground_rock"
	defaultCoreBiome            = "core_magma"
)

// Ctx is the read-only bundle of everything generation needs: config,
// registry snapshot, planet type, biome layout and the noise cache.
// It carries no mutable state; the ChunkStore is threaded separately.
type Ctx struct {
	Config   *Config
	Reg      *registry.Snapshot
	Planet   *registry.PlanetDef
	BiomeMap *BiomeMap
	Noise    *NoiseCache
}

func (c *Ctx) layerConfig(b Band) *registry.LayerConfig {
	switch b {
	case BandCore:
		return &c.Planet.Layers.Core
	case BandDeepUnderground:
		return &c.Planet.Layers.DeepUnderground
	case BandUnderground:
		return &c.Planet.Layers.Underground
	default:
		return &c.Planet.Layers.Surface
	}
}

func (c *Ctx) bandBiome(b Band, x int) registry.BiomeID {
	lc := c.layerConfig(b)
	name := lc.PrimaryBiome
	if b == BandSurface {
		// The surface band has no override: the horizontal layout decides.
		return c.BiomeMap.BiomeAt(x)
	}
	if name == "" {
		switch b {
		case BandUnderground:
			name = defaultUndergroundBiome
		case BandDeepUnderground:
			name = defaultDeepUndergroundBiome
		default:
			name = defaultCoreBiome
		}
	}
	return c.Reg.Biomes.ByName(name)
}

// SurfaceHeight returns the heightline at tile x using the surface band's
// noise parameters.
func (c *Ctx) SurfaceHeight(x int) int {
	lc := &c.Planet.Layers.Surface
	return c.Noise.SurfaceHeight(c.Config.WrapTileX(x), c.Config, lc.TerrainFrequency, lc.TerrainAmplitude)
}

// GenerateTile is the pure foreground generation function: the tile at
// (x, y) given only seed-derived state. Y bounds are the caller's
// responsibility; out-of-band y simply yields air here.
func GenerateTile(ctx *Ctx, x, y int) registry.TileID {
	cfg := ctx.Config
	if y < 0 || y >= cfg.HeightTiles {
		return registry.Air
	}
	x = cfg.WrapTileX(x)

	band := BandForY(y, cfg.HeightTiles)
	biome := ctx.Reg.Biomes.Get(ctx.bandBiome(band, x))

	surfaceY := ctx.SurfaceHeight(x)
	if y > surfaceY {
		return registry.Air
	}

	// Surface and subsurface blocks always come from the horizontal biome
	// layout, since the heightline can straddle band boundaries.
	surfaceBiome := ctx.Reg.Biomes.Get(ctx.BiomeMap.BiomeAt(x))
	if y == surfaceY {
		return surfaceBiome.SurfaceTile
	}
	if y > surfaceY-surfaceBiome.SubsurfaceDepth {
		return surfaceBiome.SubsurfaceTile
	}

	// Cave carving with the band's own frequency.
	caveVal := ctx.Noise.CaveValue(x, y, cfg, ctx.layerConfig(band).TerrainFrequency)
	if abs64(caveVal) < biome.CaveThreshold {
		return registry.Air
	}
	return biome.FillTile
}

// GenerateBackgroundTile produces the background wall at (x, y). Walls
// follow the same terrain shape but are not carved by caves, so open
// pockets keep a backdrop.
func GenerateBackgroundTile(ctx *Ctx, x, y int) registry.TileID {
	cfg := ctx.Config
	if y < 0 || y >= cfg.HeightTiles {
		return registry.Air
	}
	x = cfg.WrapTileX(x)

	surfaceY := ctx.SurfaceHeight(x)
	if y >= surfaceY {
		return registry.Air
	}

	surfaceBiome := ctx.Reg.Biomes.Get(ctx.BiomeMap.BiomeAt(x))
	if y > surfaceY-surfaceBiome.SubsurfaceDepth {
		return surfaceBiome.SubsurfaceTile
	}
	band := BandForY(y, cfg.HeightTiles)
	return ctx.Reg.Biomes.Get(ctx.bandBiome(band, x)).FillTile
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
