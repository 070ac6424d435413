package world

import (
	"math"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	surfaceBase = 0.7 // baseline surface height as a fraction of world height

	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

// NoiseCache holds the seed-keyed noise generators. Built once per seed and
// reused for every tile; rebuilt only when the seed changes on hot-reload.
type NoiseCache struct {
	surface *perlin.Perlin
	cave    opensimplex.Noise
}

func NewNoiseCache(seed int64) *NoiseCache {
	return &NoiseCache{
		surface: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		cave:    opensimplex.New(seed + 1),
	}
}

// circleXY maps a wrapped tile x onto a circle whose circumference matches
// the world width at the given frequency. Sampling 2D noise on that circle
// makes every x-periodic quantity seamless across the wrap seam.
func circleXY(x, widthTiles int, frequency float64) (float64, float64) {
	angle := float64(x) / float64(widthTiles) * 2 * math.Pi
	radius := float64(widthTiles) * frequency / (2 * math.Pi)
	return radius * math.Cos(angle), radius * math.Sin(angle)
}

// SurfaceHeight returns the terrain heightline at tile x: the baseline
// perturbed by circle-mapped surface noise.
func (n *NoiseCache) SurfaceHeight(x int, cfg *Config, frequency, amplitude float64) int {
	base := surfaceBase * float64(cfg.HeightTiles)
	nx, ny := circleXY(x, cfg.WidthTiles, frequency)
	return int(base + n.surface.Noise2D(nx, ny)*amplitude)
}

// CaveValue samples the 3D cave field at a tile position. Magnitudes under
// a biome's cave threshold carve air.
func (n *NoiseCache) CaveValue(x, y int, cfg *Config, frequency float64) float64 {
	nx, ny := circleXY(x, cfg.WidthTiles, frequency)
	return n.cave.Eval3(nx, ny, float64(y)*frequency)
}
