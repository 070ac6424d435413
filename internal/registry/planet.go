package registry

import "fmt"

// LayerConfig sets generation parameters for one vertical band.
// An empty PrimaryBiome defers to the band's default (surface defers to
// the biome map).
type LayerConfig struct {
	PrimaryBiome     string  `yaml:"primary_biome,omitempty"`
	TerrainFrequency float64 `yaml:"terrain_frequency"`
	TerrainAmplitude float64 `yaml:"terrain_amplitude"`
}

type LayerConfigs struct {
	Surface         LayerConfig `yaml:"surface"`
	Underground     LayerConfig `yaml:"underground"`
	DeepUnderground LayerConfig `yaml:"deep_underground"`
	Core            LayerConfig `yaml:"core"`
}

// PlanetDef describes one planet type: its biome palette and the
// horizontal region layout parameters.
type PlanetDef struct {
	PrimaryBiome       string       `yaml:"primary_biome"`
	SecondaryBiomes    []string     `yaml:"secondary_biomes"`
	RegionWidthMin     int          `yaml:"region_width_min"`
	RegionWidthMax     int          `yaml:"region_width_max"`
	PrimaryRegionRatio float64      `yaml:"primary_region_ratio"`
	Layers             LayerConfigs `yaml:"layers"`
}

type planetFile struct {
	Planets map[string]PlanetDef `yaml:"planets"`
}

func (p *PlanetDef) validate(name string, biomes *BiomeRegistry) error {
	if p.PrimaryBiome == "" {
		return fmt.Errorf("planet %q: missing primary_biome", name)
	}
	if len(p.SecondaryBiomes) == 0 {
		return fmt.Errorf("planet %q: need at least one secondary biome", name)
	}
	if p.RegionWidthMin <= 0 || p.RegionWidthMax < p.RegionWidthMin {
		return fmt.Errorf("planet %q: bad region widths [%d, %d]", name, p.RegionWidthMin, p.RegionWidthMax)
	}
	if p.PrimaryRegionRatio <= 0 || p.PrimaryRegionRatio >= 1 {
		return fmt.Errorf("planet %q: primary_region_ratio %v outside (0,1)", name, p.PrimaryRegionRatio)
	}
	for _, b := range append([]string{p.PrimaryBiome}, p.SecondaryBiomes...) {
		if _, err := biomes.Resolve(b); err != nil {
			return fmt.Errorf("planet %q: %w", name, err)
		}
	}
	for _, lc := range []LayerConfig{p.Layers.Underground, p.Layers.DeepUnderground, p.Layers.Core} {
		if lc.PrimaryBiome != "" {
			if _, err := biomes.Resolve(lc.PrimaryBiome); err != nil {
				return fmt.Errorf("planet %q: %w", name, err)
			}
		}
	}
	return nil
}
