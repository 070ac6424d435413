package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tileplanet/internal/sim/world/logic/mathx"
)

// Config holds the world dimensions and generation inputs. Width wraps
// cylindrically; height does not.
type Config struct {
	WidthTiles  int    `yaml:"width_tiles"`
	HeightTiles int    `yaml:"height_tiles"`
	ChunkSize   int    `yaml:"chunk_size"`
	Seed        int64  `yaml:"seed"`
	PlanetType  string `yaml:"planet_type"`
	BedrockTile string `yaml:"bedrock_tile"`
}

func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 32
	}
	if c.PlanetType == "" {
		c.PlanetType = "garden"
	}
	if c.BedrockTile == "" {
		c.BedrockTile = "stone"
	}
}

func (c *Config) validate() error {
	if c.WidthTiles <= 0 || c.HeightTiles <= 0 {
		return fmt.Errorf("world config: non-positive dimensions %dx%d", c.WidthTiles, c.HeightTiles)
	}
	if c.WidthTiles%c.ChunkSize != 0 || c.HeightTiles%c.ChunkSize != 0 {
		return fmt.Errorf("world config: dimensions %dx%d not divisible by chunk size %d",
			c.WidthTiles, c.HeightTiles, c.ChunkSize)
	}
	return nil
}

func (c *Config) WidthChunks() int  { return c.WidthTiles / c.ChunkSize }
func (c *Config) HeightChunks() int { return c.HeightTiles / c.ChunkSize }

// WrapTileX maps any tile x onto [0, WidthTiles).
func (c *Config) WrapTileX(x int) int {
	return mathx.Mod(x, c.WidthTiles)
}

// WrapChunkX maps any chunk x onto [0, WidthChunks()).
func (c *Config) WrapChunkX(cx int) int {
	return mathx.Mod(cx, c.WidthChunks())
}
