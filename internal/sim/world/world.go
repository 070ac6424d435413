package world

import (
	"fmt"

	"tileplanet/internal/registry"
)

// World ties config, content registries, the biome layout, noise and the
// chunk store into one simulation state. All methods must be called from
// the loop goroutine; see Run.
type World struct {
	cfg    *Config
	reg    *registry.Snapshot
	planet *registry.PlanetDef
	biomes *BiomeMap
	noise  *NoiseCache
	ctx    *Ctx
	store  *ChunkStore

	edits  []EditDelta
	onEdit func(EditDelta)
}

// EditDelta records one manual tile change, in wrapped coordinates.
// The journal replays these in order on top of generated terrain.
type EditDelta struct {
	X     int             `json:"x"`
	Y     int             `json:"y"`
	Layer Layer           `json:"layer"`
	Tile  registry.TileID `json:"tile"`
}

func New(cfg *Config, reg *registry.Snapshot) (*World, error) {
	planet, err := reg.Planet(cfg.PlanetType)
	if err != nil {
		return nil, err
	}
	biomes, err := GenerateBiomeMap(BiomeMapParams{
		Primary:      planet.PrimaryBiome,
		Secondaries:  planet.SecondaryBiomes,
		Seed:         uint64(cfg.Seed),
		WorldWidth:   cfg.WidthTiles,
		RegionMin:    planet.RegionWidthMin,
		RegionMax:    planet.RegionWidthMax,
		PrimaryRatio: planet.PrimaryRegionRatio,
	}, reg.Biomes)
	if err != nil {
		return nil, fmt.Errorf("planet %q: %w", cfg.PlanetType, err)
	}

	ctx := &Ctx{
		Config:   cfg,
		Reg:      reg,
		Planet:   planet,
		BiomeMap: biomes,
		Noise:    NewNoiseCache(cfg.Seed),
	}
	return &World{
		cfg:    cfg,
		reg:    reg,
		planet: planet,
		biomes: biomes,
		noise:  ctx.Noise,
		ctx:    ctx,
		store:  NewChunkStore(ctx),
	}, nil
}

func (w *World) Config() *Config              { return w.cfg }
func (w *World) Registry() *registry.Snapshot { return w.reg }
func (w *World) Biomes() *BiomeMap            { return w.biomes }
func (w *World) Store() *ChunkStore           { return w.store }

// Edits returns the manual-edit journal accumulated since startup or the
// last replay, oldest first. The slice is shared; callers must not
// mutate it.
func (w *World) Edits() []EditDelta { return w.edits }

// SetEditHook installs a callback fired for each new edit, on the loop
// goroutine. Replayed edits do not fire it; they are already durable.
func (w *World) SetEditHook(fn func(EditDelta)) { w.onEdit = fn }

// MaterializeChunk generates a chunk if needed and brings its derived
// data (autotile masks, lighting) up to date. This is the entry point
// for interest-driven loading.
func (w *World) MaterializeChunk(key ChunkKey) *Chunk {
	key = w.store.wrapKey(key)
	if w.store.Resident(key) {
		return w.store.Chunk(key)
	}
	ch := w.store.GetOrGenerate(key)
	w.store.ComputeChunkBitmasks(key, LayerFg)
	w.store.ComputeChunkBitmasks(key, LayerBg)
	ch.Light = w.store.ComputeChunkLighting(key)
	return ch
}

// EditTile applies one manual tile change and refreshes every derived
// value it invalidates. Returns the keys of all chunks whose visible
// state changed, sorted, so callers can forward dirty notifications.
// Writes outside the vertical range and writes that do not change the
// stored tile touch nothing and return nil.
func (w *World) EditTile(x, y int, l Layer, id registry.TileID) []ChunkKey {
	if y < 0 || y >= w.cfg.HeightTiles {
		return nil
	}
	x = w.cfg.WrapTileX(x)
	if cur, ok := w.store.GetTile(x, y, l); ok && cur == id {
		return nil
	}

	w.store.SetTile(x, y, l, id)
	delta := EditDelta{X: x, Y: y, Layer: l, Tile: id}
	w.edits = append(w.edits, delta)
	if w.onEdit != nil {
		w.onEdit(delta)
	}

	dirty := map[ChunkKey]struct{}{}
	for _, k := range w.store.UpdateBitmasksAround(x, y, l) {
		dirty[k] = struct{}{}
	}
	for _, k := range w.store.RelightAround(x, y) {
		dirty[k] = struct{}{}
	}
	dirty[w.store.wrapKey(TileToChunk(x, y, w.cfg.ChunkSize))] = struct{}{}
	return sortedKeys(dirty)
}

// ReplayEdits re-applies journaled deltas on top of generated terrain,
// then recomputes derived data once per touched chunk instead of per
// edit.
func (w *World) ReplayEdits(deltas []EditDelta) {
	touched := map[ChunkKey]struct{}{}
	for _, d := range deltas {
		if d.Y < 0 || d.Y >= w.cfg.HeightTiles {
			continue
		}
		x := w.cfg.WrapTileX(d.X)
		w.store.SetTile(x, d.Y, d.Layer, d.Tile)
		w.edits = append(w.edits, EditDelta{X: x, Y: d.Y, Layer: d.Layer, Tile: d.Tile})
		touched[w.store.wrapKey(TileToChunk(x, d.Y, w.cfg.ChunkSize))] = struct{}{}
	}
	for key := range touched {
		w.store.ComputeChunkBitmasks(key, LayerFg)
		w.store.ComputeChunkBitmasks(key, LayerBg)
	}
	for key := range touched {
		if ch := w.store.Chunk(key); ch != nil {
			ch.Light = w.store.ComputeChunkLighting(key)
		}
	}
}

// ChunkView is a copy of one chunk's visible state, safe to hand to
// other goroutines.
type ChunkView struct {
	Key     ChunkKey
	FgTiles []registry.TileID
	FgMasks []uint8
	BgTiles []registry.TileID
	BgMasks []uint8
	Light   []registry.RGB
}

// ChunkSnapshot materializes a chunk and returns a deep copy of it.
func (w *World) ChunkSnapshot(key ChunkKey) ChunkView {
	ch := w.MaterializeChunk(key)
	return ChunkView{
		Key:     ch.Key,
		FgTiles: append([]registry.TileID(nil), ch.Fg.Tiles...),
		FgMasks: append([]uint8(nil), ch.Fg.Mask...),
		BgTiles: append([]registry.TileID(nil), ch.Bg.Tiles...),
		BgMasks: append([]uint8(nil), ch.Bg.Mask...),
		Light:   append([]registry.RGB(nil), ch.Light...),
	}
}

// ApplyRegistrySnapshot swaps in reloaded content registries. All cached
// chunks are dropped and the generation pipeline is rebuilt; resident
// state regenerates lazily under the new content. Manual edits survive
// because the journal is replayed on the fresh store.
func (w *World) ApplyRegistrySnapshot(reg *registry.Snapshot) error {
	planet, err := reg.Planet(w.cfg.PlanetType)
	if err != nil {
		return err
	}
	biomes, err := GenerateBiomeMap(BiomeMapParams{
		Primary:      planet.PrimaryBiome,
		Secondaries:  planet.SecondaryBiomes,
		Seed:         uint64(w.cfg.Seed),
		WorldWidth:   w.cfg.WidthTiles,
		RegionMin:    planet.RegionWidthMin,
		RegionMax:    planet.RegionWidthMax,
		PrimaryRatio: planet.PrimaryRegionRatio,
	}, reg.Biomes)
	if err != nil {
		return fmt.Errorf("planet %q: %w", w.cfg.PlanetType, err)
	}

	w.reg = reg
	w.planet = planet
	w.biomes = biomes
	w.noise = NewNoiseCache(w.cfg.Seed)
	w.ctx = &Ctx{
		Config:   w.cfg,
		Reg:      reg,
		Planet:   planet,
		BiomeMap: biomes,
		Noise:    w.noise,
	}
	w.store = NewChunkStore(w.ctx)

	replay := w.edits
	w.edits = nil
	w.ReplayEdits(replay)
	return nil
}
