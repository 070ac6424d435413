package world

import (
	"context"

	"tileplanet/internal/registry"
)

// Loop serializes all World access onto one goroutine. Callers on other
// goroutines (transports, admin surfaces) go through the request
// methods, which block until the loop services them.
type Loop struct {
	world *World

	edit        chan editReq
	snapshot    chan snapshotReq
	materialize chan materializeReq
	edits       chan editsReq
	reload      chan reloadReq
	info        chan infoReq
	stop        chan struct{}
}

// RegistryInfo is the immutable palette summary handed to transports.
// Reading it through the loop keeps it consistent across hot reloads.
type RegistryInfo struct {
	TilePalette    []string
	TilesDigest    string
	BiomePalette   []string
	BiomesDigest   string
	AutotileDigest string
	TileCount      int
}

type editReq struct {
	x, y  int
	layer Layer
	tile  registry.TileID
	reply chan []ChunkKey
}

type snapshotReq struct {
	key   ChunkKey
	reply chan ChunkView
}

type materializeReq struct {
	key   ChunkKey
	reply chan ChunkKey
}

type editsReq struct {
	reply chan []EditDelta
}

type reloadReq struct {
	reg   *registry.Snapshot
	reply chan error
}

type infoReq struct {
	reply chan RegistryInfo
}

func NewLoop(w *World) *Loop {
	return &Loop{
		world:       w,
		edit:        make(chan editReq),
		snapshot:    make(chan snapshotReq),
		materialize: make(chan materializeReq),
		edits:       make(chan editsReq),
		reload:      make(chan reloadReq),
		info:        make(chan infoReq),
		stop:        make(chan struct{}),
	}
}

func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case req := <-l.edit:
			req.reply <- l.world.EditTile(req.x, req.y, req.layer, req.tile)
		case req := <-l.snapshot:
			req.reply <- l.world.ChunkSnapshot(req.key)
		case req := <-l.materialize:
			ch := l.world.MaterializeChunk(req.key)
			req.reply <- ch.Key
		case req := <-l.edits:
			out := make([]EditDelta, len(l.world.Edits()))
			copy(out, l.world.Edits())
			req.reply <- out
		case req := <-l.reload:
			req.reply <- l.world.ApplyRegistrySnapshot(req.reg)
		case req := <-l.info:
			reg := l.world.Registry()
			req.reply <- RegistryInfo{
				TilePalette:    reg.Tiles.Palette(),
				TilesDigest:    reg.Tiles.Digest,
				BiomePalette:   reg.Biomes.Palette(),
				BiomesDigest:   reg.Biomes.Digest,
				AutotileDigest: reg.Autotiles.Digest,
				TileCount:      reg.Tiles.Len(),
			}
		}
	}
}

func (l *Loop) Stop() { close(l.stop) }

// EditTile applies one tile edit on the loop goroutine and returns the
// chunks whose visible state changed.
func (l *Loop) EditTile(x, y int, layer Layer, tile registry.TileID) []ChunkKey {
	req := editReq{x: x, y: y, layer: layer, tile: tile, reply: make(chan []ChunkKey, 1)}
	l.edit <- req
	return <-req.reply
}

// ChunkSnapshot materializes a chunk and returns a deep copy.
func (l *Loop) ChunkSnapshot(key ChunkKey) ChunkView {
	req := snapshotReq{key: key, reply: make(chan ChunkView, 1)}
	l.snapshot <- req
	return <-req.reply
}

// Materialize ensures a chunk is generated and lit; returns its wrapped key.
func (l *Loop) Materialize(key ChunkKey) ChunkKey {
	req := materializeReq{key: key, reply: make(chan ChunkKey, 1)}
	l.materialize <- req
	return <-req.reply
}

// Edits returns a copy of the manual-edit journal.
func (l *Loop) Edits() []EditDelta {
	req := editsReq{reply: make(chan []EditDelta, 1)}
	l.edits <- req
	return <-req.reply
}

// RegistryInfo reads the current palette summary.
func (l *Loop) RegistryInfo() RegistryInfo {
	req := infoReq{reply: make(chan RegistryInfo, 1)}
	l.info <- req
	return <-req.reply
}

// Reload swaps in freshly loaded content registries.
func (l *Loop) Reload(reg *registry.Snapshot) error {
	req := reloadReq{reg: reg, reply: make(chan error, 1)}
	l.reload <- req
	return <-req.reply
}
