package world

import (
	"context"
	"testing"
	"time"

	"tileplanet/internal/registry"
)

func TestNewRejectsUnknownPlanet(t *testing.T) {
	cfg := testConfig()
	cfg.PlanetType = "gas_giant"
	if _, err := New(cfg, testSnapshot(t)); err == nil {
		t.Fatalf("expected error for unknown planet type")
	}
}

func TestEditJournal(t *testing.T) {
	w := newTestWorld(t)
	surfaceY := flatSurfaceY(w.Config())

	w.EditTile(8, surfaceY, LayerFg, registry.Air)
	w.EditTile(-1, surfaceY, LayerFg, tTorch)
	w.EditTile(8, -5, LayerFg, tTorch) // out of range, not journaled

	edits := w.Edits()
	if len(edits) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(edits))
	}
	if edits[0] != (EditDelta{X: 8, Y: surfaceY, Layer: LayerFg, Tile: registry.Air}) {
		t.Fatalf("first delta = %+v", edits[0])
	}
	// Coordinates are journaled pre-wrapped.
	if edits[1].X != w.Config().WidthTiles-1 {
		t.Fatalf("second delta x = %d, want wrapped", edits[1].X)
	}
}

func TestChunkSnapshotIsDeepCopy(t *testing.T) {
	w := newTestWorld(t)
	key := TileToChunk(8, flatSurfaceY(w.Config()), w.Config().ChunkSize)

	view := w.ChunkSnapshot(key)
	orig := view.FgTiles[0]
	view.FgTiles[0] = tTorch
	view.Light[0] = registry.RGB{1, 2, 3}

	again := w.ChunkSnapshot(key)
	if again.FgTiles[0] != orig {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestReplayEditsRebuildsState(t *testing.T) {
	w := newTestWorld(t)
	surfaceY := flatSurfaceY(w.Config())

	w.EditTile(40, surfaceY-20, LayerFg, registry.Air)
	w.EditTile(40, surfaceY-20, LayerFg, tTorch)
	deltas := append([]EditDelta(nil), w.Edits()...)

	fresh := newTestWorld(t)
	fresh.ReplayEdits(deltas)
	if id, ok := fresh.Store().GetTile(40, surfaceY-20, LayerFg); !ok || id != tTorch {
		t.Fatalf("replayed world tile = (%d, %v), want torch", id, ok)
	}
	if len(fresh.Edits()) != len(deltas) {
		t.Fatalf("replay journaled %d deltas, want %d", len(fresh.Edits()), len(deltas))
	}
}

func TestApplyRegistrySnapshotKeepsEdits(t *testing.T) {
	w := newTestWorld(t)
	surfaceY := flatSurfaceY(w.Config())
	w.EditTile(8, surfaceY, LayerFg, registry.Air)

	if err := w.ApplyRegistrySnapshot(testSnapshot(t)); err != nil {
		t.Fatalf("ApplyRegistrySnapshot: %v", err)
	}
	if id, ok := w.Store().GetTile(8, surfaceY, LayerFg); !ok || id != registry.Air {
		t.Fatalf("edit lost across reload: (%d, %v)", id, ok)
	}
	if len(w.Edits()) != 1 {
		t.Fatalf("journal has %d entries after reload, want 1", len(w.Edits()))
	}
}

func TestApplyRegistrySnapshotDropsChunks(t *testing.T) {
	w := newTestWorld(t)
	w.MaterializeChunk(ChunkKey{CX: 0, CY: 0})
	w.MaterializeChunk(ChunkKey{CX: 1, CY: 1})

	if err := w.ApplyRegistrySnapshot(testSnapshot(t)); err != nil {
		t.Fatalf("ApplyRegistrySnapshot: %v", err)
	}
	if got := len(w.Store().LoadedChunkKeys()); got != 0 {
		t.Fatalf("%d chunks survived a reload with no edits in them", got)
	}
}

func TestLoopServesRequests(t *testing.T) {
	w := newTestWorld(t)
	loop := NewLoop(w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	surfaceY := flatSurfaceY(w.Config())
	if dirty := loop.EditTile(8, surfaceY, LayerFg, registry.Air); len(dirty) == 0 {
		t.Fatalf("loop edit reported no dirty chunks")
	}

	view := loop.ChunkSnapshot(TileToChunk(8, surfaceY, w.Config().ChunkSize))
	lx, ly := TileToLocal(8, surfaceY, w.Config().ChunkSize)
	if got := view.FgTiles[ly*w.Config().ChunkSize+lx]; got != registry.Air {
		t.Fatalf("snapshot shows %d at the edited tile, want air", got)
	}

	if edits := loop.Edits(); len(edits) != 1 {
		t.Fatalf("loop journal has %d entries, want 1", len(edits))
	}
	if err := loop.Reload(testSnapshot(t)); err != nil {
		t.Fatalf("loop reload: %v", err)
	}

	loop.Stop()
	if err := <-done; err != nil {
		t.Fatalf("loop exited with %v", err)
	}
}
