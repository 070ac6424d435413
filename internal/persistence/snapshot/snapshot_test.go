package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"

	"tileplanet/internal/sim/world"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cfg := &world.Config{
		WidthTiles:  2048,
		HeightTiles: 1024,
		ChunkSize:   32,
		Seed:        1337,
		PlanetType:  "garden",
	}
	edits := []world.EditDelta{
		{X: 100, Y: 716, Layer: world.LayerFg, Tile: 0},
		{X: 100, Y: 716, Layer: world.LayerFg, Tile: 6},
		{X: 2047, Y: 10, Layer: world.LayerBg, Tile: 1},
	}
	snap := Capture(cfg, "deadbeef", edits)

	path := filepath.Join(t.TempDir(), "world.snap.zst")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	if got.Seed != cfg.Seed || got.WidthTiles != cfg.WidthTiles || got.PlanetType != cfg.PlanetType {
		t.Fatalf("parameters lost: %+v", got)
	}
	if got.RegistryDigest != "deadbeef" {
		t.Fatalf("digest = %q", got.RegistryDigest)
	}
	if !reflect.DeepEqual(got.Deltas(), edits) {
		t.Fatalf("edits roundtrip: got %+v, want %+v", got.Deltas(), edits)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	snap := Capture(&world.Config{PlanetType: "garden"}, "", nil)
	snap.Header.Version = 99

	path := filepath.Join(t.TempDir(), "world.snap.zst")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
