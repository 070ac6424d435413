package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world"
)

const Version = 1

type Header struct {
	Version    int    `json:"version"`
	PlanetType string `json:"planet_type"`
}

// SnapshotV1 captures everything needed to reconstruct a world:
// generation parameters plus the manual edit journal. Generated terrain
// is not stored; it is a pure function of the parameters.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed        int64  `json:"seed"`
	WidthTiles  int    `json:"width_tiles"`
	HeightTiles int    `json:"height_tiles"`
	ChunkSize   int    `json:"chunk_size"`
	PlanetType  string `json:"planet_type"`

	// Content digest at capture time, so a restore against changed
	// registries can warn before replaying edits with stale tile ids.
	RegistryDigest string `json:"registry_digest"`

	Edits []EditV1 `json:"edits"`
}

type EditV1 struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Layer int    `json:"layer"`
	Tile  uint16 `json:"tile"`
}

// Capture builds a snapshot from a config and the live edit journal.
func Capture(cfg *world.Config, registryDigest string, edits []world.EditDelta) SnapshotV1 {
	out := SnapshotV1{
		Header:         Header{Version: Version, PlanetType: cfg.PlanetType},
		Seed:           cfg.Seed,
		WidthTiles:     cfg.WidthTiles,
		HeightTiles:    cfg.HeightTiles,
		ChunkSize:      cfg.ChunkSize,
		PlanetType:     cfg.PlanetType,
		RegistryDigest: registryDigest,
		Edits:          make([]EditV1, len(edits)),
	}
	for i, d := range edits {
		out.Edits[i] = EditV1{X: d.X, Y: d.Y, Layer: int(d.Layer), Tile: uint16(d.Tile)}
	}
	return out
}

// Deltas converts the stored edits back into replayable form.
func (s *SnapshotV1) Deltas() []world.EditDelta {
	out := make([]world.EditDelta, len(s.Edits))
	for i, e := range s.Edits {
		out[i] = world.EditDelta{X: e.X, Y: e.Y, Layer: world.Layer(e.Layer), Tile: registry.TileID(e.Tile)}
	}
	return out
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line; gob carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
