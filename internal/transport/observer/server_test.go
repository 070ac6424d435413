package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tileplanet/internal/protocol"
	"tileplanet/internal/registry"
	"tileplanet/internal/sim/encoding"
	"tileplanet/internal/sim/world"
)

func testRegistry(t *testing.T) *registry.Snapshot {
	t.Helper()
	tiles, err := registry.NewTileRegistry([]registry.TileDef{
		{ID: "air"},
		{ID: "stone", Solid: true, Opacity: 15},
		{ID: "torch", Emission: registry.RGB{255, 180, 90}},
	})
	if err != nil {
		t.Fatalf("tiles: %v", err)
	}
	tiles.Digest = "tiles-digest"
	biomes, err := registry.NewBiomeRegistry([]registry.BiomeDef{
		{ID: "meadow", SurfaceTile: 1, SubsurfaceTile: 1, SubsurfaceDepth: 3, FillTile: 1},
		{ID: "desert", SurfaceTile: 1, SubsurfaceTile: 1, SubsurfaceDepth: 3, FillTile: 1},
		{ID: "underground_dirt", FillTile: 1, SurfaceTile: 1, SubsurfaceTile: 1},
		{ID: "underground_rock", FillTile: 1, SurfaceTile: 1, SubsurfaceTile: 1},
		{ID: "core_magma", FillTile: 1, SurfaceTile: 1, SubsurfaceTile: 1},
	})
	if err != nil {
		t.Fatalf("biomes: %v", err)
	}
	autotiles, err := registry.NewAutotileRegistry(map[string]map[uint8][]registry.Variant{})
	if err != nil {
		t.Fatalf("autotiles: %v", err)
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
					Surface: registry.LayerConfig{TerrainFrequency: 0.05},
				},
			},
		},
	}
}

func startServer(t *testing.T) (*httptest.Server, *world.Config, context.CancelFunc) {
	t.Helper()
	cfg := &world.Config{
		WidthTiles:  256,
		HeightTiles: 128,
		ChunkSize:   32,
		Seed:        7,
		PlanetType:  "garden",
		BedrockTile: "stone",
	}
	w, err := world.New(cfg, testRegistry(t))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	loop := world.NewLoop(w)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	srv := NewServer(cfg, loop, log.New(io.Discard, "", 0))
	mux := http.NewServeMux()
	srv.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	t.Cleanup(cancel)
	return ts, cfg, cancel
}

func TestBootstrapHandler(t *testing.T) {
	ts, cfg, _ := startServer(t)

	resp, err := http.Get(ts.URL + "/observer/bootstrap")
	if err != nil {
		t.Fatalf("GET bootstrap: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var msg protocol.BootstrapMsg
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != protocol.TypeBootstrap || msg.ProtocolVersion != protocol.Version {
		t.Fatalf("unexpected header %+v", msg)
	}
	if msg.WorldParams.WidthTiles != cfg.WidthTiles || msg.WorldParams.Seed != cfg.Seed {
		t.Fatalf("world params %+v", msg.WorldParams)
	}
	if len(msg.Palettes.Tiles) != 3 || msg.Palettes.Tiles[0] != "air" {
		t.Fatalf("tile palette %v", msg.Palettes.Tiles)
	}
}

func TestWSSubscribeAndEdit(t *testing.T) {
	ts, cfg, _ := startServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/observer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readMsg := func() []byte {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return b
	}

	// First frame is the bootstrap.
	base, err := protocol.DecodeBase(readMsg())
	if err != nil || base.Type != protocol.TypeBootstrap {
		t.Fatalf("first frame = %+v, err %v", base, err)
	}

	sub := protocol.SubscribeMsg{
		Type:   protocol.TypeSubscribe,
		Chunks: []protocol.ChunkRef{{CX: 0, CY: 2}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	var chunk protocol.ChunkMsg
	if err := json.Unmarshal(readMsg(), &chunk); err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	if chunk.Type != protocol.TypeChunk || chunk.CX != 0 || chunk.CY != 2 {
		t.Fatalf("chunk header %+v", chunk)
	}
	tiles, err := encoding.DecodeTiles(chunk.FgTiles)
	if err != nil {
		t.Fatalf("decode tiles: %v", err)
	}
	if len(tiles) != cfg.ChunkSize*cfg.ChunkSize {
		t.Fatalf("chunk has %d tiles", len(tiles))
	}

	edit := protocol.EditMsg{Type: protocol.TypeEdit, X: 8, Y: 89, Layer: 0, Tile: 0}
	if err := conn.WriteJSON(edit); err != nil {
		t.Fatalf("write edit: %v", err)
	}
	var dirty protocol.DirtyMsg
	if err := json.Unmarshal(readMsg(), &dirty); err != nil {
		t.Fatalf("decode dirty: %v", err)
	}
	if dirty.Type != protocol.TypeDirty || len(dirty.Chunks) == 0 {
		t.Fatalf("dirty %+v", dirty)
	}
}

func TestWSRejectsBadEdit(t *testing.T) {
	ts, _, _ := startServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/observer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Skip bootstrap frame.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read bootstrap: %v", err)
	}

	edit := protocol.EditMsg{Type: protocol.TypeEdit, X: 8, Y: 89, Layer: 0, Tile: 999}
	if err := conn.WriteJSON(edit); err != nil {
		t.Fatalf("write edit: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var errMsg protocol.ErrorMsg
	if err := json.Unmarshal(b, &errMsg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errMsg.Type != protocol.TypeError || errMsg.Code != protocol.ErrBadEdit {
		t.Fatalf("error msg %+v", errMsg)
	}
}
