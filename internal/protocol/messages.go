package protocol

// BOOTSTRAP (server -> client, first message on connect)
type BootstrapMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	Palettes        Palettes    `json:"palettes"`
}

type WorldParams struct {
	WidthTiles  int    `json:"width_tiles"`
	HeightTiles int    `json:"height_tiles"`
	ChunkSize   int    `json:"chunk_size"`
	Seed        int64  `json:"seed"`
	PlanetType  string `json:"planet_type"`
}

// Palettes carry the ordered id lists plus content digests so clients can
// detect stale caches after a hot reload.
type Palettes struct {
	Tiles          []string `json:"tiles"`
	TilesDigest    string   `json:"tiles_digest"`
	Biomes         []string `json:"biomes"`
	BiomesDigest   string   `json:"biomes_digest"`
	AutotileDigest string   `json:"autotile_digest"`
}

// SUBSCRIBE (client -> server)
type SubscribeMsg struct {
	Type   string     `json:"type"`
	Chunks []ChunkRef `json:"chunks"`
}

type ChunkRef struct {
	CX int `json:"cx"`
	CY int `json:"cy"`
}

// CHUNK (server -> client)
// Planes are run-length encoded; see internal/sim/encoding.
type ChunkMsg struct {
	Type    string `json:"type"`
	CX      int    `json:"cx"`
	CY      int    `json:"cy"`
	FgTiles string `json:"fg_tiles"`
	FgMasks string `json:"fg_masks"`
	BgTiles string `json:"bg_tiles"`
	BgMasks string `json:"bg_masks"`
	Light   string `json:"light"`
}

// EDIT (client -> server)
type EditMsg struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Layer int    `json:"layer"`
	Tile  uint16 `json:"tile"`
}

// DIRTY (server -> client, after any accepted edit)
type DirtyMsg struct {
	Type   string     `json:"type"`
	Chunks []ChunkRef `json:"chunks"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrBadMessage  = "bad_message"
	ErrBadEdit     = "bad_edit"
	ErrUnknownType = "unknown_type"
)
