package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tileplanet/internal/protocol"
	"tileplanet/internal/registry"
	"tileplanet/internal/sim/encoding"
	"tileplanet/internal/sim/world"
)

const maxSubscribeChunks = 256

// Server exposes the world to local observer clients over HTTP and
// websockets. It is a debug surface and only answers loopback peers.
type Server struct {
	cfg  *world.Config
	loop *world.Loop
	log  *log.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]chan []byte
}

func NewServer(cfg *world.Config, loop *world.Loop, logger *log.Logger) *Server {
	return &Server{
		cfg:  cfg,
		loop: loop,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: map[string]chan []byte{},
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
}

func (s *Server) bootstrapMsg(sessionID string) protocol.BootstrapMsg {
	info := s.loop.RegistryInfo()
	return protocol.BootstrapMsg{
		Type:            protocol.TypeBootstrap,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			WidthTiles:  s.cfg.WidthTiles,
			HeightTiles: s.cfg.HeightTiles,
			ChunkSize:   s.cfg.ChunkSize,
			Seed:        s.cfg.Seed,
			PlanetType:  s.cfg.PlanetType,
		},
		Palettes: protocol.Palettes{
			Tiles:          info.TilePalette,
			TilesDigest:    info.TilesDigest,
			Biomes:         info.BiomePalette,
			BiomesDigest:   info.BiomesDigest,
			AutotileDigest: info.AutotileDigest,
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrapMsg(uuid.NewString()))
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid := uuid.NewString()
		out := make(chan []byte, 4096)
		s.register(sid, out)
		defer s.unregister(sid)

		// Writer goroutine; the reader loop below owns the connection's
		// lifetime.
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for b := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		s.send(out, s.bootstrapMsg(sid))

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(out, msg)
		}

		// Unregister before closing so no broadcast can hit a closed channel.
		s.unregister(sid)
		close(out)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeDone:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) handleMessage(out chan []byte, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(out, protocol.ErrBadMessage, "not valid json")
		return
	}
	switch base.Type {
	case protocol.TypeSubscribe:
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			s.sendError(out, protocol.ErrBadMessage, "bad subscribe")
			return
		}
		chunks := sub.Chunks
		if len(chunks) > maxSubscribeChunks {
			chunks = chunks[:maxSubscribeChunks]
		}
		for _, ref := range chunks {
			if ref.CY < 0 || ref.CY >= s.cfg.HeightChunks() {
				continue
			}
			view := s.loop.ChunkSnapshot(world.ChunkKey{CX: ref.CX, CY: ref.CY})
			s.send(out, encodeChunk(view))
		}
	case protocol.TypeEdit:
		var edit protocol.EditMsg
		if err := json.Unmarshal(msg, &edit); err != nil {
			s.sendError(out, protocol.ErrBadMessage, "bad edit")
			return
		}
		if int(edit.Tile) >= s.loop.RegistryInfo().TileCount {
			s.sendError(out, protocol.ErrBadEdit, "tile id out of range")
			return
		}
		layer := world.LayerFg
		if edit.Layer == 1 {
			layer = world.LayerBg
		}
		dirty := s.loop.EditTile(edit.X, edit.Y, layer, registry.TileID(edit.Tile))
		if len(dirty) == 0 {
			return
		}
		refs := make([]protocol.ChunkRef, len(dirty))
		for i, k := range dirty {
			refs[i] = protocol.ChunkRef{CX: k.CX, CY: k.CY}
		}
		s.broadcast(protocol.DirtyMsg{Type: protocol.TypeDirty, Chunks: refs})
	default:
		s.sendError(out, protocol.ErrUnknownType, base.Type)
	}
}

func tilesToWire(ids []registry.TileID) []uint16 {
	out := make([]uint16, len(ids))
	for i, id := range ids {
		out[i] = uint16(id)
	}
	return out
}

func encodeChunk(view world.ChunkView) protocol.ChunkMsg {
	light := make([][3]uint8, len(view.Light))
	for i, l := range view.Light {
		light[i] = l
	}
	return protocol.ChunkMsg{
		Type:    protocol.TypeChunk,
		CX:      view.Key.CX,
		CY:      view.Key.CY,
		FgTiles: encoding.EncodeTiles(tilesToWire(view.FgTiles)),
		FgMasks: encoding.EncodeBytes(view.FgMasks),
		BgTiles: encoding.EncodeTiles(tilesToWire(view.BgTiles)),
		BgMasks: encoding.EncodeBytes(view.BgMasks),
		Light:   encoding.EncodeRGB(light),
	}
}

func (s *Server) register(sid string, out chan []byte) {
	s.mu.Lock()
	s.sessions[sid] = out
	s.mu.Unlock()
	s.log.Printf("observer %s connected", sid)
}

func (s *Server) unregister(sid string) {
	s.mu.Lock()
	_, ok := s.sessions[sid]
	delete(s.sessions, sid)
	s.mu.Unlock()
	if ok {
		s.log.Printf("observer %s disconnected", sid)
	}
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
		// Slow consumer; it can re-subscribe.
	}
}

func (s *Server) sendError(out chan []byte, code, message string) {
	s.send(out, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}

func (s *Server) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.sessions {
		select {
		case out <- b:
		default:
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
