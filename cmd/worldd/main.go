package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tileplanet/internal/persistence/editlog"
	"tileplanet/internal/persistence/snapshot"
	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world"
	"tileplanet/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", "127.0.0.1:8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		worldPath   = flag.String("world_config", "", "world config path (default: <configs>/world.yaml)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		seed        = flag.Int64("seed", 0, "seed override (0 keeps the config value)")
		snapPath    = flag.String("snapshot", "", "snapshot to restore edits from (optional)")
		enablePprof = flag.Bool("pprof", false, "expose pprof endpoints")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[worldd] ", log.LstdFlags|log.Lmicroseconds)

	reg, err := registry.Load(*configDir)
	if err != nil {
		logger.Fatalf("load registries: %v", err)
	}

	wp := strings.TrimSpace(*worldPath)
	if wp == "" {
		wp = filepath.Join(*configDir, "world.yaml")
	}
	cfg, err := world.LoadConfig(wp)
	if err != nil {
		logger.Fatalf("load world config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	// An explicit snapshot overrides config parameters so the journal it
	// carries replays onto the same world.
	var restored []world.EditDelta
	if sp := strings.TrimSpace(*snapPath); sp != "" {
		snap, err := snapshot.ReadSnapshot(sp)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.RegistryDigest != "" && snap.RegistryDigest != reg.Digest {
			logger.Printf("snapshot registry digest %s differs from loaded %s; tile ids may have shifted",
				snap.RegistryDigest, reg.Digest)
		}
		cfg.Seed = snap.Seed
		cfg.WidthTiles = snap.WidthTiles
		cfg.HeightTiles = snap.HeightTiles
		cfg.ChunkSize = snap.ChunkSize
		cfg.PlanetType = snap.PlanetType
		restored = snap.Deltas()
		logger.Printf("restoring %d edits from snapshot %s", len(restored), filepath.Base(sp))
	}

	w, err := world.New(cfg, reg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if len(restored) > 0 {
		w.ReplayEdits(restored)
	}

	journal, err := editlog.Open(filepath.Join(*dataDir, "edits.db"), cfg)
	if err != nil {
		logger.Fatalf("open edit log: %v", err)
	}
	defer journal.Close()

	journaled, err := journal.Edits()
	if err != nil {
		logger.Fatalf("read edit log: %v", err)
	}
	if len(journaled) > 0 {
		w.ReplayEdits(journaled)
		logger.Printf("replayed %d journaled edits", len(journaled))
	} else if len(restored) > 0 {
		// Seed a fresh journal with the restored deltas so the closing
		// snapshot keeps them.
		for _, d := range restored {
			if err := journal.Append(d); err != nil {
				logger.Fatalf("seed edit log: %v", err)
			}
		}
	}

	w.SetEditHook(func(d world.EditDelta) {
		if err := journal.Append(d); err != nil {
			logger.Printf("journal edit: %v", err)
		}
	})

	loop := world.NewLoop(w)

	ctx, cancel := signalContext()
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world loop stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/reload", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		fresh, err := registry.Load(*configDir)
		rw.Header().Set("Content-Type", "application/json")
		if err == nil {
			err = loop.Reload(fresh)
		}
		if err != nil {
			rw.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		logger.Printf("registries reloaded, digest %s", fresh.Digest)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "digest": fresh.Digest})
	})
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	obsSrv := observer.NewServer(cfg, loop, logger)
	obsSrv.Routes(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world %dx%d seed=%d planet=%s listening on %s",
		cfg.WidthTiles, cfg.HeightTiles, cfg.Seed, cfg.PlanetType, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	<-loopDone

	// Final snapshot alongside the journal.
	snapOut := filepath.Join(*dataDir, "snapshots", fmt.Sprintf("world-%d.snap.zst", time.Now().Unix()))
	edits, err := journal.Edits()
	if err != nil {
		logger.Printf("read edit log for snapshot: %v", err)
		return
	}
	if err := snapshot.WriteSnapshot(snapOut, snapshot.Capture(cfg, reg.Digest, edits)); err != nil {
		logger.Printf("write snapshot: %v", err)
		return
	}
	logger.Printf("wrote snapshot %s", snapOut)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
