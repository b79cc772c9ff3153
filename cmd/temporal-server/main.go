// Package main is the entry point for the temporal debt game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/engine"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/infra/storage"
	"github.com/SamirShaikh03/temporal-debt/internal/network"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/metrics"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/optimization"
	"github.com/SamirShaikh03/temporal-debt/internal/sim"
)

// SQLitePersisterAdapter translates core notifications to storage events.
type SQLitePersisterAdapter struct {
	repo      *storage.SQLiteEventRepository
	sessionID string
}

func (a *SQLitePersisterAdapter) Append(event events.Event) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	start := time.Now()
	err := a.repo.Append(context.Background(), storage.StoredEvent{
		ID:        event.ID,
		SessionID: a.sessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Payload:   payloadMap,
	})
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

func main() {
	log.Println("[TEMPORAL-SERVER] Initializing authoritative server...")

	appLogger := logger.NewLogger()

	cfgPath := os.Getenv("TEMPORAL_CONFIG")
	if cfgPath == "" {
		cfgPath = "temporal.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	sessionID := uuid.New().String()
	appLogger.Info("Session " + sessionID)

	tuning := optimization.DefaultConfig()

	appLogger.Info("Initializing SQLite database '" + cfg.Server.SQLitePath + "'...")
	db, err := storage.InitSQLite(cfg.Server.SQLitePath, tuning.DBMaxOpenConns, tuning.DBMaxIdleConns)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	eventRepo := storage.NewSQLiteEventRepository(db)
	statsRepo := storage.NewSQLiteStatsRepository(db)
	eventPersister := &SQLitePersisterAdapter{repo: eventRepo, sessionID: sessionID}

	appLogger.Info("Bootstrapping notification bus...")
	bus := events.NewBus(eventPersister)

	appLogger.Info("Bootstrapping temporal core...")
	core, err := engine.NewCore(cfg, bus, appLogger, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		appLogger.Error("Failed to build core: " + err.Error())
		os.Exit(1)
	}

	world := sim.DefaultWorld(rand.New(rand.NewSource(time.Now().UnixNano())))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger, tuning)
	go hub.Run(ctx)
	hub.AttachBus(bus)

	// The sim loop owns core and world; HTTP handlers and the backup
	// routine read through these per-frame caches instead.
	var lastState atomic.Value
	lastState.Store(sim.BuildState(core, world))
	var lastStats atomic.Value
	lastStats.Store(buildRunStats(sessionID, core))

	// Automated run-stats backup routine
	go func() {
		backupTicker := time.NewTicker(5 * time.Second)
		defer backupTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backupTicker.C:
				_ = statsRepo.Upsert(ctx, lastStats.Load().(storage.RunStats))
			}
		}
	}()

	// Simulation loop at the configured frame rate
	go func() {
		frameDT := 1.0 / float64(cfg.Server.FrameRate)
		ticker := time.NewTicker(time.Duration(float64(time.Second) * frameDT))
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				realDT := now.Sub(last).Seconds()
				last = now
				if realDT > cfg.Server.MaxFrameDT {
					realDT = cfg.Server.MaxFrameDT
				}

				drainCommands(hub, core, world)

				frameStart := time.Now()
				world.Step(core, realDT)
				metrics.Get().RecordFrame(time.Since(frameStart))

				state := sim.BuildState(core, world)
				lastState.Store(state)
				lastStats.Store(buildRunStats(sessionID, core))
				hub.BroadcastState(state)
			}
		}
	}()

	// Setup API routes
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	historyAPI := network.NewHistoryHandler(bus, eventRepo, sessionID, appLogger)
	historyAPI.RegisterRoutes(http.DefaultServeMux)

	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lastState.Load())
	})

	http.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		all, err := statsRepo.GetAll(r.Context())
		if err != nil {
			http.Error(w, "Stats unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)
	})

	http.HandleFunc("/metrics", metrics.Handler())
	http.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	go func() {
		log.Printf("[TEMPORAL-SERVER] HTTP API & WS server listening on %s", cfg.Server.ListenAddr)
		if err := http.ListenAndServe(cfg.Server.ListenAddr, nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[TEMPORAL-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[TEMPORAL-SERVER] Shutting down...")
	_ = statsRepo.Upsert(context.Background(), lastStats.Load().(storage.RunStats))
}

// drainCommands applies every queued player command before the frame
// advances, so inputs land on a consistent world state.
func drainCommands(hub *network.Hub, core *engine.Core, world *sim.World) {
	for {
		select {
		case cmd := <-hub.Commands():
			applyCommand(cmd, core, world)
		default:
			return
		}
	}
}

func applyCommand(cmd network.Command, core *engine.Core, world *sim.World) {
	switch cmd.Type {
	case network.CommandFreeze:
		core.Freeze()
	case network.CommandUnfreeze:
		core.Unfreeze()
	case network.CommandMove:
		world.SetPlayerInput(cmd.DX, cmd.DY)
	case network.CommandPlaceAnchor:
		core.PlaceAnchor(world.Player().Position)
	case network.CommandRecall:
		var pos geometry.Vec2
		var ok bool
		if cmd.Slot < 0 {
			pos, ok = core.RecallToNearest(world.Player().Position)
		} else {
			pos, ok = core.RecallToAnchor(cmd.Slot)
		}
		if ok {
			world.SetPlayerPosition(pos)
		}
	case network.CommandRewind:
		if snap, ok := core.InitiateRewind(); ok {
			world.ApplyRewind(snap)
		}
	case network.CommandSpawnClone:
		core.SpawnClone()
	case network.CommandCheckpoint:
		core.CheckpointReached()
	case network.CommandReset:
		core.Reset()
		world.Reset(geometry.Vec2{X: 10, Y: 10})
	}
}

func buildRunStats(sessionID string, core *engine.Core) storage.RunStats {
	debt := core.DebtStats()
	waves := core.ResonanceStats()
	return storage.RunStats{
		SessionID:       sessionID,
		TotalFreezeTime: core.TotalFreezeTime(),
		TotalAccrued:    debt.TotalAccrued,
		TotalRepaid:     debt.TotalRepaid,
		PeakDebt:        debt.PeakDebt,
		TimesBankrupt:   debt.TimesBankrupt,
		WavesSurvived:   waves.WavesSurvived,
		WavesPenalized:  waves.WavesPenalized,
		LastUpdated:     time.Now(),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the dev frontend
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
