package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchlist-systemv1/config"
	"watchlist-systemv1/internal/account"
	"watchlist-systemv1/internal/catalog"
	"watchlist-systemv1/internal/gateway"
	"watchlist-systemv1/internal/logger"
	"watchlist-systemv1/internal/metrics"
	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/notification"
	"watchlist-systemv1/internal/session"
	"watchlist-systemv1/internal/simulator"
	"watchlist-systemv1/internal/store/mem"
	"watchlist-systemv1/internal/store/redis"
	"watchlist-systemv1/internal/store/sqlite"
	"watchlist-systemv1/internal/watchlist"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[server] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	logger.Init("watchlist", slog.LevelInfo)

	// ---- Durable KV store ----
	kv, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[server] store init failed: %v", err)
	}
	defer kv.Close()
	log.Printf("[server] %s store ready", cfg.StoreBackend)

	accounts := account.NewStore(kv)
	repo := watchlist.NewRepository(kv)
	catalogClient := catalog.NewClient(cfg.CatalogURL)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health.CheckStore(ctx, kv)
	health.StartLivenessChecker(ctx, kv, 15*time.Second)

	// ---- WS hub & sessions ----
	hub := gateway.NewHub()

	var notifier notification.Notifier
	if cfg.WebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		notifier = notification.NewLogNotifier()
	}

	sessions := session.NewManager(accounts, repo, session.Config{
		TickInterval: cfg.TickInterval(),
		Notifier:     notifier,
		OnTick: func(sess *session.Session, res simulator.TickResult) {
			prom.TicksTotal.Inc()
			prom.FloorClampsTotal.Add(float64(res.Clamped))
			health.SetLastTickTime(time.Now())

			payload, err := json.Marshal(map[string]interface{}{
				"prices": res.Prices,
				"pnl":    sess.Snapshot(),
			})
			if err != nil {
				log.Printf("[server] tick payload marshal failed: %v", err)
				return
			}
			hub.Broadcast(sess.Identity(), payload)
		},
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: gateway.NewServer(sessions, catalogClient, hub, prom).Routes(),
	}

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[server] serving at http://localhost%s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[server] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[server] shutting down...")
	cancel()
	sessions.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	log.Println("[server] stopped")
}

// openStore builds the configured KV backend.
func openStore(cfg *config.Config) (model.KVStore, error) {
	switch cfg.StoreBackend {
	case "redis":
		return redis.New(redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	case "mem":
		return mem.New(), nil
	default:
		return sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	}
}
