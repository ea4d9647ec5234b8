package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stevuth/rewardspeak-sub000/internal/cache"
	"github.com/stevuth/rewardspeak-sub000/internal/config"
	"github.com/stevuth/rewardspeak-sub000/internal/metrics"
	"github.com/stevuth/rewardspeak-sub000/internal/notik"
	"github.com/stevuth/rewardspeak-sub000/internal/pipeline"
	spg "github.com/stevuth/rewardspeak-sub000/internal/storage/postgres"
	transport "github.com/stevuth/rewardspeak-sub000/internal/transport/http"
)

func main() {
	cfg := config.Parse()
	log.Printf("config: port=%s chunk=%d notik=%s", cfg.Port, cfg.ChunkSize, cfg.NotikBaseURL)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := spg.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	log.Printf("db: connected")

	mig := filepath.Join("migrations", "0001_init.sql")
	if err := db.RunMigration(ctx, mig); err != nil {
		log.Fatalf("migration: %v", err)
	}
	log.Printf("db: migration applied")

	offerStore := spg.NewOfferStore(db)
	runStore := spg.NewRunLogStore(db)
	reg := metrics.NewRegistry()

	client := notik.New(cfg.NotikBaseURL, notik.Credentials{
		APIKey: cfg.NotikAPIKey,
		PubID:  cfg.NotikPubID,
		AppID:  cfg.NotikAppID,
	})

	pipe := &pipeline.Pipeline{
		Fetcher:   client,
		Store:     offerStore,
		Runs:      runStore,
		Metrics:   reg,
		ChunkSize: cfg.ChunkSize,
		MaxPages:  cfg.MaxPages,
	}
	if cfg.RedisAddr != "" {
		inv := cache.NewInvalidator(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer inv.Close()
		pipe.Cache = inv
		log.Printf("cache: redis invalidation enabled (%s)", cfg.RedisAddr)
	}

	deps := &transport.ServerDeps{
		Cfg:     cfg,
		Pipe:    pipe,
		DB:      db,
		Offers:  offerStore,
		Runs:    runStore,
		Metrics: reg,
		Now:     func() time.Time { return time.Now().UTC() },
	}
	h := deps.Router()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Sync runs are synchronous and page through the whole upstream
		// catalog; the write timeout has to cover a full run.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
}
