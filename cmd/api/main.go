package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/prepzone/backend/internal/config"
	"github.com/zhouzirui/prepzone/backend/internal/handler"
	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/ai"
	"github.com/zhouzirui/prepzone/backend/internal/service/content"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	"github.com/zhouzirui/prepzone/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	bundle, err := i18n.LoadWithOverlay(cfg.Game.LocalesDir)
	if err != nil {
		log.Fatalf("failed to load locale catalogs: %v", err)
	}

	slots, err := openSlots(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open progression store: %v", err)
	}
	defer slots.Close()
	progressionStore := progression.Load(ctx, slots)
	current := progressionStore.Current()
	log.Printf("progression loaded from %s store: level=%d xp=%d", cfg.Store.Driver, current.Level, current.CurrentXP)

	// Initialize AI service
	var provider content.Provider
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without question generation - check the Ark model environment variables")
		} else {
			provider = aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, sessions will show the error screen on category selection")
	}

	categories := game.NewMemoryStore(game.Seed())
	sessions, err := session.NewService(session.Dependencies{
		Content:     content.New(provider),
		Progression: progressionStore,
		Categories:  categories,
		Languages:   bundle,
		Images:      game.ImageFor,
		Settings: session.Settings{
			DefaultLanguage: cfg.Game.DefaultLanguage,
			TimerSeconds:    cfg.Game.TimerSeconds,
			EndGameDelay:    cfg.Game.EndGameDelay,
			FetchTimeout:    cfg.Game.FetchTimeout,
			TickInterval:    cfg.Game.TickInterval,
		},
	})
	if err != nil {
		log.Fatalf("failed to build session service: %v", err)
	}
	defer sessions.Close()

	router := handler.NewRouter(handler.Deps{
		Categories:   categories,
		Languages:    bundle,
		Progression:  progressionStore,
		Sessions:     sessions,
		DefaultTimer: cfg.Game.TimerSeconds,
	})

	startServer(ctx, cfg.Server, router)
}

func openSlots(ctx context.Context, cfg config.StoreConfig) (progression.Slots, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return progression.NewMemorySlots(), nil
	case config.StoreSQLite:
		return progression.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StoreRedis:
		return progression.NewRedisSlots(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("PrepZone backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
