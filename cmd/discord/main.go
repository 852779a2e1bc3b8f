package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethanbaker/bucket/internal/api"
	bucket_store "github.com/ethanbaker/bucket/internal/stores/bucket"
	"github.com/ethanbaker/bucket/internal/transport/discord"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/idle"
	"github.com/ethanbaker/bucket/pkg/utils"
)

func main() {
	// Load global config
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	// Wait for interrupt signal to gracefully shut down the bot
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open the factoid database
	s, err := bucket_store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("[DISCORD]: failed to open store: %v", err)
	}
	defer s.Close()

	// Create the factoid engine
	engine, err := bucket.New(ctx, s, bucket.NewConfig(cfg))
	if err != nil {
		log.Fatalf("[DISCORD]: failed to create engine: %v", err)
	}

	log.Println("[DISCORD]: Starting bot...")

	// Create and start the bot
	bot, err := discord.NewBot(cfg, engine)
	if err != nil {
		log.Fatalf("[DISCORD]: failed to create bot: %v", err)
	}

	if err := bot.Start(); err != nil {
		log.Fatalf("[DISCORD]: failed to start bot: %v", err)
	}

	// Prompt channels that go quiet
	prompter, err := idle.NewPrompter(idle.Options{
		Channels:  engine.Channels(),
		Source:    engine,
		Sender:    bot,
		Lock:      engine.Locker(),
		Threshold: cfg.GetDurationWithDefault("BUCKET_IDLE_THRESHOLD", idle.DefaultThreshold),
		Spec:      cfg.GetWithDefault("BUCKET_IDLE_SPEC", idle.DefaultSpec),
	})
	if err != nil {
		log.Fatalf("[DISCORD]: failed to create idle prompter: %v", err)
	}
	if err := prompter.Start(); err != nil {
		log.Fatalf("[DISCORD]: failed to start idle prompter: %v", err)
	}

	// Serve the admin API alongside the bot
	server, err := api.NewServer(cfg, engine)
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to create server: %v", err)
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[API-MAIN]: Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	log.Println("[DISCORD]: Bot is running. Press Ctrl+C to exit.")
	<-ctx.Done()

	prompter.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API-MAIN]: error during server shutdown: %v", err)
	}

	// Cleanly stop the bot
	if err := bot.Stop(); err != nil {
		log.Printf("[DISCORD]: error during bot shutdown: %v", err)
	}

	log.Println("[DISCORD]: Bot stopped gracefully")
}
