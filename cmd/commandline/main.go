package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	bucket_store "github.com/ethanbaker/bucket/internal/stores/bucket"
	"github.com/ethanbaker/bucket/internal/transport/console"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/idle"
	"github.com/ethanbaker/bucket/pkg/utils"
)

func main() {
	// Load global config
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open the factoid database
	s, err := bucket_store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("[COMMANDLINE]: Failed to open store: %v", err)
	}
	defer s.Close()

	engine, err := bucket.New(ctx, s, bucket.NewConfig(cfg))
	if err != nil {
		log.Fatalf("[COMMANDLINE]: Failed to create engine: %v", err)
	}

	term := console.New(engine, os.Stdout, cfg.GetWithDefault("COMMANDLINE_NICK", "user"))

	// Idle prompts are printed like any other reply
	prompter, err := idle.NewPrompter(idle.Options{
		Channels:  engine.Channels(),
		Source:    engine,
		Sender:    term,
		Lock:      engine.Locker(),
		Threshold: cfg.GetDurationWithDefault("BUCKET_IDLE_THRESHOLD", idle.DefaultThreshold),
		Spec:      cfg.GetWithDefault("BUCKET_IDLE_SPEC", idle.DefaultSpec),
	})
	if err != nil {
		log.Fatalf("[COMMANDLINE]: Failed to create idle prompter: %v", err)
	}
	if err := prompter.Start(); err != nil {
		log.Fatalf("[COMMANDLINE]: Failed to start idle prompter: %v", err)
	}
	defer prompter.Stop()

	fmt.Printf("Talking to %s in %s. Type 'exit' to quit.\n", engine.Nick(), console.Channel)
	if err := term.Run(ctx, os.Stdin); err != nil {
		log.Printf("[COMMANDLINE]: %v", err)
	}
}
