package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/clubhouselabs/fairway/internal/seeder"
	"github.com/clubhouselabs/fairway/pkg/logger"
)

const defaultTimeout = 30 * time.Second

func main() {
	config := &seeder.Config{}

	flag.StringVar(&config.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	flag.IntVar(&config.NumPlayers, "players", 40, "Number of players to generate")
	flag.IntVar(&config.RoundsPerPlayer, "rounds", 6, "Rounds per player")
	flag.StringVar(&config.EventID, "event", "event_seed", "Event id the rounds belong to")
	flag.IntVar(&config.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent workers")
	flag.DurationVar(&config.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flag.StringVar(&config.Token, "token", "", "Bearer token for mutating routes")
	flag.StringVar(&config.OutputFile, "output", "", "Output file for generated rounds")
	flag.StringVar(&config.LogFile, "log", "", "Log file for seeder output")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	if *help {
		seeder.ShowHelp()
		return
	}

	if err := seeder.SetupLogging(config.LogFile); err != nil {
		os.Stderr.WriteString("failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seeder.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
