package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"cryptorates/internal/app"
	"cryptorates/internal/backfill"
	"cryptorates/internal/config"
	"cryptorates/internal/logger"
)

func main() {
	cfgPath := os.Getenv("CRYPTORATES_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)

	mode := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode = args[0]
		args = args[1:]
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("initializing app: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		logger.Infof("starting rates service (env=%s, addr=%s)", cfg.App.Env, cfg.App.HTTPAddr)
		if err := a.Run(ctx); err != nil {
			log.Fatalf("service exited: %v", err)
		}
	case "backfill":
		runBackfill(ctx, a, args)
	case "update":
		runUpdate(ctx, a)
	default:
		log.Fatalf("unknown mode %q, want serve, backfill or update", mode)
	}
}

func runBackfill(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	days := fs.Int("days", 7, "days of history to load (1-365)")
	pair := fs.String("pair", "", "restrict to one pair, e.g. EUR/BTC")
	_ = fs.Parse(args)

	result, err := a.Backfill(ctx, *days, *pair)
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
	printResult("Backfill", result)
}

func runUpdate(ctx context.Context, a *app.App) {
	result, err := a.Update(ctx)
	if err != nil {
		log.Fatalf("update failed: %v", err)
	}
	printResult("Update", result)
}

func printResult(label string, result backfill.Result) {
	fmt.Printf("%s completed: %s to %s\n", label, result.StartDate, result.EndDate)
	fmt.Printf("Inserted %d rates across %d pairs (%s)\n",
		result.TotalInserted, len(result.PairsProcessed), strings.Join(result.PairsProcessed, ", "))
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
