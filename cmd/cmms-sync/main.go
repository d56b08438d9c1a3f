package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/app"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/logger"
)

func main() {
	var (
		logLevel = flag.String("log-level", "", "override log.level")
		attempts = flag.Int("attempts", 0, "max attempts per job (default jobs.max_attempts)")
	)
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(os.Stdout)
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*logLevel) != "" {
		cfg.Log.Level = strings.TrimSpace(*logLevel)
	}
	if *attempts > 0 {
		cfg.Jobs.MaxAttempts = *attempts
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init error:", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, a, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		a.Close()
		os.Exit(1)
	}
}
