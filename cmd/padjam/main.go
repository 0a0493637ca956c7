package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"libdb.so/padjam"
	"libdb.so/padjam/internal/audio"
)

var (
	config  = "padjam.toml"
	verbose = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.Default()

	device := padjam.NewDevice(cfg, logger.With("component", "device"))
	engine := audio.NewEngine(cfg.Audio.Dir, logger.With("component", "audio"))
	app := padjam.NewApp(cfg, device, engine.Commands(), logger.With("component", "app"))

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return device.Run(ctx) })
	errg.Go(func() error { return engine.Run(ctx) })
	errg.Go(func() error { return app.Run(ctx, device.Events(), engine.Events()) })

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	logger.Info("exit")
	return nil
}

func readConfig() (*padjam.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := padjam.DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return padjam.ParseConfig(f)
}
