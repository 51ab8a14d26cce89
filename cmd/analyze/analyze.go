// Command analyze reads a converted position file and asks a USI engine for
// its best move in that position.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kif2usi/pkg/kifconv"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: nearest config.json)")
	input := flag.String("input", "", "converted position file (default: config output)")
	millis := flag.Int("millis", -1, "search time in milliseconds (0 = plain go; default: config millis)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout for the engine conversation")
	flag.Parse()

	cfg, root, err := kifconv.ResolveConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	path := cfg.Output
	if *input != "" {
		path = *input
	}
	if *millis >= 0 {
		cfg.Millis = *millis
	}

	position, err := kifconv.ReadPosition(path)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "loaded %s\n", position)

	enginePath, err := cfg.EnginePath(root)
	if err != nil {
		fatal(err)
	}
	if _, err := os.Stat(enginePath); err != nil {
		fatal(fmt.Errorf("engine binary not found at %s: %w", enginePath, err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	session, err := kifconv.StartSession(ctx, enginePath)
	if err != nil {
		fatal(fmt.Errorf("engine not started: %s: %w", enginePath, err))
	}
	defer session.Close()
	go func() { _, _ = io.Copy(os.Stderr, session.Stderr()) }()

	if err := session.Handshake(ctx, cfg.EngineOptions()); err != nil {
		session.Close()
		fatal(fmt.Errorf("usi handshake failed: %w", err))
	}
	fmt.Fprintln(os.Stderr, "engine ready")

	result, err := session.Search(ctx, position, kifconv.GoCommand(cfg.Millis))
	for _, line := range result.Info {
		fmt.Fprintln(os.Stderr, line)
	}
	if err != nil {
		session.Close()
		fatal(err)
	}
	if !result.Found() {
		fmt.Fprintf(os.Stderr, "engine found no move: %s\n", result.BestMove)
	}
	if result.HasScore {
		fmt.Printf("bestmove %s (%s)\n", result.BestMove, result.Score)
		return
	}
	fmt.Printf("bestmove %s\n", result.BestMove)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
