// Command plan computes a thrust plan for a snapshot file and prints it as
// JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/copyleftdev/orbitplan/internal/config"
	"github.com/copyleftdev/orbitplan/internal/logging"
	"github.com/copyleftdev/orbitplan/internal/planner"
	"github.com/copyleftdev/orbitplan/internal/trajectory"
)

func main() {
	snapshotPath := flag.String("snapshot", "", "path to a YAML or JSON snapshot file (- for stdin)")
	seed := flag.Int64("seed", 0, "base random seed, overrides ANNEAL_SEED")
	iterations := flag.Int("iterations", 0, "iterations per restart, overrides ANNEAL_ITERATIONS")
	flag.Parse()

	if *snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "usage: plan -snapshot <file>")
		os.Exit(2)
	}

	if err := run(*snapshotPath, *seed, *iterations); err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, seed int64, iterations int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open snapshot %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}
	snap, err := trajectory.DecodeSnapshot(in)
	if err != nil {
		return err
	}

	p, err := planner.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	if seed != 0 {
		p = p.WithSeed(seed)
	}
	if iterations != 0 {
		if p, err = p.WithIterations(iterations); err != nil {
			return err
		}
	}

	// An interrupt ends the search early and still prints the best plan.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Plan(ctx, snap)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
