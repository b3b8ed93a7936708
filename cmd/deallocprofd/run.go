package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/deallocprof/deallocz"
	"github.com/coral-mesh/deallocprof/deallocz/hostenv"
	"github.com/coral-mesh/deallocprof/exportpprof"
	"github.com/coral-mesh/deallocprof/internal/config"
	"github.com/coral-mesh/deallocprof/internal/duckdb"
	"github.com/coral-mesh/deallocprof/internal/errors"
	"github.com/coral-mesh/deallocprof/internal/logging"
	"github.com/coral-mesh/deallocprof/snapshotstore"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		duration   time.Duration
		workers    int
		pprofOut   string
		snapshotDB string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic allocation workload through the profiler and report findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if duration > 0 {
				cfg.ProfileDuration = duration
			}
			if snapshotDB != "" {
				cfg.SnapshotDB = snapshotDB
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runWorkload(cmd.Context(), cfg, workers, pprofOut)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file path")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run the synthetic workload")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent allocating goroutines")
	cmd.Flags().StringVar(&pprofOut, "pprof-out", "deallocprof.pb.gz", "path to write the emitted pprof profile")
	cmd.Flags().StringVar(&snapshotDB, "snapshot-db", "", "DuckDB DSN to persist the stopped profile (empty = skip persistence)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override config log_level")

	return cmd
}

func runWorkload(ctx context.Context, cfg config.Config, workers int, pprofOut string) error {
	logger := logging.NewWithComponent(logging.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stdout}, "deallocprofd")

	env := hostenv.New()
	registry := deallocz.NewRegistry(env)
	handle := registry.Start()

	logger.Info().
		Dur("duration", cfg.ProfileDuration).
		Int("workers", workers).
		Msg("starting synthetic allocation workload")

	runCtx, cancel := context.WithTimeout(ctx, cfg.ProfileDuration)
	defer cancel()

	var wg sync.WaitGroup
	var nextHandle atomic.Uint64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			simulateAllocations(runCtx, registry, env, &nextHandle, cfg.SampleWeight)
		}(i)
	}
	wg.Wait()

	profile := handle.Stop()
	defer profile.Close()

	logger.Info().Dur("observed", profile.Duration()).Msg("workload finished, profile frozen")

	if err := writePprof(profile, pprofOut, logger); err != nil {
		return err
	}
	logger.Info().Str("path", pprofOut).Msg("wrote pprof profile")

	if cfg.SnapshotDB != "" {
		if err := storeSnapshot(ctx, profile, cfg.SnapshotDB, logger); err != nil {
			return err
		}
	}

	summarize(profile, logger)
	return nil
}

// simulateAllocations drives a mix of short- and long-lived "allocations"
// through registry until ctx is done. Each allocation captures a real call
// stack from this goroutine, so the emitted profile's frames resolve to
// actual functions in this binary.
func simulateAllocations(ctx context.Context, registry *deallocz.Registry, env deallocz.HostEnv, nextHandle *atomic.Uint64, sampleWeight float64) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	type pending struct {
		handle deallocz.Handle
		due    time.Time
	}
	var inFlight []pending

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stack, depth := env.CaptureStack(1)
		size := uintptr(16 << uint(rng.Intn(8)))
		h := deallocz.Handle(nextHandle.Add(1))

		registry.ReportMalloc(deallocz.StackTrace{
			Handle:             h,
			Stack:              stack,
			Depth:              depth,
			RequestedSize:      size,
			RequestedAlignment: 8,
			AllocatedSize:      size,
			AllocationTime:     env.Now(),
			Weight:             sampleWeight,
		})

		lifetime := time.Duration(rng.Intn(5_000_000)) * time.Nanosecond
		inFlight = append(inFlight, pending{handle: h, due: time.Now().Add(lifetime)})

		stillPending := inFlight[:0]
		for _, p := range inFlight {
			if time.Now().After(p.due) {
				registry.ReportFree(p.handle)
				continue
			}
			stillPending = append(stillPending, p)
		}
		inFlight = stillPending

		time.Sleep(time.Millisecond)
	}
}

func writePprof(p *deallocz.Profile, path string, logger zerolog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pprof output: %w", err)
	}
	defer errors.DeferClose(logger, f, "close pprof output file")

	return exportpprof.WriteTo(f, p)
}

func storeSnapshot(ctx context.Context, p *deallocz.Profile, dsn string, logger zerolog.Logger) error {
	db, err := duckdb.OpenDB(dsn)
	if err != nil {
		return fmt.Errorf("open snapshot db: %w", err)
	}
	defer errors.DeferClose(logger, db, "close snapshot db")

	store, err := snapshotstore.NewStore(db, logger)
	if err != nil {
		return err
	}

	snapshotID, err := store.StoreProfile(ctx, p)
	if err != nil {
		return err
	}

	logger.Info().Str("snapshot_id", snapshotID).Str("dsn", dsn).Msg("stored profile snapshot")
	return nil
}

func summarize(p *deallocz.Profile, logger zerolog.Logger) {
	var allocs, deallocs int
	var totalBytes int64
	p.Iterate(func(s deallocz.OutputSample) {
		if s.Count > 0 {
			allocs++
			totalBytes += s.Sum
		} else {
			deallocs++
		}
	})
	logger.Info().
		Int("allocation_sites", allocs).
		Int("deallocation_sites", deallocs).
		Int64("total_bytes", totalBytes).
		Msg("profile summary")
}
