// Command taskpoold is a demo driver for the taskpool package: it
// feeds synthetic tasks to a fixed-size pool on a timer until
// interrupted, optionally compressing rotated log files on the side,
// then shuts the pool down gracefully.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avolkov/taskpool"
	"github.com/avolkov/taskpool/internal/config"
	"github.com/avolkov/taskpool/internal/console"
	"github.com/avolkov/taskpool/internal/logging"
	"github.com/avolkov/taskpool/internal/logzip"
	"github.com/avolkov/taskpool/internal/wire"
)

var version = "dev"

const (
	demoSource   = 0x6
	taskWorkTime = 300 * time.Millisecond
)

var demoBody = []byte("synthetic payload")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		workers  int
		interval time.Duration
		pin      bool
	)

	cmd := &cobra.Command{
		Use:     "taskpoold",
		Short:   "Feed synthetic tasks to a fixed-size worker pool until interrupted",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgFile != "" {
				var err error
				if cfg, err = config.Load(cfgFile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("interval") {
				cfg.SubmitInterval = interval.String()
			}
			if cmd.Flags().Changed("pin") {
				cfg.PinWorkers = pin
			}

			settings, err := cfg.Parse()
			if err != nil {
				return err
			}
			return run(settings)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	cmd.Flags().IntVar(&workers, "workers", 0, "pool size (overrides config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between task submissions (overrides config)")
	cmd.Flags().BoolVar(&pin, "pin", false, "pin workers to CPUs (overrides config)")
	return cmd
}

func run(s config.Settings) error {
	if err := console.DisableQuickEdit(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not disable console quick-edit:", err)
	}

	logger := logging.New(s.Log)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := &taskpool.AtomicMetrics{}
	pool := taskpool.NewPool[int](taskpool.Options{
		Workers:    s.Workers,
		PinWorkers: s.PinWorkers,
		OnShutdown: s.ShutdownPolicy,
	}, metrics)
	logger.Info("pool started",
		zap.Int("workers", pool.LiveWorkers()),
		zap.String("shutdown_policy", s.ShutdownPolicy.String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return submitLoop(gctx, pool, s.SubmitInterval, logger) })

	var zipPool *taskpool.Pool[string]
	if s.ZipDir != "" {
		// Compression gets a dedicated single worker that drains at
		// shutdown, so no rotated file is left half-processed.
		zipPool = taskpool.NewPool[string](taskpool.Options{
			Workers:    1,
			OnShutdown: taskpool.DrainPending,
		}, nil)
		comp := logzip.New(s.ZipDir, filepath.Base(s.Log.File), s.ZipScanInterval, zipPool, logger)
		g.Go(func() error { return comp.Run(gctx) })
	}

	<-ctx.Done()
	logger.Info("interrupt received, shutting down")

	if err := g.Wait(); err != nil && err != taskpool.ErrPoolClosed {
		logger.Warn("background loop exited with error", zap.Error(err))
	}

	pool.Shutdown()
	if zipPool != nil {
		zipPool.Shutdown()
	}

	logger.Info("all workers joined, exiting",
		zap.Uint64("executed", metrics.Executed()),
		zap.Uint64("discarded", metrics.Discarded()))
	return nil
}

// submitLoop enqueues one synthetic task per tick until the context is
// canceled.
func submitLoop(ctx context.Context, pool *taskpool.Pool[int], interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for id := 0; ; id++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := pool.Submit(taskpool.Task[int]{
			Payload: id,
			Fn:      func(taskID int) { runDemoTask(taskID, logger) },
		})
		if err != nil {
			return err
		}
		logger.Info("enqueued task", zap.Int("id", id))
	}
}

// runDemoTask is the synthetic work unit: encode a wire header for the
// task id, verify it round-trips, then simulate some work.
func runDemoTask(id int, logger *zap.Logger) {
	h := wire.Header{
		MsgType:   uint8(id % 16),
		MsgSource: demoSource,
		Counter:   uint8(id),
		Length:    uint16(len(demoBody)),
	}
	buf, err := h.MarshalBinary()
	if err != nil {
		logger.Error("encode header failed", zap.Int("id", id), zap.Error(err))
		return
	}
	var rt wire.Header
	if err := rt.UnmarshalBinary(buf); err != nil {
		logger.Error("decode header failed", zap.Int("id", id), zap.Error(err))
		return
	}
	if rt != h {
		logger.Error("header round-trip mismatch", zap.Int("id", id))
		return
	}

	time.Sleep(taskWorkTime)
	logger.Info("task finished",
		zap.Int("id", id),
		zap.String("header", hex.EncodeToString(buf)))
}
