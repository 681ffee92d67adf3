// Command ignitiondemo exercises the coordinator against a small set of
// synthetic signals (a fast success, a fast failure, and a slow operation
// that may or may not beat the global deadline) and prints the resulting
// RunRecording as JSON. Grounded on cmd/kernel/main.go's config-then-run
// shape, generalized to cobra/viper for flag/config-file binding the way
// 88lin-divinesense's cmd/divinesense/main.go does.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	ossignal "os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ignition "github.com/ignitionrun/coordinator"
	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/diagnostics"
	"github.com/ignitionrun/coordinator/ignerrors"
	"github.com/ignitionrun/coordinator/signal"
)

var rootCmd = &cobra.Command{
	Use:   "ignitiondemo",
	Short: "Runs a small set of synthetic readiness signals through the coordinator and prints its RunRecording.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("mode", "parallel", "execution mode: parallel, sequential, dependency_aware, staged")
	rootCmd.Flags().String("policy", "best_effort", "failure policy: best_effort, fail_fast, continue_on_timeout")
	rootCmd.Flags().Duration("global-timeout", 0, "global deadline; 0 disables it")
	rootCmd.Flags().Int("max-parallelism", -1, "concurrency cap; -1 is unbounded")
	rootCmd.Flags().Int("slow-count", 3, "number of slowest signals to report")
	rootCmd.Flags().String("config", "", "optional YAML file overriding the above (see config.LoadOptionsYAML)")

	for _, name := range []string{"mode", "policy", "global-timeout", "max-parallelism", "slow-count", "config"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts := config.Default()
	opts.ExecutionMode = config.ExecutionMode(viper.GetString("mode"))
	opts.Policy = config.Policy(viper.GetString("policy"))
	opts.GlobalTimeout = viper.GetDuration("global-timeout")
	opts.MaxDegreeOfParallelism = viper.GetInt("max-parallelism")
	opts.SlowSignalLogCount = viper.GetInt("slow-count")

	if path := viper.GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		loaded, err := config.LoadOptionsYAML(data)
		if err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		opts.Merge(&loaded)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	coordinator, err := registerDemoSignals(opts)
	if err != nil {
		return fmt.Errorf("building coordinator: %w", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runStart := time.Now()
	rr, waitErr := coordinator.WaitAll(ctx)
	recording := diagnostics.Record(rr, opts, time.Now())

	out, marshalErr := json.MarshalIndent(recording, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshaling run recording: %w", marshalErr)
	}
	fmt.Println(string(out))

	logger.Info("run complete",
		"finalState", rr.FinalState,
		"timedOut", rr.TimedOut,
		"wallClock", time.Since(runStart),
	)

	if waitErr != nil {
		var agg *ignerrors.AggregateError
		if errors.As(waitErr, &agg) {
			logger.Warn("waitAll raised", "kind", agg.Kind, "signals", len(agg.Errors))
		}
		return waitErr
	}
	return nil
}

// registerDemoSignals builds a small coordinator exercising all three
// statuses an operator would want to see in a first run: a quick success, a
// quick failure, and a slow signal whose fate depends on global-timeout.
func registerDemoSignals(opts config.Options) (*ignition.Coordinator, error) {
	c, err := ignition.New(opts)
	if err != nil {
		return nil, err
	}

	jitter := func(base time.Duration) time.Duration {
		return base + time.Duration(rand.Intn(20))*time.Millisecond
	}

	if err := c.RegisterSignal(signal.Signal{Name: "database", Execute: func(ctx context.Context) error {
		return sleepOrDone(ctx, jitter(10*time.Millisecond))
	}}); err != nil {
		return nil, err
	}
	if err := c.RegisterSignal(signal.Signal{Name: "feature-flags", Execute: func(ctx context.Context) error {
		if err := sleepOrDone(ctx, jitter(15*time.Millisecond)); err != nil {
			return err
		}
		return errFlagServiceUnavailable
	}}); err != nil {
		return nil, err
	}
	if err := c.RegisterSignal(signal.Signal{Name: "warm-cache", Execute: func(ctx context.Context) error {
		return sleepOrDone(ctx, jitter(200*time.Millisecond))
	}}); err != nil {
		return nil, err
	}

	if opts.ExecutionMode == config.ModeDependencyAware {
		c.DependsOn("feature-flags", "database")
	}
	if opts.ExecutionMode == config.ModeStaged {
		c.AssignStage("database", 0)
		c.AssignStage("feature-flags", 0)
		c.AssignStage("warm-cache", 1)
	}

	return c, nil
}

var errFlagServiceUnavailable = errors.New("feature-flags: upstream returned 503")

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
