// Command factory-sim runs the simulation headless and prints a report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/kernel"
	"github.com/plus3/driftworks/savefile"
	"github.com/plus3/driftworks/snapshot"
)

type options struct {
	configPath string
	ticks      uint64
	tickRate   float64
	savePath   string
	loadPath   string
	slotsPath  string
	slot       string
	autosave   uint64
	listSlots  bool
	logLevel   string
	logFormat  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML file overriding the default tunables.")
	flag.Uint64Var(&opts.ticks, "ticks", 600, "Number of ticks to run; 0 runs until interrupted.")
	flag.Float64Var(&opts.tickRate, "tick-rate", 0, "Ticks per second; 0 runs as fast as possible at 60 Hz steps.")
	flag.StringVar(&opts.savePath, "save", "", "Write the final world to this file.")
	flag.StringVar(&opts.loadPath, "load", "", "Start from this save file instead of a new world.")
	flag.StringVar(&opts.slotsPath, "slots", "", "SQLite database holding named save slots.")
	flag.StringVar(&opts.slot, "slot", "default", "Slot loaded at start and written at exit when -slots is set.")
	flag.Uint64Var(&opts.autosave, "autosave", 0, "Autosave every N ticks; 0 disables.")
	flag.BoolVar(&opts.listSlots, "list-slots", false, "List the slots in -slots and exit.")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error.")
	flag.StringVar(&opts.logFormat, "log-format", "console", "Log format: console or json.")
	flag.Parse()

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(opts, logger); err != nil {
		logger.Fatal("factory-sim failed", zap.Error(err))
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = lvl
	cfg.DisableCaller = true
	return cfg.Build()
}

func run(opts options, logger *zap.Logger) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return errors.Wrap(err, "load config")
		}
	}

	var slots *savefile.SlotStore
	if opts.slotsPath != "" {
		var err error
		if slots, err = savefile.OpenSlots(opts.slotsPath); err != nil {
			return err
		}
		defer slots.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.listSlots {
		if slots == nil {
			return errors.New("-list-slots requires -slots")
		}
		return listSlots(ctx, slots)
	}

	counter := event.Counter{}
	k, err := kernel.New(kernel.Options{Config: &cfg, Logger: logger, Sink: counter})
	if err != nil {
		return err
	}
	if err := start(ctx, k, opts, slots); err != nil {
		return err
	}

	report := &Report{
		Config:   opts.configPath,
		Seed:     cfg.Spawner.Seed,
		TickRate: opts.tickRate,
		Events:   counter,
	}
	report.StartTick = k.Tick()

	g, gctx := errgroup.WithContext(ctx)
	saves := make(chan pending, 1)

	g.Go(func() error {
		defer close(saves)
		return simulate(gctx, k, opts, report, saves)
	})
	g.Go(func() error {
		return writeSaves(gctx, saves, opts, slots, logger)
	})

	startTime := time.Now()
	if err := g.Wait(); err != nil {
		return err
	}
	report.TotalTime = time.Since(startTime)

	// The loop has stopped, so the kernel is ours again.
	if opts.savePath != "" {
		if _, err := k.SaveFile(opts.savePath); err != nil {
			return err
		}
	}
	if slots != nil {
		if _, err := k.SaveSlot(context.Background(), slots, opts.slot); err != nil {
			return err
		}
	}

	report.Fill(k)
	return report.Generate(os.Stdout)
}

// start populates the kernel from -load, the slot store or a new world.
func start(ctx context.Context, k *kernel.Kernel, opts options, slots *savefile.SlotStore) error {
	switch {
	case opts.loadPath != "":
		_, err := k.LoadFile(opts.loadPath)
		return err
	case slots != nil:
		_, err := k.LoadSlot(ctx, slots, opts.slot)
		if errors.Is(err, savefile.ErrNotFound) {
			k.NewWorld()
			return nil
		}
		return err
	}
	k.NewWorld()
	return nil
}

// pending is a captured world waiting to be written.
type pending struct {
	tick uint64
	snap snapshot.Snapshot
}

// simulate owns the kernel until it returns. Snapshots for autosave are
// captured here and handed to the writer.
func simulate(ctx context.Context, k *kernel.Kernel, opts options, report *Report, saves chan<- pending) error {
	target := k.Tick() + opts.ticks
	done := func() bool { return opts.ticks != 0 && k.Tick() >= target }

	dt := 1.0 / 60
	var pace <-chan time.Time
	if opts.tickRate > 0 {
		interval := time.Duration(float64(time.Second) / opts.tickRate)
		dt = interval.Seconds()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for !done() {
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		stepStart := time.Now()
		k.Step(dt)
		report.StepTime.Samples = append(report.StepTime.Samples, time.Since(stepStart))
		k.Events()

		if opts.autosave == 0 || k.Tick()%opts.autosave != 0 {
			continue
		}
		select {
		case saves <- pending{tick: k.Tick(), snap: k.Snapshot()}:
		case <-ctx.Done():
			return nil
		default:
			// The writer is still busy with the previous save; skip this one.
			k.Logger().Warn("autosave skipped", zap.Uint64("tick", k.Tick()))
		}
	}
	return nil
}

func writeSaves(ctx context.Context, saves <-chan pending, opts options, slots *savefile.SlotStore, logger *zap.Logger) error {
	logger = logger.Named("autosave")
	for p := range saves {
		var (
			h   savefile.Header
			err error
		)
		switch {
		case slots != nil:
			h, err = slots.Save(ctx, opts.slot, p.tick, p.snap)
		case opts.savePath != "":
			h, err = savefile.WriteFile(opts.savePath, p.tick, p.snap)
		default:
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "autosave at tick %d", p.tick)
		}
		logger.Info("autosaved", zap.Uint64("tick", h.Tick), zap.Stringer("save_id", h.SaveID))
	}
	return nil
}

func listSlots(ctx context.Context, slots *savefile.SlotStore) error {
	infos, err := slots.List(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-16s tick=%-8d saved=%s size=%d id=%s\n",
			info.Name, info.Tick, info.SavedAt.Format(time.RFC3339), info.Size, info.SaveID)
	}
	return nil
}
