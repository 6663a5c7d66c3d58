// Package kernel assembles the simulation: it owns the entity store, wires
// every system into the fixed tick order and exposes the host-facing
// commands, readouts and persistence.
package kernel

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/combat"
	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/grid"
	"github.com/plus3/driftworks/input"
	"github.com/plus3/driftworks/logistics"
	"github.com/plus3/driftworks/physics"
	"github.com/plus3/driftworks/production"
	"github.com/plus3/driftworks/resource"
)

// rngStream is the second PCG seed word; the first comes from the config.
const rngStream = 0x9e3779b97f4a7c15

type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	Logger *zap.Logger
	// Sink receives every event as it is emitted, in addition to the
	// kernel's own buffer drained by Events.
	Sink event.Sink
}

type Kernel struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	cfg       *config.Config
	input     *input.State
	world     *grid.World
	events    *event.Buffer
	rng       *rand.Rand
	logger    *zap.Logger

	mining  *resource.MiningSystem
	builder *grid.BuilderSystem
	combat  *combat.System
	spawner *resource.SpawnerSystem

	views views
}

// phase brackets a tick: the first instance resets the click flag, the last
// clears the scroll delta.
type phase struct {
	Input ecs.Singleton[input.State]
	end   bool
}

func (p *phase) Execute(frame *ecs.UpdateFrame) {
	in := p.Input.Get()
	if p.end {
		in.EndTick()
	} else {
		in.BeginTick()
	}
}

// New builds a kernel with an empty world. Call NewWorld or Restore to
// populate it.
func New(opts Options) (*Kernel, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	storage := ecs.NewStorage(component.NewRegistry())
	storage.AddSingleton(cfg)
	storage.AddSingleton(input.State{})

	k := &Kernel{
		storage:   storage,
		scheduler: ecs.NewScheduler(storage),
		events:    &event.Buffer{},
		rng:       rand.New(rand.NewPCG(cfg.Spawner.Seed, rngStream)),
		logger:    logger,
	}
	storage.ReadSingleton(&k.cfg)
	storage.ReadSingleton(&k.input)

	sinks := event.Fanout{k.events, event.Logged(logger.Named("event"))}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}
	k.world = grid.NewWorld(storage, k.cfg, sinks, logger.Named("grid"))
	k.world.SetClock(k.scheduler.Tick)

	k.mining = resource.NewMiningSystem(k.rng, sinks, logger.Named("mining"))
	k.combat = combat.NewSystem(k.rng, sinks, logger.Named("combat"))
	k.builder = grid.NewBuilderSystem(k.world, logger.Named("builder"))
	k.spawner = resource.NewSpawnerSystem(k.rng, logger.Named("spawner"))

	s := k.scheduler
	s.Register(&phase{})
	s.Register(&physics.ControlSystem{})
	s.Register(k.mining)
	s.Register(k.combat)
	s.Register(resource.NewChunkSystem(sinks, logger.Named("chunks")))
	s.Register(logistics.NewSystem(logger.Named("logistics")))
	s.Register(production.NewSystem(logger.Named("production")))
	s.Register(k.builder)
	s.Register(&physics.MovementSystem{})
	s.Register(k.spawner)
	s.Register(&phase{end: true})

	k.views = newViews(storage)
	return k, nil
}

// NewWorld discards the current world and starts a fresh one: the player
// with the starter items at the start position and the initial body field.
func (k *Kernel) NewWorld() {
	k.storage.Clear()
	k.world.Forget()
	k.scheduler.SetTick(0)
	k.resetSystems()

	physics.SpawnPlayer(k.storage, k.cfg, k.cfg.Player.StartX, k.cfg.Player.StartY, k.cfg.StarterItems)
	n := resource.SeedField(k.storage, k.cfg, k.rng)
	k.logger.Info("new world", zap.Int("bodies", n), zap.Uint64("seed", k.cfg.Spawner.Seed))
}

// resetSystems drops the timers and caches systems carry between ticks.
func (k *Kernel) resetSystems() {
	k.mining.Reset()
	k.spawner.Reset()
	k.combat.Reset()
	k.builder.Reset()
}

// Step advances the simulation by one tick of dt seconds.
func (k *Kernel) Step(dt float64) {
	k.scheduler.Once(dt)
}

// Run steps at a fixed interval until ctx is done. Each tick advances the
// simulation by exactly interval, regardless of wall-clock jitter.
func (k *Kernel) Run(ctx context.Context, interval time.Duration, onTick func(tick uint64)) error {
	return k.scheduler.Run(ctx, interval, onTick)
}

func (k *Kernel) Tick() uint64 { return k.scheduler.Tick() }
func (k *Kernel) Storage() *ecs.Storage { return k.storage }
func (k *Kernel) Scheduler() *ecs.Scheduler { return k.scheduler }
func (k *Kernel) Config() *config.Config { return k.cfg }
func (k *Kernel) Grid() *grid.World { return k.world }
func (k *Kernel) Logger() *zap.Logger { return k.logger }
func (k *Kernel) Stats() *ecs.SchedulerStats { return k.scheduler.GetStats() }
func (k *Kernel) StorageStats() *ecs.StorageStats { return k.storage.CollectStats() }
func (k *Kernel) Mining() *resource.MiningSystem { return k.mining }

// Input is the state the host writes before each Step.
func (k *Kernel) Input() *input.State {
	return k.input
}

// SelectBlock picks the block used by AttemptBuild.
func (k *Kernel) SelectBlock(b gamedata.Block) error {
	return k.world.SelectBlock(b)
}

// AttemptBuild places the selected block. A rejection is a
// *grid.PlacementError; grid.Reason gives its code.
func (k *Kernel) AttemptBuild(c grid.Cell) error {
	return k.world.Build(c)
}

func (k *Kernel) AttemptRemove(c grid.Cell) error {
	return k.world.Remove(c)
}

// Preview is the placement check for the cell under the cursor as of the
// last tick.
func (k *Kernel) Preview() error {
	return k.builder.Preview
}

// LastCommand is the outcome of the last click-driven build or remove.
func (k *Kernel) LastCommand() error {
	return k.builder.LastError
}
