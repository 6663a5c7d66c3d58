// Package resource simulates the resource field: drifting bodies, mining,
// detached chunks and the claim protocol that hands chunks to collectors.
package resource

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

// SpawnBody creates a drifting resource body.
func SpawnBody(storage *ecs.Storage, pos component.Position, vel component.Velocity, kind gamedata.Resource, amount, maxAmount int) ecs.EntityId {
	return storage.Spawn(
		pos,
		vel,
		component.ResourceBody{Kind: kind, Amount: amount, MaxAmount: maxAmount},
		component.BoundaryCull{},
	)
}

// SpawnChunk creates a chunk at (x, y) with a random scatter velocity.
func SpawnChunk(storage *ecs.Storage, cfg *config.Config, rng *rand.Rand, x, y float64, kind gamedata.Resource, amount int) ecs.EntityId {
	angle := rng.Float64() * 2 * math.Pi
	speed := cfg.Mining.ScatterMin + rng.Float64()*(cfg.Mining.ScatterMax-cfg.Mining.ScatterMin)
	return storage.Spawn(
		component.Position{X: x, Y: y},
		component.Velocity{DX: math.Cos(angle) * speed, DY: math.Sin(angle) * speed},
		component.Chunk{Kind: kind, Amount: amount, Lifetime: cfg.Chunks.Lifetime},
	)
}

func randomBody(rng *rand.Rand, cfg *config.Spawner) (gamedata.Resource, int) {
	kind := gamedata.Ores[rng.IntN(len(gamedata.Ores))]
	amount := cfg.MinAmount + rng.IntN(cfg.MaxAmount-cfg.MinAmount+1)
	return kind, amount
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// SeedField spawns the initial scatter of bodies across the map.
func SeedField(storage *ecs.Storage, cfg *config.Config, rng *rand.Rand) int {
	sp := &cfg.Spawner
	for i := 0; i < sp.InitialCount; i++ {
		kind, amount := randomBody(rng, sp)
		SpawnBody(storage,
			component.Position{
				X: uniform(rng, -sp.InitialSpread, sp.InitialSpread),
				Y: uniform(rng, -sp.InitialSpread, sp.InitialSpread),
			},
			component.Velocity{
				DX: uniform(rng, -sp.InitialSpeed, sp.InitialSpeed),
				DY: uniform(rng, -sp.InitialSpeed, sp.InitialSpeed),
			},
			kind, amount, amount,
		)
	}
	return sp.InitialCount
}

// SpawnerSystem adds a body on a ring around the player every interval,
// drifting roughly towards the player.
type SpawnerSystem struct {
	Bodies ecs.Query[struct {
		*component.ResourceBody
	}]
	Players ecs.Query[struct {
		*component.Player
		*component.Position
	}]
	Config ecs.Singleton[config.Config]

	rng    *rand.Rand
	logger *zap.Logger
	timer  float64
}

func NewSpawnerSystem(rng *rand.Rand, logger *zap.Logger) *SpawnerSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpawnerSystem{rng: rng, logger: logger}
}

// Reset restarts the spawn interval.
func (s *SpawnerSystem) Reset() {
	s.timer = 0
}

func (s *SpawnerSystem) Execute(frame *ecs.UpdateFrame) {
	cfg := s.Config.Get()
	sp := &cfg.Spawner
	if !sp.Enabled {
		return
	}

	s.timer += frame.DeltaTime
	if s.timer <= sp.Interval {
		return
	}
	s.timer = 0

	if sp.MaxBodies > 0 && s.Bodies.Count() >= sp.MaxBodies {
		return
	}

	var cx, cy float64
	if player, ok := s.Players.First(); ok {
		cx, cy = player.Position.X, player.Position.Y
	}

	angle := s.rng.Float64() * 2 * math.Pi
	x := cx + math.Cos(angle)*sp.RingRadius
	y := cy + math.Sin(angle)*sp.RingRadius

	// Head back through the ring center with some spread.
	heading := angle + math.Pi + uniform(s.rng, -0.5, 0.5)
	speed := uniform(s.rng, sp.MinSpeed, sp.MaxSpeed)

	kind, amount := randomBody(s.rng, sp)
	id := SpawnBody(frame.Storage,
		component.Position{X: x, Y: y},
		component.Velocity{DX: math.Cos(heading) * speed, DY: math.Sin(heading) * speed},
		kind, amount, amount,
	)
	s.logger.Debug("spawned body",
		zap.Uint64("entity", uint64(id)),
		zap.String("kind", string(kind)),
		zap.Int("amount", amount),
	)
}
