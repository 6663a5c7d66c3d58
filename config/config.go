// Package config holds the simulation tunables. Defaults reproduce the
// stock game; a YAML file may override any subset of them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plus3/driftworks/gamedata"
)

type Config struct {
	World      World      `yaml:"world"`
	Mining     Mining     `yaml:"mining"`
	Chunks     Chunks     `yaml:"chunks"`
	Player     Player     `yaml:"player"`
	Collector  Collector  `yaml:"collector"`
	Storage    Storage    `yaml:"storage"`
	Drone      Drone      `yaml:"drone"`
	Turret     Turret     `yaml:"turret"`
	Spatial    Spatial    `yaml:"spatial"`
	Spawner    Spawner    `yaml:"spawner"`
	Builder    Builder    `yaml:"builder"`
	Production Production `yaml:"production"`

	StarterItems map[gamedata.Resource]int `yaml:"starter_items"`
}

type World struct {
	MapLimit   float64 `yaml:"map_limit"`
	TileSize   float64 `yaml:"tile_size"`
	BuildRange float64 `yaml:"build_range"`
	// CullScale multiplies MapLimit to get the boundary past which drifting
	// bodies are removed. It is also the spatial index root extent.
	CullScale float64 `yaml:"cull_scale"`
}

type Mining struct {
	Amount     int     `yaml:"amount"`
	Rate       float64 `yaml:"rate"`
	HitRadius  float64 `yaml:"hit_radius"`
	ScatterMin float64 `yaml:"scatter_min"`
	ScatterMax float64 `yaml:"scatter_max"`
}

type Chunks struct {
	Lifetime     float64 `yaml:"lifetime"`
	Drag         float64 `yaml:"drag"`
	PickupRadius float64 `yaml:"pickup_radius"`
}

type Player struct {
	Speed        float64 `yaml:"speed"`
	CollectRange float64 `yaml:"collect_range"`
	CollectPull  float64 `yaml:"collect_pull"`
	StartX       float64 `yaml:"start_x"`
	StartY       float64 `yaml:"start_y"`
}

type Collector struct {
	Range float64 `yaml:"range"`
	Pull  float64 `yaml:"pull"`
	// Capacity of zero means unlimited.
	Capacity int `yaml:"capacity"`
}

type Storage struct {
	Capacity int `yaml:"capacity"`
}

type Drone struct {
	Speed           float64 `yaml:"speed"`
	Capacity        int     `yaml:"capacity"`
	ArrivalDistance float64 `yaml:"arrival_distance"`
	StationRadius   float64 `yaml:"station_radius"`
	InputStock      int     `yaml:"input_stock_multiple"`
}

type Turret struct {
	Range           float64 `yaml:"range"`
	Cooldown        float64 `yaml:"cooldown"`
	Damage          int     `yaml:"damage"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	Lifetime        float64 `yaml:"projectile_lifetime"`
	HitRadius       float64 `yaml:"hit_radius"`
}

type Spatial struct {
	Capacity int `yaml:"capacity"`
}

type Spawner struct {
	Enabled       bool    `yaml:"enabled"`
	Seed          uint64  `yaml:"seed"`
	InitialCount  int     `yaml:"initial_count"`
	InitialSpread float64 `yaml:"initial_spread"`
	InitialSpeed  float64 `yaml:"initial_speed"`
	Interval      float64 `yaml:"interval"`
	RingRadius    float64 `yaml:"ring_radius"`
	MinSpeed      float64 `yaml:"min_speed"`
	MaxSpeed      float64 `yaml:"max_speed"`
	MinAmount     int     `yaml:"min_amount"`
	MaxAmount     int     `yaml:"max_amount"`
	MaxBodies     int     `yaml:"max_bodies"`
}

type Builder struct {
	ClickCooldown float64 `yaml:"click_cooldown"`
}

type Production struct {
	// StartAdvances makes the tick that starts a recipe also count towards
	// its progress.
	StartAdvances bool `yaml:"start_advances"`
}

// Default returns the stock tunables.
func Default() Config {
	return Config{
		World: World{
			MapLimit:   2000,
			TileSize:   48,
			BuildRange: 300,
			CullScale:  1.5,
		},
		Mining: Mining{
			Amount:     1,
			Rate:       0.2,
			HitRadius:  32,
			ScatterMin: 20,
			ScatterMax: 50,
		},
		Chunks: Chunks{
			Lifetime:     30,
			Drag:         0.95,
			PickupRadius: 20,
		},
		Player: Player{
			Speed:        300,
			CollectRange: 100,
			CollectPull:  400,
		},
		Collector: Collector{
			Range: 600,
			Pull:  300,
		},
		Storage: Storage{Capacity: 100},
		Drone: Drone{
			Speed:           200,
			Capacity:        10,
			ArrivalDistance: 5,
			StationRadius:   10,
			InputStock:      5,
		},
		Turret: Turret{
			Range:           300,
			Cooldown:        1,
			Damage:          10,
			ProjectileSpeed: 100,
			Lifetime:        5,
			HitRadius:       20,
		},
		Spatial: Spatial{Capacity: 8},
		Spawner: Spawner{
			Enabled:       true,
			Seed:          1,
			InitialCount:  50,
			InitialSpread: 2000,
			InitialSpeed:  40,
			Interval:      1,
			RingRadius:    900,
			MinSpeed:      10,
			MaxSpeed:      40,
			MinAmount:     5,
			MaxAmount:     50,
			MaxBodies:     400,
		},
		Builder: Builder{ClickCooldown: 0.15},
		StarterItems: map[gamedata.Resource]int{
			gamedata.Iron:    100,
			gamedata.Gold:    50,
			gamedata.Silicon: 50,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(raw)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"world.map_limit", c.World.MapLimit},
		{"world.tile_size", c.World.TileSize},
		{"world.cull_scale", c.World.CullScale},
		{"mining.rate", c.Mining.Rate},
		{"chunks.lifetime", c.Chunks.Lifetime},
		{"chunks.pickup_radius", c.Chunks.PickupRadius},
		{"drone.speed", c.Drone.Speed},
		{"drone.arrival_distance", c.Drone.ArrivalDistance},
		{"turret.cooldown", c.Turret.Cooldown},
		{"turret.projectile_speed", c.Turret.ProjectileSpeed},
		{"turret.projectile_lifetime", c.Turret.Lifetime},
		{"builder.click_cooldown", c.Builder.ClickCooldown},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", p.name, p.value)
		}
	}

	switch {
	case c.Chunks.Drag < 0 || c.Chunks.Drag > 1:
		return fmt.Errorf("config: chunks.drag must be within [0,1], got %v", c.Chunks.Drag)
	case c.Mining.Amount < 1:
		return fmt.Errorf("config: mining.amount must be at least 1, got %d", c.Mining.Amount)
	case c.Mining.ScatterMax < c.Mining.ScatterMin:
		return fmt.Errorf("config: mining.scatter_max below scatter_min")
	case c.Drone.Capacity < 1:
		return fmt.Errorf("config: drone.capacity must be at least 1, got %d", c.Drone.Capacity)
	case c.Storage.Capacity < 0 || c.Collector.Capacity < 0:
		return fmt.Errorf("config: capacities cannot be negative")
	case c.Spawner.MaxAmount < c.Spawner.MinAmount || c.Spawner.MinAmount < 1:
		return fmt.Errorf("config: spawner amount range [%d,%d] is invalid", c.Spawner.MinAmount, c.Spawner.MaxAmount)
	case c.Spawner.Enabled && c.Spawner.Interval <= 0:
		return fmt.Errorf("config: spawner.interval must be positive")
	}

	for res, n := range c.StarterItems {
		if !res.Known() {
			return fmt.Errorf("config: unknown starter item %q", res)
		}
		if n < 0 {
			return fmt.Errorf("config: starter item %q is negative", res)
		}
	}
	return nil
}

// CullLimit is the extended boundary used for body culling and the spatial
// index root.
func (c Config) CullLimit() float64 {
	return c.World.MapLimit * c.World.CullScale
}
