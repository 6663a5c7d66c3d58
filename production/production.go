// Package production runs recipes inside machines.
package production

import (
	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

// Match returns the first recipe of the machine kind whose inputs inv
// covers.
func Match(kind gamedata.Block, inv *component.Inventory) (gamedata.Recipe, bool) {
	for _, r := range gamedata.Recipes {
		if r.Machine != kind {
			continue
		}
		if inv.Has(r.Inputs) {
			return r, true
		}
	}
	return gamedata.Recipe{}, false
}

// System advances every machine. An idle machine starts the first
// satisfiable recipe and reserves its inputs at once; a working machine
// accumulates time and emits outputs when done.
type System struct {
	Machines ecs.Query[struct {
		ecs.EntityId
		*component.Machine
		*component.Inventory
	}]
	Config ecs.Singleton[config.Config]

	logger *zap.Logger
}

func NewSystem(logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{logger: logger}
}

func (s *System) Execute(frame *ecs.UpdateFrame) {
	startAdvances := false
	if cfg := s.Config.Get(); cfg != nil {
		startAdvances = cfg.Production.StartAdvances
	}

	for id, item := range s.Machines.Iter() {
		m := item.Machine
		if !m.Working {
			if !s.start(id, m, item.Inventory) || !startAdvances {
				continue
			}
		}
		Advance(m, item.Inventory, frame.DeltaTime)
	}
}

func (s *System) start(id ecs.EntityId, m *component.Machine, inv *component.Inventory) bool {
	recipe, ok := Match(m.Kind, inv)
	if !ok {
		return false
	}
	inv.RemoveAll(recipe.Inputs)
	m.Recipe = recipe.ID
	m.Required = recipe.Time
	m.Progress = 0
	m.Working = true
	s.logger.Debug("recipe started", zap.Uint64("machine", uint64(id)), zap.String("recipe", recipe.ID))
	return true
}

// Advance adds dt of progress to a working machine and completes the
// recipe when the required time is reached.
func Advance(m *component.Machine, inv *component.Inventory, dt float64) {
	if !m.Working {
		return
	}
	m.Progress += dt
	if m.Progress < m.Required {
		return
	}
	if recipe, ok := gamedata.RecipeByID(m.Recipe); ok {
		inv.AddAll(recipe.Outputs)
	}
	m.Working = false
	m.Progress = 0
	m.Recipe = ""
	m.Required = 0
}
