package grid

import (
	"errors"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/input"
)

// BuilderSystem maps input onto the placement commands. Clicks already
// consumed by a higher-priority handler are ignored.
type BuilderSystem struct {
	Input  ecs.Singleton[input.State]
	Config ecs.Singleton[config.Config]

	world    *World
	logger   *zap.Logger
	cooldown float64

	// LastError is the outcome of the most recent command, nil on success.
	LastError error
	// Preview is the placement check for the cell under the cursor.
	Preview error
}

func NewBuilderSystem(world *World, logger *zap.Logger) *BuilderSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuilderSystem{world: world, logger: logger}
}

// Reset clears the click cooldown and the last outcomes.
func (s *BuilderSystem) Reset() {
	s.cooldown = 0
	s.LastError = nil
	s.Preview = nil
}

func (s *BuilderSystem) Execute(frame *ecs.UpdateFrame) {
	in := s.Input.Get()
	if in == nil {
		return
	}
	s.selectFromInput(in)

	cell := s.world.CellAt(in.CursorX, in.CursorY)
	s.Preview = s.world.Check(cell, s.world.Selected())

	if s.cooldown > 0 {
		s.cooldown -= frame.DeltaTime
	}
	if in.Consumed || s.cooldown > 0 {
		return
	}

	switch {
	case in.IsHeld(input.Primary):
		if s.Preview != nil {
			return
		}
		s.LastError = s.world.Build(cell)
	case in.IsHeld(input.Secondary):
		s.LastError = s.world.Remove(cell)
	default:
		return
	}

	s.cooldown = s.Config.Get().Builder.ClickCooldown
	var perr *PlacementError
	if errors.As(s.LastError, &perr) {
		s.logger.Debug("placement rejected", zap.String("op", perr.Op), zap.String("reason", perr.Reason()))
	}
}

func (s *BuilderSystem) selectFromInput(in *input.State) {
	for i, b := range gamedata.Toolbar {
		if in.IsHeld(input.Slot(i + 1)) {
			_ = s.world.SelectBlock(b)
			return
		}
	}

	if in.Scroll == 0 {
		return
	}
	idx := 0
	for i, b := range gamedata.Toolbar {
		if b == s.world.Selected() {
			idx = i
		}
	}
	n := len(gamedata.Toolbar)
	if in.Scroll > 0 {
		idx = (idx + 1) % n
	} else {
		idx = (idx - 1 + n) % n
	}
	_ = s.world.SelectBlock(gamedata.Toolbar[idx])
}
