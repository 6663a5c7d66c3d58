package ecs

// UpdateFrame is handed to every system during a scheduler tick.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Commands  *Commands
	Storage   *Storage
}

func newUpdateFrame(dt float64, tick uint64, storage *Storage, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Commands:  commands,
		Storage:   storage,
	}
}

// NewUpdateFrame builds a standalone frame for running a single system
// outside a scheduler. The caller flushes Commands.
func NewUpdateFrame(dt float64, storage *Storage) *UpdateFrame {
	return newUpdateFrame(dt, 0, storage, newCommands())
}
