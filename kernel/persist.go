package kernel

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/plus3/driftworks/savefile"
	"github.com/plus3/driftworks/snapshot"
)

// Snapshot captures the persistent state of the world.
func (k *Kernel) Snapshot() snapshot.Snapshot {
	return snapshot.Capture(k.storage, k.world)
}

// Restore replaces the world with snap and sets the tick counter. A
// rejected snapshot leaves the world untouched.
func (k *Kernel) Restore(snap snapshot.Snapshot, tick uint64) error {
	if err := snap.Apply(k.storage, k.world, k.cfg); err != nil {
		k.logger.Warn("restore rejected", zap.Error(err))
		return err
	}
	k.scheduler.SetTick(tick)
	k.resetSystems()
	k.events.Drain()
	k.logger.Info("world restored",
		zap.Uint64("tick", tick),
		zap.Int("entities", k.storage.Len()),
	)
	return nil
}

// SaveFile writes the world to path.
func (k *Kernel) SaveFile(path string) (savefile.Header, error) {
	h, err := savefile.WriteFile(path, k.Tick(), k.Snapshot())
	if err != nil {
		k.logger.Error("save failed", zap.String("path", path), zap.Error(err))
		return h, err
	}
	k.logger.Info("saved", zap.String("path", path), zap.Stringer("save_id", h.SaveID), zap.Uint64("tick", h.Tick))
	return h, nil
}

// LoadFile replaces the world with the save at path. The save is read and
// verified in full before the live world is cleared.
func (k *Kernel) LoadFile(path string) (savefile.Header, error) {
	save, err := savefile.ReadFile(path)
	if err != nil {
		k.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
		return save.Header, err
	}
	return save.Header, errors.Wrap(k.Restore(save.Snapshot, save.Header.Tick), path)
}

// SaveSlot writes the world into a named slot.
func (k *Kernel) SaveSlot(ctx context.Context, slots *savefile.SlotStore, name string) (savefile.Header, error) {
	h, err := slots.Save(ctx, name, k.Tick(), k.Snapshot())
	if err != nil {
		k.logger.Error("slot save failed", zap.String("slot", name), zap.Error(err))
		return h, err
	}
	k.logger.Info("saved slot", zap.String("slot", name), zap.Stringer("save_id", h.SaveID))
	return h, nil
}

// LoadSlot replaces the world with a named slot.
func (k *Kernel) LoadSlot(ctx context.Context, slots *savefile.SlotStore, name string) (savefile.Header, error) {
	save, err := slots.Load(ctx, name)
	if err != nil {
		k.logger.Warn("slot load failed", zap.String("slot", name), zap.Error(err))
		return save.Header, err
	}
	return save.Header, errors.Wrap(k.Restore(save.Snapshot, save.Header.Tick), name)
}
