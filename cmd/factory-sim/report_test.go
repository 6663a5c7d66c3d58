package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/kernel"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3, 1, 2}}
	s.Finalize()
	assert.Equal(t, time.Duration(1), s.Min)
	assert.Equal(t, time.Duration(3), s.Max)
	assert.Equal(t, time.Duration(2), s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportGenerate(t *testing.T) {
	counter := event.Counter{}
	cfg := config.Default()
	k, err := kernel.New(kernel.Options{Config: &cfg, Sink: counter})
	require.NoError(t, err)
	k.NewWorld()

	r := &Report{Seed: cfg.Spawner.Seed, Events: counter}
	for i := 0; i < 10; i++ {
		start := time.Now()
		k.Step(1.0 / 60)
		r.StepTime.Samples = append(r.StepTime.Samples, time.Since(start))
	}
	r.Fill(k)

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))
	out := buf.String()
	assert.Contains(t, out, "**Ticks:** 0 -> 10 (10 run)")
	assert.Contains(t, out, "- player: 1")
	assert.Contains(t, out, "- iron: 100")
	assert.Contains(t, out, "unpaced")
	assert.Contains(t, out, "component.ResourceBody")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", "json")
	assert.NoError(t, err)
	_, err = newLogger("info", "console")
	assert.NoError(t, err)
	_, err = newLogger("loud", "json")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
