package main

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/kernel"
)

type Report struct {
	// Configuration
	Config   string
	Seed     uint64
	TickRate float64

	// Results
	StartTick uint64
	EndTick   uint64
	TotalTime time.Duration
	StepTime  Stats
	Scheduler *ecs.SchedulerStats
	Storage   *ecs.StorageStats
	Census    map[kernel.SpriteKind]int
	Stock     gamedata.Amounts
	Player    *kernel.PlayerState
	Events    event.Counter
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Fill reads the final state of k into the report.
func (r *Report) Fill(k *kernel.Kernel) {
	r.EndTick = k.Tick()
	r.StepTime.Finalize()
	r.Scheduler = k.Stats()
	r.Storage = k.StorageStats()
	r.Census = k.Census()
	r.Stock = k.Stock()
	if p, ok := k.Player(); ok {
		r.Player = &p
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Factory Simulation Report

## Run
- **Config:** {{if .Config}}{{.Config}}{{else}}defaults{{end}}
- **Seed:** {{.Seed}}
- **Pacing:** {{if .TickRate}}{{.TickRate}} ticks/s{{else}}unpaced{{end}}
- **Ticks:** {{.StartTick}} -> {{.EndTick}} ({{usub .EndTick .StartTick}} run)
- **Wall Time:** {{.TotalTime}}
- **Step Time:**
  - **Avg:** {{.StepTime.Avg}}
  - **Min:** {{.StepTime.Min}}
  - **Max:** {{.StepTime.Max}}

## Systems
{{range .Scheduler.Systems}}- {{printf "%-28s" .Name}} runs={{.ExecutionCount}} avg={{.AvgDuration}} max={{.MaxDuration}}
{{end}}
## Entities
{{range $kind, $n := .Census}}- {{$kind}}: {{$n}}
{{end}}
## Storage
- **Live:** {{.Storage.TotalEntityCount}}  **Free Slots:** {{.Storage.FreeSlotCount}}  **Archetypes:** {{.Storage.ArchetypeCount}}
{{range .Storage.ArchetypeBreakdown}}- #{{.ID}} {{join .Components}}: {{.EntityCount}}
{{end}}
## Stock
{{range $res, $n := .Stock}}- {{$res}}: {{$n}}
{{else}}- (empty)
{{end}}
{{with .Player}}## Player
- **Position:** {{pos .X .Y}}
{{range $res, $n := .Inventory}}- {{$res}}: {{$n}}
{{end}}{{end}}
## Events
{{range $kind, $n := .Events}}- {{$kind}}: {{$n}}
{{else}}- (none)
{{end}}`

	fm := template.FuncMap{
		"usub": func(a, b uint64) uint64 {
			return a - b
		},
		"join": func(names []string) string {
			return strings.Join(names, "+")
		},
		"pos": func(x, y float64) string {
			return fmt.Sprintf("(%.1f, %.1f)", x, y)
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
