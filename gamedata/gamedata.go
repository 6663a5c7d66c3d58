// Package gamedata holds the static tables of the world: resource kinds,
// placeable blocks and their costs, the recipe table and the autotile
// lookup.
package gamedata

import (
	"fmt"
	"sort"
	"strings"
)

// Resource names a resource kind. Raw ores and refined products share the
// same namespace.
type Resource string

const (
	Iron         Resource = "iron"
	Gold         Resource = "gold"
	Silicon      Resource = "silicon"
	IronBar      Resource = "iron_bar"
	GoldBar      Resource = "gold_bar"
	SiliconWafer Resource = "silicon_wafer"
	Circuit      Resource = "circuit"
)

// Ores are the kinds a resource body can carry.
var Ores = []Resource{Iron, Gold, Silicon}

// Known reports whether r is one of the declared resource kinds.
func (r Resource) Known() bool {
	switch r {
	case Iron, Gold, Silicon, IronBar, GoldBar, SiliconWafer, Circuit:
		return true
	}
	return false
}

// Amounts maps resource kinds to counts. It is used for costs and recipe
// inputs and outputs.
type Amounts map[Resource]int

// Kinds returns the keys in ascending order.
func (a Amounts) Kinds() []Resource {
	kinds := make([]Resource, 0, len(a))
	for r := range a {
		kinds = append(kinds, r)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (a Amounts) String() string {
	parts := make([]string, 0, len(a))
	for _, r := range a.Kinds() {
		parts = append(parts, fmt.Sprintf("%s:%d", r, a[r]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Layer selects the grid layer a block occupies.
type Layer int

const (
	LayerFloor     Layer = 0
	LayerStructure Layer = 1
)

func (l Layer) String() string {
	switch l {
	case LayerFloor:
		return "floor"
	case LayerStructure:
		return "structure"
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

// Block is a placeable block type. The numeric values are stable and are
// written into save files.
type Block int

const (
	NoBlock      Block = 0
	Platform     Block = 1
	Turret       Block = 2
	Collector    Block = 3
	Storage      Block = 4
	DroneStation Block = 5
	Smelter      Block = 6
	Assembler    Block = 7
)

// BlockInfo describes a block type.
type BlockInfo struct {
	Name  string
	Layer Layer
	Cost  Amounts
}

var blocks = map[Block]BlockInfo{
	Platform:     {Name: "Platform", Layer: LayerFloor, Cost: Amounts{Iron: 1}},
	Turret:       {Name: "Turret", Layer: LayerStructure, Cost: Amounts{Iron: 10, Gold: 5}},
	Collector:    {Name: "Collector", Layer: LayerStructure, Cost: Amounts{Iron: 5, Silicon: 5}},
	Storage:      {Name: "Storage", Layer: LayerStructure, Cost: Amounts{Iron: 20}},
	DroneStation: {Name: "Drone Station", Layer: LayerStructure, Cost: Amounts{Iron: 20, Gold: 10, Silicon: 10}},
	Smelter:      {Name: "Smelter", Layer: LayerStructure, Cost: Amounts{Iron: 10, Gold: 5}},
	Assembler:    {Name: "Assembler", Layer: LayerStructure, Cost: Amounts{Iron: 20, Silicon: 10}},
}

// Toolbar is the selection order used by number keys and scrolling.
var Toolbar = []Block{Platform, Turret, Collector, Storage, DroneStation, Smelter, Assembler}

// Info returns the block's description.
func (b Block) Info() (BlockInfo, bool) {
	info, ok := blocks[b]
	return info, ok
}

// Valid reports whether b is a placeable block.
func (b Block) Valid() bool {
	_, ok := blocks[b]
	return ok
}

// Layer returns the grid layer of the block. Unknown blocks report the
// structure layer.
func (b Block) Layer() Layer {
	if info, ok := blocks[b]; ok {
		return info.Layer
	}
	return LayerStructure
}

// Cost returns the build cost of the block.
func (b Block) Cost() Amounts {
	return blocks[b].Cost
}

// IsMachine reports whether the block runs recipes.
func (b Block) IsMachine() bool {
	return b == Smelter || b == Assembler
}

func (b Block) String() string {
	if info, ok := blocks[b]; ok {
		return info.Name
	}
	return fmt.Sprintf("block(%d)", int(b))
}
