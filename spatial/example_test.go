package spatial_test

import (
	"fmt"
	"slices"

	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/spatial"
)

// ExampleQuadTree_QueryRadius rebuilds a small index and asks for the points
// within 10 units of the origin. The radius is inclusive and result order is
// unspecified, so the ids are sorted before printing.
func ExampleQuadTree_QueryRadius() {
	tree := spatial.NewQuadTree(spatial.Rect{W: 100, H: 100}, 2)

	tree.Insert(3, 4, ecs.EntityId(1))
	tree.Insert(10, 0, ecs.EntityId(2))
	tree.Insert(8, 8, ecs.EntityId(3))
	tree.Insert(-50, 60, ecs.EntityId(4))
	fmt.Println("outside accepted:", tree.Insert(200, 0, ecs.EntityId(5)))

	found := tree.QueryRadius(0, 0, 10)
	slices.Sort(found)
	fmt.Println("stored:", tree.Count())
	fmt.Println("found:", found)

	// Output:
	// outside accepted: false
	// stored: 4
	// found: [1 2]
}
