package spatial_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	x, y float64
	id   ecs.EntityId
}

func bruteForce(points []sample, cx, cy, r float64) []ecs.EntityId {
	var out []ecs.EntityId
	for _, p := range points {
		dx, dy := p.x-cx, p.y-cy
		if dx*dx+dy*dy <= r*r {
			out = append(out, p.id)
		}
	}
	return out
}

func sorted(ids []ecs.EntityId) []ecs.EntityId {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

func TestQueryRadiusMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	bounds := spatial.Rect{W: 3000, H: 3000}

	for _, capacity := range []int{1, 4, 8, 32} {
		tree := spatial.NewQuadTree(bounds, capacity)

		points := make([]sample, 0, 500)
		for i := 0; i < 500; i++ {
			p := sample{
				x:  rng.Float64()*6000 - 3000,
				y:  rng.Float64()*6000 - 3000,
				id: ecs.NewEntityId(uint32(i), 1),
			}
			points = append(points, p)
			require.True(t, tree.Insert(p.x, p.y, p.id))
		}
		assert.Equal(t, len(points), tree.Count())

		for i := 0; i < 50; i++ {
			cx := rng.Float64()*6000 - 3000
			cy := rng.Float64()*6000 - 3000
			r := rng.Float64() * 800

			want := sorted(bruteForce(points, cx, cy, r))
			got := sorted(tree.QueryRadius(cx, cy, r))
			assert.Equal(t, want, got, "capacity=%d query=(%f,%f,%f)", capacity, cx, cy, r)
		}
	}
}

func TestInsertOutsideBoundaryIsRejected(t *testing.T) {
	tree := spatial.NewQuadTree(spatial.Rect{W: 100, H: 100}, spatial.DefaultCapacity)

	assert.False(t, tree.Insert(101, 0, ecs.NewEntityId(1, 1)))
	assert.True(t, tree.Insert(100, 100, ecs.NewEntityId(2, 1)))
	assert.Equal(t, 1, tree.Count())
	assert.Empty(t, tree.QueryRadius(101, 0, 0.5))
}

func TestRadiusBoundaryIsInclusive(t *testing.T) {
	tree := spatial.NewQuadTree(spatial.Rect{W: 100, H: 100}, spatial.DefaultCapacity)
	id := ecs.NewEntityId(1, 1)
	tree.Insert(3, 4, id)

	assert.Equal(t, []ecs.EntityId{id}, tree.QueryRadius(0, 0, 5))
	assert.Empty(t, tree.QueryRadius(0, 0, 4.999))
}

func TestCoincidentPointsDoNotOverflow(t *testing.T) {
	tree := spatial.NewQuadTree(spatial.Rect{W: 100, H: 100}, 2)
	for i := 0; i < 100; i++ {
		require.True(t, tree.Insert(10, 10, ecs.NewEntityId(uint32(i), 1)))
	}
	assert.Len(t, tree.QueryRadius(10, 10, 0), 100)
}

func TestClear(t *testing.T) {
	tree := spatial.NewQuadTree(spatial.Rect{W: 100, H: 100}, 1)
	for i := 0; i < 10; i++ {
		tree.Insert(float64(i), float64(i), ecs.NewEntityId(uint32(i), 1))
	}
	tree.Clear()

	assert.Equal(t, 0, tree.Count())
	assert.Empty(t, tree.QueryRadius(0, 0, 1000))

	tree.Insert(1, 1, ecs.NewEntityId(1, 1))
	assert.Equal(t, 1, tree.Count())
}
