// Package spatial holds the broad-phase point index used for proximity
// queries. The index is rebuilt from scratch every tick.
package spatial

import "github.com/plus3/driftworks/ecs"

const (
	// DefaultCapacity is the number of points a node holds before it splits.
	DefaultCapacity = 8

	// maxDepth bounds subdivision so coincident points cannot recurse forever.
	maxDepth = 16
)

// Rect is an axis-aligned box given by its center and half extents.
type Rect struct {
	X, Y float64
	W, H float64
}

// Contains reports whether (x, y) lies inside the box, edges included.
func (r Rect) Contains(x, y float64) bool {
	return r.X-r.W <= x && x <= r.X+r.W &&
		r.Y-r.H <= y && y <= r.Y+r.H
}

// Intersects reports whether the two boxes overlap, touching edges included.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X+r.W < o.X-o.W ||
		r.X-r.W > o.X+o.W ||
		r.Y+r.H < o.Y-o.H ||
		r.Y-r.H > o.Y+o.H)
}

type point struct {
	x, y   float64
	entity ecs.EntityId
}

// QuadTree is a region quadtree over entity positions.
type QuadTree struct {
	boundary Rect
	capacity int
	depth    int
	points   []point
	children *[4]QuadTree
}

// NewQuadTree returns an empty tree covering boundary. A capacity below one
// falls back to DefaultCapacity.
func NewQuadTree(boundary Rect, capacity int) *QuadTree {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &QuadTree{boundary: boundary, capacity: capacity}
}

// Boundary returns the region covered by the root.
func (q *QuadTree) Boundary() Rect {
	return q.boundary
}

func (q *QuadTree) subdivide() {
	hw, hh := q.boundary.W/2, q.boundary.H/2
	x, y := q.boundary.X, q.boundary.Y
	q.children = &[4]QuadTree{
		{boundary: Rect{x + hw, y + hh, hw, hh}},
		{boundary: Rect{x - hw, y + hh, hw, hh}},
		{boundary: Rect{x + hw, y - hh, hw, hh}},
		{boundary: Rect{x - hw, y - hh, hw, hh}},
	}
	for i := range q.children {
		q.children[i].capacity = q.capacity
		q.children[i].depth = q.depth + 1
	}

	old := q.points
	q.points = nil
	for _, p := range old {
		q.insertChildren(p)
	}
}

// insertChildren pushes p down a level. A point lost to rounding on a
// shared edge stays in this node.
func (q *QuadTree) insertChildren(p point) {
	for i := range q.children {
		if q.children[i].insert(p) {
			return
		}
	}
	q.points = append(q.points, p)
}

func (q *QuadTree) insert(p point) bool {
	if !q.boundary.Contains(p.x, p.y) {
		return false
	}

	if q.children == nil {
		if len(q.points) < q.capacity || q.depth >= maxDepth {
			q.points = append(q.points, p)
			return true
		}
		q.subdivide()
	}
	q.insertChildren(p)
	return true
}

// Insert adds an entity at (x, y). Points outside the root boundary are
// dropped and Insert returns false.
func (q *QuadTree) Insert(x, y float64, entity ecs.EntityId) bool {
	return q.insert(point{x: x, y: y, entity: entity})
}

// QueryRadius returns every entity within radius of (cx, cy). Result order
// is unspecified.
func (q *QuadTree) QueryRadius(cx, cy, radius float64) []ecs.EntityId {
	return q.AppendRadius(nil, cx, cy, radius)
}

// AppendRadius is QueryRadius appending into dst.
func (q *QuadTree) AppendRadius(dst []ecs.EntityId, cx, cy, radius float64) []ecs.EntityId {
	area := Rect{X: cx, Y: cy, W: radius, H: radius}
	return q.queryRadius(dst, area, cx, cy, radius*radius)
}

func (q *QuadTree) queryRadius(dst []ecs.EntityId, area Rect, cx, cy, radiusSq float64) []ecs.EntityId {
	if !q.boundary.Intersects(area) {
		return dst
	}

	for _, p := range q.points {
		dx, dy := p.x-cx, p.y-cy
		if dx*dx+dy*dy <= radiusSq {
			dst = append(dst, p.entity)
		}
	}

	if q.children != nil {
		for i := range q.children {
			dst = q.children[i].queryRadius(dst, area, cx, cy, radiusSq)
		}
	}
	return dst
}

// Count returns the number of stored points.
func (q *QuadTree) Count() int {
	total := len(q.points)
	if q.children != nil {
		for i := range q.children {
			total += q.children[i].Count()
		}
	}
	return total
}

// Clear resets the tree to an empty root with no children.
func (q *QuadTree) Clear() {
	q.points = q.points[:0]
	q.children = nil
}
