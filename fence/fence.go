// Package fence models geofence polygons and the keep-in/keep-out semantics
// consumed by the trajectory monitor.
package fence

import (
	"github.com/golang/geo/r3"

	"go.icarous.dev/core/geo"
)

// Type distinguishes a keep-in boundary (violated by leaving it) from a
// keep-out boundary (violated by entering it).
type Type int

const (
	KeepIn Type = iota
	KeepOut
)

// Fence is a polygon with a floor/ceiling altitude band and a type.
type Fence struct {
	ID       string
	Type     Type
	Vertices []geo.Point
	Floor    float64
	Ceiling  float64
}

// ProjectedVertices projects the fence's vertices into the ENU frame anchored
// by pr. The ring is left open (the first vertex is not repeated); Edges
// wraps the last vertex back to the first itself.
func (f Fence) ProjectedVertices(pr *geo.Projector) []r3.Vector {
	out := make([]r3.Vector, len(f.Vertices))
	for i, v := range f.Vertices {
		out[i] = pr.Project(v)
	}
	return out
}

// Contains reports whether the projected point pos lies within the fence's
// horizontal polygon and altitude band.
func (f Fence) Contains(pr *geo.Projector, pos geo.Point) bool {
	if pos.Alt < f.Floor || pos.Alt > f.Ceiling {
		return false
	}
	p := pr.Project(pos)
	return geo.PointInPolygon(p, f.ProjectedVertices(pr))
}

// Violated reports whether pos violates this fence: outside a KEEP_IN, or
// inside a KEEP_OUT.
func (f Fence) Violated(pr *geo.Projector, pos geo.Point) bool {
	inside := f.Contains(pr, pos)
	if f.Type == KeepIn {
		return !inside
	}
	return inside
}

// Edges returns the horizontal edges of the fence polygon as consecutive
// vertex pairs, projected into the ENU frame anchored by pr.
func (f Fence) Edges(pr *geo.Projector) [][2]r3.Vector {
	verts := f.ProjectedVertices(pr)
	n := len(verts)
	if n < 2 {
		return nil
	}
	edges := make([][2]r3.Vector, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, [2]r3.Vector{verts[i], verts[(i+1)%n]})
	}
	return edges
}
