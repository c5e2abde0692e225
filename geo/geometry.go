package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
)

// Epsilon guards every division in this package; geo never divides by a
// value smaller than this.
const Epsilon = 1e-6

// VelocityPolar is a (track, ground-speed, vertical-speed) velocity.
type VelocityPolar struct {
	TrackDeg    float64
	GroundSpeed float64
	VerticalSpeed float64
}

// ToENU converts to the East/North/Up representation losslessly.
func (v VelocityPolar) ToENU() r3.Vector {
	rad := v.TrackDeg * math.Pi / 180.0
	return r3.Vector{
		X: v.GroundSpeed * math.Sin(rad),
		Y: v.GroundSpeed * math.Cos(rad),
		Z: v.VerticalSpeed,
	}
}

// ENUToPolar converts an ENU velocity vector to (track, ground-speed,
// vertical-speed), losslessly inverting ToENU.
func ENUToPolar(v r3.Vector) VelocityPolar {
	gs := math.Hypot(v.X, v.Y)
	track := 0.0
	if gs > Epsilon {
		track = math.Mod(math.Atan2(v.X, v.Y)*180.0/math.Pi+360.0, 360.0)
	}
	return VelocityPolar{TrackDeg: track, GroundSpeed: gs, VerticalSpeed: v.Z}
}

// horiz drops the vertical component, returning the East/North plane vector.
func horiz(v r3.Vector) r3.Vector { return r3.Vector{X: v.X, Y: v.Y} }

// SegmentProjection projects p onto the infinite line through a,b and returns
// the closest point, the normalized longitudinal progress along segment a->b
// (can be <0 or >1 when p projects outside the segment), and the signed
// perpendicular (cross-track) distance: positive when p is to the right of
// the a->b heading.
func SegmentProjection(p, a, b r3.Vector) (closest r3.Vector, t, xtrack float64) {
	ph, ah, bh := horiz(p), horiz(a), horiz(b)
	ab := bh.Sub(ah)
	lenSq := ab.Dot(ab)
	if lenSq < Epsilon*Epsilon {
		return ah, 0, ph.Sub(ah).Norm()
	}
	ap := ph.Sub(ah)
	t = ap.Dot(ab) / lenSq
	closestH := ah.Add(ab.Mul(t))
	// cross product z-component gives signed perpendicular distance; positive
	// when p is to the right of a->b (clockwise, matching track-angle sign
	// convention where a right turn is positive).
	cross := ab.X*ap.Y - ab.Y*ap.X
	xtrack = -cross / math.Sqrt(lenSq)
	return r3.Vector{X: closestH.X, Y: closestH.Y, Z: a.Z + (b.Z-a.Z)*t}, t, xtrack
}

// CircleLineIntersections returns the intersections of the circle centered at
// center with the given radius with the infinite line through a,b, ordered
// along the direction a->b when two exist.
func CircleLineIntersections(center, a, b r3.Vector, radius float64) []r3.Vector {
	ch, ah, bh := horiz(center), horiz(a), horiz(b)
	d := bh.Sub(ah)
	lenSq := d.Dot(d)
	if lenSq < Epsilon*Epsilon {
		return nil
	}
	f := ah.Sub(ch)
	aCoef := lenSq
	bCoef := 2 * f.Dot(d)
	cCoef := f.Dot(f) - radius*radius
	disc := bCoef*bCoef - 4*aCoef*cCoef
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	t1 := (-bCoef - sq) / (2 * aCoef)
	t2 := (-bCoef + sq) / (2 * aCoef)
	var out []r3.Vector
	for _, t := range []float64{t1, t2} {
		out = append(out, r3.Vector{X: ah.X + t*d.X, Y: ah.Y + t*d.Y})
	}
	return out
}

// TimeToEdgeCrossing returns the non-negative time at which a point starting
// at pos moving at constant velocity vel (horizontal only) crosses the
// segment a-b, or +Inf if it never does within the segment's bounds.
func TimeToEdgeCrossing(pos, vel, a, b r3.Vector) float64 {
	posH, velH, ah, bh := horiz(pos), horiz(vel), horiz(a), horiz(b)
	edge := bh.Sub(ah)
	denom := velH.X*edge.Y - velH.Y*edge.X
	if math.Abs(denom) < Epsilon {
		return math.Inf(1)
	}
	diff := ah.Sub(posH)
	t := (diff.X*edge.Y - diff.Y*edge.X) / denom
	if t < 0 {
		return math.Inf(1)
	}
	// u parameterizes the point along the edge; must land within [0,1].
	u := (diff.X*velH.Y - diff.Y*velH.X) / denom
	if u < 0 || u > 1 {
		return math.Inf(1)
	}
	return t
}

// PointInPolygon reports whether p lies inside the horizontal polygon given
// as an ordered list of vertices (ray-casting).
func PointInPolygon(p r3.Vector, polygon []r3.Vector) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := polygon[i], polygon[j]
		if ((vi.Y > p.Y) != (vj.Y > p.Y)) &&
			(p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y+signGuard(vj.Y-vi.Y))+vi.X) {
			inside = !inside
		}
	}
	return inside
}

func signGuard(v float64) float64 {
	if math.Abs(v) < Epsilon {
		return Epsilon
	}
	return 0
}

// SegmentsIntersect reports whether segments p1-p2 and p3-p4 intersect
// (horizontal only), used for plan/polygon timing and line-of-sight checks.
func SegmentsIntersect(p1, p2, p3, p4 r3.Vector) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if floats.EqualWithinAbs(d1, 0, Epsilon) && onSegment(p3, p4, p1) {
		return true
	}
	if floats.EqualWithinAbs(d2, 0, Epsilon) && onSegment(p3, p4, p2) {
		return true
	}
	if floats.EqualWithinAbs(d3, 0, Epsilon) && onSegment(p1, p2, p3) {
		return true
	}
	if floats.EqualWithinAbs(d4, 0, Epsilon) && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

func direction(a, b, c r3.Vector) float64 {
	ab := horiz(b).Sub(horiz(a))
	ac := horiz(c).Sub(horiz(a))
	return ab.X*ac.Y - ab.Y*ac.X
}

func onSegment(a, b, p r3.Vector) bool {
	ah, bh, ph := horiz(a), horiz(b), horiz(p)
	return math.Min(ah.X, bh.X)-Epsilon <= ph.X && ph.X <= math.Max(ah.X, bh.X)+Epsilon &&
		math.Min(ah.Y, bh.Y)-Epsilon <= ph.Y && ph.Y <= math.Max(ah.Y, bh.Y)+Epsilon
}
