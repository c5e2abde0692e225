package geo

import (
	"math"

	"github.com/golang/geo/r3"
)

// TurnCenter computes the center of the turn arc entered at entry on inbound
// track inboundTrackDeg with the given signed radius (positive = right turn).
func TurnCenter(entry r3.Vector, inboundTrackDeg, radius float64) r3.Vector {
	rad := inboundTrackDeg * math.Pi / 180.0
	// Perpendicular to the inbound track, to the right when radius > 0.
	perp := r3.Vector{X: math.Cos(rad), Y: -math.Sin(rad)}
	if radius < 0 {
		perp = perp.Mul(-1)
	}
	offset := perp.Mul(math.Abs(radius))
	return r3.Vector{X: entry.X + offset.X, Y: entry.Y + offset.Y, Z: entry.Z}
}

// RadialBearing returns the bearing (track-angle convention, degrees from
// north) from center to pos.
func RadialBearing(center, pos r3.Vector) float64 {
	dx := pos.X - center.X
	dy := pos.Y - center.Y
	if math.Hypot(dx, dy) < Epsilon {
		return 0
	}
	return math.Mod(math.Atan2(dx, dy)*180.0/math.Pi+360.0, 360.0)
}

// TangentHeading returns the ideal tangent-to-circle heading at pos for a
// turn of the given signed radius centered at center:
// the bearing from center to pos, offset +90° for a right turn (radius > 0)
// or -90° for a left turn.
func TangentHeading(center, pos r3.Vector, radius float64) float64 {
	brg := RadialBearing(center, pos)
	if radius >= 0 {
		return math.Mod(brg+90+360, 360)
	}
	return math.Mod(brg-90+360, 360)
}

// RadialError returns (distance_to_center/|radius| - 1), the dimensionless
// error the turn-tracking proportional gain corrects against.
func RadialError(center, pos r3.Vector, radius float64) float64 {
	if math.Abs(radius) < Epsilon {
		return 0
	}
	dist := math.Hypot(pos.X-center.X, pos.Y-center.Y)
	return dist/math.Abs(radius) - 1
}

// ClipDeg clamps a correction in degrees to [-limit, limit].
func ClipDeg(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// NormalizeHeadingDelta returns the signed shortest angular delta from a to b
// in degrees, in [-180, 180).
func NormalizeHeadingDelta(a, b float64) float64 {
	d := math.Mod(b-a+540, 360) - 180
	return d
}
