package guidance

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/plan"
	"go.icarous.dev/core/store"
)

// runFlightPlan derives a velocity setpoint by running reference speed,
// turn/steering law, climb rate, and filtering against the active plan in
// book, then checks for arrival at the current target waypoint.
func (g *Guidance) runFlightPlan(now time.Time, book *store.Book, pose Pose, wind geo.VelocityPolar) Result {
	activeID := book.ActiveID()
	active, ok := book.Active()
	if !ok || active.Len() < 2 {
		return Result{Setpoint: geo.VelocityPolar{GroundSpeed: 1}, ActivePlanID: activeID}
	}

	nextWP := book.NextWP(activeID)
	if nextWP <= 0 {
		nextWP = 1
	}
	if nextWP >= active.Len() {
		nextWP = active.Len() - 1
	}
	prevWP := active.Waypoints[nextWP-1]
	curWP := active.Waypoints[nextWP]

	pr := geo.NewProjector(prevWP.Position)
	ownPos := pr.Project(pose.Position)
	aV := pr.Project(prevWP.Position)
	bV := pr.Project(curWP.Position)

	windGS := wind.GroundSpeed

	refSpeed := g.referenceSpeed(now, prevWP, curWP, ownPos, bV, windGS)
	inTurn := prevWP.Track.Type == plan.TrackBOT || prevWP.Track.Type == plan.TrackMOT || prevWP.Track.Type == plan.TrackEOTBOT

	var refHeading float64
	if inTurn {
		refHeading, refSpeed = g.turnLaw(now, prevWP, curWP, pr, ownPos, refSpeed)
	} else {
		target := losSteerTarget(ownPos, g.guidanceRadius(pose.Velocity.GroundSpeed), aV, bV)
		refHeading = geo.RadialBearing(ownPos, target)
	}

	refVS := g.referenceClimbRate(prevWP, curWP, pose.Position.Alt, refSpeed, inTurn)

	refHeading, refSpeed = g.filterHeadingAndSpeed(pose, refHeading, refSpeed)

	wpReached, reachedSeq := g.checkArrival(pose, curWP, refSpeed)
	result := Result{
		Setpoint:     geo.VelocityPolar{TrackDeg: refHeading, GroundSpeed: refSpeed, VerticalSpeed: refVS},
		ActivePlanID: activeID,
		ActiveNextWP: nextWP,
	}
	if wpReached {
		book.AdvanceNextWP(activeID)
		result.WPReached = true
		result.ReachedWPSeq = reachedSeq
		result.ActiveNextWP = nextWP + 1
	}
	g.haveLast = true
	g.lastHeadingDeg = refHeading
	g.lastGS = refSpeed
	return result
}

// referenceSpeed picks the target ground speed for the current leg: the
// waypoint's commanded speed, or (under ETA maintenance) the speed needed
// to arrive on schedule.
func (g *Guidance) referenceSpeed(now time.Time, prev, next plan.Waypoint, ownPos, nextPos r3.Vector, windGS float64) float64 {
	lo, hi := g.params.MinHS+windGS, g.params.MaxHS+windGS

	transientEdit := next.GroundSpeedIn <= 0
	if !g.params.MaintainETA || transientEdit {
		return clampf(next.GroundSpeedIn, lo, hi)
	}

	remaining := next.Time.Sub(now).Seconds()
	if remaining < geo.Epsilon {
		remaining = geo.Epsilon
	}
	dist := math.Hypot(nextPos.X-ownPos.X, nextPos.Y-ownPos.Y)
	v := dist / remaining
	return clampf(v, lo, hi)
}

// turnLaw computes the heading and speed to fly while inside an open turn
// segment, tracking the turn's radial with a proportional correction.
func (g *Guidance) turnLaw(now time.Time, prev, next plan.Waypoint, pr *geo.Projector, ownPos r3.Vector, nominalSpeed float64) (heading, speed float64) {
	center := pr.Project(prev.Track.Center)
	radius := prev.Track.Radius
	tangent := geo.TangentHeading(center, ownPos, radius)
	errTerm := geo.RadialError(center, ownPos, radius)
	correction := geo.ClipDeg(g.params.TurnrateGain*errTerm*45, 45)
	heading = math.Mod(tangent+correction+360, 360)

	speed = nominalSpeed
	if g.params.MaintainETA {
		scale := 1.0
		remaining := next.Time.Sub(now).Seconds()
		nominal := math.Abs(radius) * math.Pi / math.Max(nominalSpeed, geo.Epsilon)
		if remaining > 0 && nominal > 0 {
			if remaining < nominal {
				scale = 1.3
			} else if remaining > nominal {
				scale = 0.9
			}
		}
		omega := scale * nominalSpeed / math.Max(math.Abs(radius), geo.Epsilon)
		speed = math.Abs(radius) * omega
	}
	return heading, speed
}

// guidanceRadius scales the line-of-sight steering circle with ground speed.
func (g *Guidance) guidanceRadius(gs float64) float64 {
	return math.Max(1, gs*g.params.GuidanceRadiusScaling)
}

// losSteerTarget implements the line-of-sight-circle steering law: a circle
// of radius guidanceRadius centered on ownPos, steering toward whichever
// point on segment A->B the geometry calls for.
func losSteerTarget(ownPos r3.Vector, guidanceRadius float64, a, b r3.Vector) r3.Vector {
	distB := ownPos.Sub(b).Norm()
	if distB <= guidanceRadius {
		return b
	}
	distA := ownPos.Sub(a).Norm()
	if distA <= guidanceRadius {
		return nearestCircleIntersection(ownPos, guidanceRadius, a, b, b)
	}
	closest, t, xtrack := geo.SegmentProjection(ownPos, a, b)
	if t < 0 {
		return a
	}
	if t > 1 {
		return b
	}
	if math.Abs(xtrack) < guidanceRadius {
		return nearestCircleIntersection(ownPos, guidanceRadius, a, b, b)
	}
	return closest
}

func nearestCircleIntersection(center r3.Vector, radius float64, a, b, preferNear r3.Vector) r3.Vector {
	pts := geo.CircleLineIntersections(center, a, b, radius)
	if len(pts) == 0 {
		return b
	}
	best := pts[0]
	bestDist := best.Sub(preferNear).Norm()
	for _, p := range pts[1:] {
		if d := p.Sub(preferNear).Norm(); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// referenceClimbRate picks a vertical speed: a bang-bang max climb/descent
// once the altitude error exceeds the climb-angle threshold, otherwise a
// proportional rate that tracks the leg's planned glide angle.
func (g *Guidance) referenceClimbRate(prev, next plan.Waypoint, curAlt, refSpeed float64, inTurn bool) float64 {
	deltaH := next.Position.Alt - curAlt
	deltaHRef := next.Position.Alt - prev.Position.Alt

	var vs float64
	if math.Abs(deltaH) > g.params.ClimbAngle {
		if deltaH > 0 {
			vs = g.params.MaxVS
		} else {
			vs = g.params.MinVS
		}
		if g.params.MaintainETA {
			vs = g.params.ClimbRateGain * deltaH
		}
	} else {
		vs = g.params.ClimbRateGain * deltaH
		if !inTurn && math.Abs(deltaHRef) > geo.Epsilon {
			dist := math.Max(geo.GroundDistance(prev.Position, next.Position), geo.Epsilon)
			angle := math.Atan2(deltaHRef, dist)
			if (angle < 0) != (deltaH < 0) {
				angle = -angle
			}
			vs = math.Tan(angle) * refSpeed
		}
	}
	return clampf(vs, g.params.MinVS, g.params.MaxVS)
}

// filterHeadingAndSpeed slows the reference speed through a large heading
// change and rate-limits the speed setpoint against the last commanded
// ground speed.
func (g *Guidance) filterHeadingAndSpeed(pose Pose, refHeading, refSpeed float64) (float64, float64) {
	curHeading := pose.Velocity.TrackDeg
	if g.haveLast {
		curHeading = g.lastHeadingDeg
	}
	turn := math.Abs(geo.NormalizeHeadingDelta(curHeading, refHeading))
	if turn > 60 {
		refSpeed = math.Max(g.params.MinHS, pose.Velocity.GroundSpeed/4)
	}

	speedRange := g.params.MaxHS - g.params.MinHS
	curGS := pose.Velocity.GroundSpeed
	if g.haveLast {
		curGS = g.lastGS
	}
	if speedRange > geo.Epsilon && math.Abs(refSpeed-curGS) > speedRange/2 {
		if refSpeed > curGS {
			refSpeed = curGS + speedRange/2
		} else {
			refSpeed = curGS - speedRange/2
		}
	}
	return refHeading, refSpeed
}

// checkArrival reports whether wp counts as reached: inside the capture
// radius and the vertical band, and not yet behind ownship along its
// direction of travel (velocity dotted with the vector to wp is
// non-negative), with an exemption from that direction check for very slow
// ground speeds.
func (g *Guidance) checkArrival(pose Pose, wp plan.Waypoint, refSpeed float64) (reached bool, seq int) {
	pr := geo.NewProjector(wp.Position)
	posV := pr.Project(pose.Position)
	wpV := pr.Project(wp.Position)

	horizDist := math.Hypot(wpV.X-posV.X, wpV.Y-posV.Y)
	vertDist := math.Abs(wp.Position.Alt - pose.Position.Alt)

	captureRadius := clampf(pose.Velocity.GroundSpeed*g.params.CaptureRadiusScaling, g.params.MinCaptureRadius, g.params.MaxCaptureRadius)
	if captureRadius < geo.Epsilon {
		captureRadius = g.params.MinCaptureRadius
	}

	if horizDist > captureRadius || vertDist > g.params.ClimbAngle {
		return false, 0
	}

	if pose.Velocity.GroundSpeed >= 0.5 {
		vel := pose.Velocity.ToENU()
		toWP := wpV.Sub(posV)
		if vel.Dot(toWP) < 0 {
			return false, 0
		}
	}
	return true, wp.Seq
}
