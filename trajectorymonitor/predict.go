package trajectorymonitor

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/fence"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/plan"
)

// fencePrediction checks the active plan against every fence. For each KEEP_IN fence it
// finds the minimum non-negative time to cross an edge, accepted only if the
// plan's own predicted position at that time also lies outside the polygon
// (preventing a false positive when the plan itself turns away first). For
// each KEEP_OUT fence it checks whether the remainder of the plan intersects
// the polygon at all, timing the first such intersection.
func fencePrediction(now time.Time, active *plan.Plan, nextWP int, pose Pose, fences []fence.Fence) (conflict bool, timeToViolation float64) {
	timeToViolation = math.Inf(1)
	if active == nil {
		return false, timeToViolation
	}
	pr := geo.NewProjector(pose.Position)
	posV := pr.Project(pose.Position)
	velV := pose.Velocity.ToENU()

	for _, f := range fences {
		edges := f.Edges(pr)
		if len(edges) == 0 {
			continue
		}
		switch f.Type {
		case fence.KeepIn:
			for _, e := range edges {
				t := geo.TimeToEdgeCrossing(posV, velV, e[0], e[1])
				if math.IsInf(t, 1) {
					continue
				}
				predicted := predictPlanPosition(active, nextWP, pose, now.Add(time.Duration(t*float64(time.Second))))
				if f.Violated(pr, predicted) && t < timeToViolation {
					timeToViolation = t
					conflict = true
				}
			}
		case fence.KeepOut:
			t := planPolygonIntersectionTime(now, active, nextWP, f, pr)
			if !math.IsInf(t, 1) && t < timeToViolation {
				timeToViolation = t
				conflict = true
			}
		}
	}
	return conflict, timeToViolation
}

// predictPlanPosition estimates ownship's position at future time t by
// following the active plan's waypoint schedule from nextWP onward, falling
// back to ownship's current position (see extrapolate) past the plan's end.
func predictPlanPosition(active *plan.Plan, nextWP int, pose Pose, t time.Time) geo.Point {
	if active == nil || nextWP <= 0 || nextWP >= active.Len() {
		return extrapolate(pose, t)
	}
	for i := nextWP; i < active.Len(); i++ {
		wp := active.Waypoints[i]
		if !wp.Time.Before(t) {
			if i == 0 {
				return wp.Position
			}
			prev := active.Waypoints[i-1]
			span := wp.Time.Sub(prev.Time).Seconds()
			if span < geo.Epsilon {
				return wp.Position
			}
			frac := t.Sub(prev.Time).Seconds() / span
			pr := geo.NewProjector(prev.Position)
			a, b := pr.Project(prev.Position), pr.Project(wp.Position)
			interp := a.Add(b.Sub(a).Mul(clamp01(frac)))
			return pr.Unproject(interp)
		}
	}
	return extrapolate(pose, t)
}

// extrapolate is the fallback position estimate once the plan's own
// schedule no longer covers the queried time: hold at the last known
// position rather than guess indefinitely into the future.
func extrapolate(pose Pose, t time.Time) geo.Point {
	return pose.Position
}

// planPolygonIntersectionTime returns, relative to now and floored at zero,
// the earliest scheduled start time of a remaining leg of active (from
// nextWP onward) that crosses an edge of f's polygon.
func planPolygonIntersectionTime(now time.Time, active *plan.Plan, nextWP int, f fence.Fence, pr *geo.Projector) float64 {
	if active == nil {
		return math.Inf(1)
	}
	edges := f.Edges(pr)
	best := math.Inf(1)
	for i := nextWP; i < active.Len()-1; i++ {
		a, b := active.Waypoints[i], active.Waypoints[i+1]
		av, bv := pr.Project(a.Position), pr.Project(b.Position)
		for _, e := range edges {
			if geo.SegmentsIntersect(av, bv, e[0], e[1]) {
				t := a.Time.Sub(now).Seconds()
				if t < 0 {
					t = 0
				}
				if t < best {
					best = t
				}
			}
		}
	}
	return best
}

// trafficPrediction checks ownship against every traffic track: for each traffic track,
// extrapolate linearly and run a CPA (closest point of approach) test
// against ownship's own constant-velocity extrapolation, using DTHR/ZTHR as
// the well-clear thresholds. It stands in for a full plan-vs-plan CD-II
// pass, which for a constant-velocity intruder degenerates to the same CPA
// computation over the horizon.
func trafficPrediction(pose Pose, active *plan.Plan, nextWP int, tracks []daa.TrafficTrack, params config.Parameters) (conflict bool, timeToViolation float64) {
	timeToViolation = math.Inf(1)
	if len(tracks) == 0 {
		return false, timeToViolation
	}
	const extrapolationHorizon = 1000.0
	pr := geo.NewProjector(pose.Position)
	ownPos := pr.Project(pose.Position)
	ownVel := pose.Velocity.ToENU()

	for _, tr := range tracks {
		trPos := pr.Project(tr.Position)
		trVel := tr.Velocity.ToENU()

		relPos := trPos.Sub(ownPos)
		relVel := trVel.Sub(ownVel)

		t := cpaTime(relPos, relVel)
		if t < 0 || t > extrapolationHorizon {
			continue
		}
		atT := relPos.Add(relVel.Mul(t))
		horiz := math.Hypot(atT.X, atT.Y)
		vert := math.Abs(atT.Z)
		if horiz < params.DTHR && vert < params.ZTHR {
			conflict = true
			if t < timeToViolation {
				timeToViolation = t
			}
		}
	}
	return conflict, timeToViolation
}

func cpaTime(relPos, relVel r3.Vector) float64 {
	speedSq := relVel.Dot(relVel)
	if speedSq < geo.Epsilon*geo.Epsilon {
		return math.Inf(1)
	}
	return -relPos.Dot(relVel) / speedSq
}

// NextFeasibleWaypoint picks the nearest upcoming waypoint on nominal that
// ownship can still reach without crossing a fence or entering a predicted
// traffic conflict.
func NextFeasibleWaypoint(nominal *plan.Plan, nextWP int, pose Pose, fences []fence.Fence, timeToTrafficViolation, planTimeOffset float64, params config.Parameters) int {
	if nominal == nil || nominal.Len() == 0 {
		return 0
	}
	idx := nextWP
	if idx < 0 {
		idx = 0
	}
	pr := geo.NewProjector(pose.Position)
	smallOffset := math.Abs(planTimeOffset) < params.AllowedXTrackDeviation

	for idx < nominal.Len()-1 {
		wp := nominal.Waypoints[idx]
		infeasible := false

		for _, f := range fences {
			if f.Violated(pr, wp.Position) {
				infeasible = true
				break
			}
		}
		if !infeasible && smallOffset && !math.IsInf(timeToTrafficViolation, 1) {
			wpEta := wp.Time.Sub(nominal.Waypoints[nextWPOrZero(nominal, nextWP)].Time).Seconds()
			if wpEta < timeToTrafficViolation {
				infeasible = true
			}
		}
		if !infeasible && wp.InTurn() {
			infeasible = true
		}
		if !infeasible {
			speed := wp.GroundSpeedIn
			if speed < geo.Epsilon {
				speed = params.MinHS
			}
			if idx+1 < nominal.Len() && nominal.LegDistance(idx) < speed*3 {
				infeasible = true
			}
		}
		if !infeasible {
			break
		}
		idx++
	}
	if idx > nominal.Len()-1 {
		idx = nominal.Len() - 1
	}
	return idx
}

func nextWPOrZero(p *plan.Plan, nextWP int) int {
	if nextWP <= 0 || nextWP >= p.Len() {
		return 0
	}
	return nextWP
}

// LineOfSight reports whether a 3-D segment from pos to goal is clear of
// every fence, tested against each fence's floor/ceiling altitude band as
// well as its horizontal edges.
func LineOfSight(pos, goal geo.Point, fences []fence.Fence) bool {
	pr := geo.NewProjector(pos)
	posV := pr.Project(pos)
	goalV := pr.Project(goal)

	for _, f := range fences {
		edges := f.Edges(pr)
		for _, e := range edges {
			// posV/goalV heights are relative to pos, so shift the band too.
			if !segmentCrossesAltitudeBand(posV, goalV, e, f.Floor-pos.Alt, f.Ceiling-pos.Alt) {
				continue
			}
			if geo.SegmentsIntersect(posV, goalV, e[0], e[1]) {
				return false
			}
		}
	}
	return true
}

func segmentCrossesAltitudeBand(a, b r3.Vector, edge [2]r3.Vector, floor, ceiling float64) bool {
	loZ := math.Min(a.Z, b.Z)
	hiZ := math.Max(a.Z, b.Z)
	return hiZ >= floor && loZ <= ceiling
}
