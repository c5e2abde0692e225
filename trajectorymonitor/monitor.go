// Package trajectorymonitor implements the stateless query service that,
// given the active plan and current pose, predicts impending fence/traffic
// violations, the next feasible waypoint, and line-of-sight to it. Every
// exported function here is side-effect free.
package trajectorymonitor

import (
	"math"
	"time"

	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/fence"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/plan"
)

// Pose is ownship's current kinematic state.
type Pose struct {
	Position geo.Point
	Velocity geo.VelocityPolar
}

// Offsets is the three-number per-leg deviation record: perpendicular
// cross-track distance, normalized longitudinal progress in [0,1], and
// signed time offset (positive = ahead of schedule).
type Offsets struct {
	CrossTrack float64
	Progress   float64
	TimeOffset float64
}

// Result is the Monitor's full per-tick output.
type Result struct {
	FenceConflict          bool
	TrafficConflict        bool
	TimeToFenceViolation   float64
	TimeToTrafficViolation float64
	NextFeasibleWP         int
	LineOfSightToGoal      bool
	PlanOffsets            Offsets
	NominalOffsets         Offsets
}

// Monitor is a stateless query object; it holds no mutable state between
// calls, only the configuration it was constructed with.
type Monitor struct {
	params config.Parameters
}

// New returns a Monitor configured per params. Since the monitor is
// stateless, params may be refreshed by the caller before each Query by
// constructing a new Monitor (input_parameters replaces configuration
// wholesale).
func New(params config.Parameters) *Monitor {
	return &Monitor{params: params}
}

// Query runs the full prediction pass end to end: fence conflict, traffic
// conflict, next feasible waypoint, and line-of-sight to the goal.
func (m *Monitor) Query(
	now time.Time,
	activePlan, nominalPlan *plan.Plan,
	pose Pose,
	nextWPOnNominal, nextWPOnActive int,
	fences []fence.Fence,
	traffic []daa.TrafficTrack,
) Result {
	var res Result

	res.PlanOffsets = computeOffsets(activePlan, nextWPOnActive, pose)
	res.NominalOffsets = computeOffsets(nominalPlan, nextWPOnNominal, pose)

	// Step 2: shift "now" by the active plan's schedule offset so downstream
	// predictions compare against a schedule-aligned clock.
	shiftedNow := now.Add(time.Duration(res.PlanOffsets.TimeOffset * float64(time.Second)))

	res.FenceConflict, res.TimeToFenceViolation = fencePrediction(shiftedNow, activePlan, nextWPOnActive, pose, fences)
	res.TrafficConflict, res.TimeToTrafficViolation = trafficPrediction(pose, activePlan, nextWPOnActive, traffic, m.params)

	res.NextFeasibleWP = NextFeasibleWaypoint(nominalPlan, nextWPOnNominal, pose, fences, res.TimeToTrafficViolation, res.PlanOffsets.TimeOffset, m.params)
	res.LineOfSightToGoal = LineOfSight(pose.Position, goalPosition(nominalPlan, res.NextFeasibleWP), fences)

	return res
}

func goalPosition(p *plan.Plan, idx int) geo.Point {
	if p == nil || idx < 0 || idx >= p.Len() {
		return geo.Point{}
	}
	return p.Waypoints[idx].Position
}

// computeOffsets derives cross-track, longitudinal progress, and time
// offset for pose against the leg from prevWP to nextWP.
func computeOffsets(p *plan.Plan, nextWP int, pose Pose) Offsets {
	if p == nil || nextWP <= 0 || nextWP >= p.Len() {
		return Offsets{}
	}
	prev, next := p.Waypoints[nextWP-1], p.Waypoints[nextWP]
	pr := geo.NewProjector(prev.Position)
	posV := pr.Project(pose.Position)
	aV := pr.Project(prev.Position)
	bV := pr.Project(next.Position)

	if prev.InTurn() && (prev.Track.Type == plan.TrackBOT || prev.Track.Type == plan.TrackEOTBOT || prev.Track.Type == plan.TrackMOT) {
		center := pr.Project(prev.Track.Center)
		radius := prev.Track.Radius
		distToCenter := math.Hypot(posV.X-center.X, posV.Y-center.Y)
		crossTrack := math.Abs(distToCenter - math.Abs(radius))

		totalAngle := math.Abs(turnAngle(pr, prev.Track.Center, prev.Position, next.Position))
		traversed := math.Abs(turnAngle(pr, prev.Track.Center, prev.Position, pose.Position))
		progress := 0.0
		if totalAngle > geo.Epsilon {
			progress = clamp01(traversed / totalAngle)
		}

		remainingByPlan := next.Time.Sub(prev.Time).Seconds() * (1 - progress)
		remainingByRate := 0.0
		if pose.Velocity.GroundSpeed > geo.Epsilon && math.Abs(radius) > geo.Epsilon {
			remainingAngle := math.Max(totalAngle*(1-progress), 0)
			remainingByRate = math.Abs(radius) * remainingAngle / pose.Velocity.GroundSpeed
		}
		return Offsets{CrossTrack: crossTrack, Progress: progress, TimeOffset: remainingByPlan - remainingByRate}
	}

	_, t, xtrack := geo.SegmentProjection(posV, aV, bV)
	progress := clamp01(t)

	legDist := p.LegDistance(nextWP - 1)
	remainingByPlan := next.Time.Sub(prev.Time).Seconds() * (1 - progress)
	remainingByRate := 0.0
	if pose.Velocity.GroundSpeed > geo.Epsilon {
		remainingByRate = legDist * (1 - progress) / pose.Velocity.GroundSpeed
	}
	return Offsets{CrossTrack: xtrack, Progress: progress, TimeOffset: remainingByPlan - remainingByRate}
}

func turnAngle(pr *geo.Projector, center, from, to geo.Point) float64 {
	c := pr.Project(center)
	a := pr.Project(from)
	b := pr.Project(to)
	angA := math.Atan2(a.X-c.X, a.Y-c.Y)
	angB := math.Atan2(b.X-c.X, b.Y-c.Y)
	d := angB - angA
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
