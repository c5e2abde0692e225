package guidance

import (
	"math"

	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/store"
)

// runLand implements the LAND mode: altitude-capture descent to the last
// waypoint of the active plan.
func (g *Guidance) runLand(book *store.Book, pose Pose) Result {
	active, ok := book.Active()
	if !ok || active.Len() == 0 {
		return Result{Setpoint: geo.VelocityPolar{VerticalSpeed: g.params.MinVS}}
	}
	last := active.Waypoints[active.Len()-1]
	pr := geo.NewProjector(pose.Position)
	target := pr.Project(last.Position)
	posV := pr.Project(pose.Position)

	heading := geo.RadialBearing(posV, target)
	deltaH := last.Position.Alt - pose.Position.Alt
	vs := clampf(g.params.ClimbRateGain*deltaH, g.params.MinVS, 0)

	speed := clampf(g.params.ClimbSpeed, g.params.MinHS, g.params.MaxHS)

	horizDist := math.Hypot(target.X-posV.X, target.Y-posV.Y)
	reached := horizDist <= g.params.MinCaptureRadius && math.Abs(deltaH) <= g.params.ClimbAngle

	return Result{
		Setpoint:  geo.VelocityPolar{TrackDeg: heading, GroundSpeed: speed, VerticalSpeed: vs},
		WPReached: reached,
	}
}

// runPoint2Point steers directly toward p2pTarget at p2pSpeed, slowing within
// 200m of the target (Vector2Mission uses the same closed-loop
// shape; POINT2POINT mode shares it for handlers that issue a bare P2P
// command).
func (g *Guidance) runPoint2Point(pose Pose) Result {
	pr := geo.NewProjector(pose.Position)
	target := pr.Project(g.p2pTarget)
	posV := pr.Project(pose.Position)

	heading := geo.RadialBearing(posV, target)
	horizDist := math.Hypot(target.X-posV.X, target.Y-posV.Y)

	speed := clampf(g.p2pSpeed, g.params.MinHS, g.params.MaxHS)
	if horizDist < 200 {
		speed = math.Max(g.params.MinHS, speed*horizDist/200)
	}

	deltaH := g.p2pTarget.Alt - pose.Position.Alt
	vs := clampf(g.params.ClimbRateGain*deltaH, g.params.MinVS, g.params.MaxVS)

	reached := horizDist <= math.Max(10, 2.5*pose.Velocity.GroundSpeed)

	return Result{
		Setpoint:  geo.VelocityPolar{TrackDeg: heading, GroundSpeed: speed, VerticalSpeed: vs},
		WPReached: reached,
	}
}
