package plan

import (
	"math"
	"time"

	"go.icarous.dev/core/geo"
)

// turnThresholdDeg is the minimum heading change at a vertex that gets a
// kinematic turn inserted; smaller course changes are left as a straight
// corner, matching the "a vertex with a tiny dogleg need not cost a turn
// segment" behavior real flight-plan repair uses.
const turnThresholdDeg = 1.0

// Repair converts a linear (TCP-less) plan into a kinematic one: every
// vertex whose course changes by more than turnThresholdDeg gets a BOT/EOT
// pair sized by turnRateDegPerSec and the leg's ground speed, per
// input_flight_plan_data's repair=true option. initHeadingDeg is accepted
// but does not affect the result: no turn is inserted at the first
// waypoint, and every turn's inbound heading comes from the preceding leg.
func Repair(p *Plan, initHeadingDeg, turnRateDegPerSec float64) *Plan {
	if turnRateDegPerSec <= geo.Epsilon || p.Len() < 3 {
		return p.Clone(p.ID)
	}
	out := New(p.ID)
	src := p.Waypoints
	out.Append(src[0])
	inboundHeading := initHeadingDeg

	for i := 1; i < len(src)-1; i++ {
		prev, cur, next := src[i-1], src[i], src[i+1]
		legHeading := geo.Bearing(prev.Position, cur.Position)
		outHeading := geo.Bearing(cur.Position, next.Position)
		turn := geo.NormalizeHeadingDelta(legHeading, outHeading)

		if math.Abs(turn) < turnThresholdDeg {
			out.Append(cur)
			inboundHeading = outHeading
			continue
		}

		speed := cur.GroundSpeedIn
		if speed < geo.Epsilon {
			speed = prev.GroundSpeedIn
		}
		turnRateRad := turnRateDegPerSec * math.Pi / 180.0
		radius := speed / math.Max(turnRateRad, geo.Epsilon)
		if turn < 0 {
			radius = -radius
		}

		pr := geo.NewProjector(cur.Position)
		center := geo.TurnCenter(pr.Project(cur.Position), legHeading, radius)
		centerPt := pr.Unproject(center)

		arcSpan := math.Abs(turn) * math.Pi / 180.0
		halfChord := math.Abs(radius) * math.Tan(arcSpan/2)

		botPos := offsetAlongHeading(cur.Position, legHeading+180, halfChord)
		eotPos := offsetAlongHeading(cur.Position, outHeading, halfChord)

		turnTime := math.Abs(radius) * arcSpan / math.Max(speed, geo.Epsilon)

		bot := Waypoint{
			Position:      botPos,
			Time:          cur.Time,
			GroundSpeedIn: speed,
			Track:         TrackTCP{Type: TrackBOT, Radius: radius, Center: centerPt},
			Info:          cur.Info,
		}
		eot := Waypoint{
			Position:      eotPos,
			Time:          cur.Time.Add(time.Duration(turnTime * float64(time.Second))),
			GroundSpeedIn: speed,
			Track:         TrackTCP{Type: TrackEOT, Radius: radius, Center: centerPt},
		}
		out.Append(bot)
		out.Append(eot)
		inboundHeading = outHeading
	}
	_ = inboundHeading
	out.Append(src[len(src)-1])
	return out
}

func offsetAlongHeading(p geo.Point, headingDeg, dist float64) geo.Point {
	pr := geo.NewProjector(p)
	rad := headingDeg * math.Pi / 180.0
	v := pr.Project(p)
	v.X += dist * math.Sin(rad)
	v.Y += dist * math.Cos(rad)
	return pr.Unproject(v)
}
