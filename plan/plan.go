package plan

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.icarous.dev/core/geo"
)

// Sentinel errors surfaced by input validation.
var (
	ErrTimesNotMonotonic  = errors.New("waypoint times are not strictly monotonically non-decreasing")
	ErrUnclosedTurn       = errors.New("a BOT is not closed by a matching EOT before the next BOT")
	ErrTurnCenterMismatch = errors.New("EOT center/radius does not match its opening BOT")
	ErrTurnSegmentLeg     = errors.New("a waypoint inside a turn segment is neither MOT nor EOT")
	ErrNegativeRadius     = errors.New("a non-BOT waypoint declares a negative turn radius")
	ErrEmptyPlan          = errors.New("plan has no waypoints")
)

// Plan is an ordered, uniquely-ordered sequence of waypoints.
type Plan struct {
	ID        string
	Waypoints []Waypoint

	nextSeq int
}

// New creates an empty plan with the given id.
func New(id string) *Plan {
	return &Plan{ID: id}
}

// FromWaypoints builds a plan from an ordered waypoint slice, assigning
// insertion-order sequence numbers.
func FromWaypoints(id string, wps []Waypoint) *Plan {
	p := New(id)
	for _, w := range wps {
		p.Append(w)
	}
	return p
}

// Append adds wp to the end of the plan, stamping it with the next
// insertion-order sequence number.
func (p *Plan) Append(wp Waypoint) {
	wp.Seq = p.nextSeq
	p.nextSeq++
	p.Waypoints = append(p.Waypoints, wp)
}

// Len returns the number of waypoints.
func (p *Plan) Len() int { return len(p.Waypoints) }

// Clone returns a deep copy of the plan under a new id.
func (p *Plan) Clone(newID string) *Plan {
	cp := &Plan{ID: newID, nextSeq: p.nextSeq}
	cp.Waypoints = append([]Waypoint(nil), p.Waypoints...)
	return cp
}

// Validate checks time monotonicity, turn closure (every BOT eventually
// closed by a matching EOT/EOTBOT), and the turn-segment-leg restriction
// (only MOT/EOT waypoints inside an open turn). It aggregates every
// violation it finds via multierr rather than stopping at the first.
func (p *Plan) Validate() error {
	if len(p.Waypoints) == 0 {
		return ErrEmptyPlan
	}
	var errs error
	var openBOT *Waypoint
	for i, wp := range p.Waypoints {
		if i > 0 && wp.Time.Before(p.Waypoints[i-1].Time) {
			errs = multierr.Append(errs, errors.Wrapf(ErrTimesNotMonotonic, "waypoint %d", i))
		}
		switch wp.Track.Type {
		case TrackBOT:
			if openBOT != nil {
				errs = multierr.Append(errs, errors.Wrapf(ErrUnclosedTurn, "waypoint %d", i))
			}
			cur := wp
			openBOT = &cur
		case TrackEOT:
			if openBOT == nil {
				errs = multierr.Append(errs, errors.Wrapf(ErrUnclosedTurn, "waypoint %d has EOT with no open BOT", i))
			} else if !sameTurn(*openBOT, wp) {
				errs = multierr.Append(errs, errors.Wrapf(ErrTurnCenterMismatch, "waypoint %d", i))
			}
			openBOT = nil
		case TrackEOTBOT:
			if openBOT == nil {
				errs = multierr.Append(errs, errors.Wrapf(ErrUnclosedTurn, "waypoint %d has EOTBOT with no open BOT", i))
			} else if !sameTurn(*openBOT, wp) {
				errs = multierr.Append(errs, errors.Wrapf(ErrTurnCenterMismatch, "waypoint %d", i))
			}
			cur := wp
			openBOT = &cur
		case TrackMOT:
			if openBOT == nil {
				errs = multierr.Append(errs, errors.Wrapf(ErrTurnSegmentLeg, "waypoint %d has MOT outside a turn", i))
			}
		case TrackNone:
			if openBOT != nil {
				errs = multierr.Append(errs, errors.Wrapf(ErrTurnSegmentLeg, "waypoint %d", i))
			}
		}
		if wp.Track.Type != TrackBOT && wp.Track.Type != TrackEOTBOT && wp.Track.Radius != 0 {
			// Only BOT/EOTBOT carry a fresh radius declaration; a non-BOT
			// waypoint with a negative radius is malformed input.
			if wp.Track.Radius < 0 && wp.Track.Type != TrackMOT && wp.Track.Type != TrackEOT {
				errs = multierr.Append(errs, errors.Wrapf(ErrNegativeRadius, "waypoint %d", i))
			}
		}
	}
	if openBOT != nil {
		errs = multierr.Append(errs, ErrUnclosedTurn)
	}
	return errs
}

func sameTurn(bot, eot Waypoint) bool {
	const posEps = 1e-6
	return math.Abs(bot.Track.Radius-eot.Track.Radius) < posEps &&
		math.Abs(bot.Track.Center.Lat-eot.Track.Center.Lat) < posEps &&
		math.Abs(bot.Track.Center.Lon-eot.Track.Center.Lon) < posEps
}

// legAngle returns the turn angle in radians subtended by the arc from wp
// (a BOT/MOT) to next (the following waypoint), used by LegDistance for
// the arc length of a turn leg.
func legAngle(center geo.Point, from, to geo.Point) float64 {
	pr := geo.NewProjector(center)
	a := pr.Project(from)
	b := pr.Project(to)
	angA := math.Atan2(a.Y, a.X)
	angB := math.Atan2(b.Y, b.X)
	d := angB - angA
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// LegDistance returns the ground distance of the leg from waypoint i to i+1:
// the geodesic straight-line distance, or the arc length when the leg lies
// within an open turn segment.
func (p *Plan) LegDistance(i int) float64 {
	if i < 0 || i+1 >= len(p.Waypoints) {
		return 0
	}
	a, b := p.Waypoints[i], p.Waypoints[i+1]
	if a.InTurn() && (a.Track.Type == TrackBOT || a.Track.Type == TrackEOTBOT || a.Track.Type == TrackMOT) {
		center := a.Track.Center
		radius := math.Abs(a.Track.Radius)
		if radius > geo.Epsilon {
			angle := math.Abs(legAngle(center, a.Position, b.Position))
			return radius * angle
		}
	}
	return geo.GroundDistance(a.Position, b.Position)
}

// GroundDistance sums LegDistance over the whole plan.
func (p *Plan) GroundDistance() float64 {
	total := 0.0
	for i := 0; i < len(p.Waypoints)-1; i++ {
		total += p.LegDistance(i)
	}
	return total
}

// TimeShiftSuffix shifts the scheduled time of every waypoint from index idx
// onward by delta. Time monotonicity is preserved as long as delta does not
// reorder the shifted suffix relative to waypoint idx-1.
func (p *Plan) TimeShiftSuffix(idx int, delta time.Duration) {
	for i := idx; i < len(p.Waypoints); i++ {
		p.Waypoints[i].Time = p.Waypoints[i].Time.Add(delta)
	}
}

// RetimeSuffixForSpeed re-schedules every waypoint from idx onward so that
// each leg takes LegDistance(i)/speed seconds, used by change_waypoint_speed.
func (p *Plan) RetimeSuffixForSpeed(idx int, speed float64) {
	if speed <= geo.Epsilon || idx < 0 || idx >= len(p.Waypoints) {
		return
	}
	t := p.Waypoints[idx].Time
	for i := idx; i < len(p.Waypoints)-1; i++ {
		dist := p.LegDistance(i)
		t = t.Add(time.Duration(dist / speed * float64(time.Second)))
		p.Waypoints[i+1].Time = t
	}
}
