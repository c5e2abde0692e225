package cognition

import (
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/plan"
)

// Trigger is a pure, side-effect-free predicate over cognition state.
type Trigger func(s *State) bool

// anyBandConflict reports whether any of the four DAA dimensions currently
// reports a conflict.
func anyBandConflict(s *State) bool {
	return s.TrackBands.CurrentConflict || s.SpeedBands.CurrentConflict ||
		s.VSBands.CurrentConflict || s.AltBands.CurrentConflict
}

// TakeoffTrigger fires once the mission is armed, the fence is clear, and
// the scheduled mission start has arrived, until takeoff is reported
// complete.
func TakeoffTrigger(s *State) bool {
	return s.MissionArmed && !s.FenceConflictData.Conflict && !s.MissionArmedAt.After(s.Now) &&
		s.Phase.Takeoff != TakeoffComplete
}

// NominalDepartureTrigger fires once a mission start value has been set.
func NominalDepartureTrigger(s *State) bool {
	return s.MissionStartValue > 0
}

// FenceConflictTrigger fires when the trajectory monitor predicts a fence
// violation within the planning lookahead and no traffic conflict is
// already in play.
func FenceConflictTrigger(s *State) bool {
	return s.TrajResult.FenceConflict &&
		s.TrajResult.TimeToFenceViolation < s.Params.PlanLookaheadTime &&
		!anyBandConflict(s) && !s.TrajResult.TrafficConflict && !DitchingTrigger(s)
}

// FlightplanDeviationTrigger fires when cross-track error on the active leg
// exceeds the configured tolerance, outside of a traffic conflict.
func FlightplanDeviationTrigger(s *State) bool {
	return absf(s.TrajResult.PlanOffsets.CrossTrack) > s.Params.AllowedXTrackDeviation &&
		!anyBandConflict(s) && !s.TrajResult.TrafficConflict && !DitchingTrigger(s)
}

// TrafficConflictVectorResTrigger fires on a band conflict when the
// configured resolution dimension is not search-based. VerifyPlanConflict
// additionally gates on the trajectory monitor's own traffic-conflict
// prediction, rather than acting on band conflicts alone.
func TrafficConflictVectorResTrigger(s *State) bool {
	if config.ResolutionType(firstDigit(s.Params.ResolutionType)) == config.ResSearch {
		return false
	}
	conflict := anyBandConflict(s)
	if s.Params.VerifyPlanConflict {
		conflict = conflict && s.TrajResult.TrafficConflict
	}
	return conflict
}

// TrafficConflictPathResTrigger fires in the search-based resolution
// configuration: either a band conflict, or a predicted traffic violation
// within the planning lookahead.
func TrafficConflictPathResTrigger(s *State) bool {
	if config.ResolutionType(firstDigit(s.Params.ResolutionType)) != config.ResSearch {
		return false
	}
	return anyBandConflict(s) ||
		(s.TrajResult.TrafficConflict && s.TrajResult.TimeToTrafficViolation < s.Params.PlanLookaheadTime)
}

// TrafficConflictDitchTrigger fires when a band conflict exists and the
// resolution dimension is configured to ditch rather than maneuver.
func TrafficConflictDitchTrigger(s *State) bool {
	return anyBandConflict(s) && config.ResolutionType(firstDigit(s.Params.ResolutionType)) == config.ResDitch
}

// DitchingTrigger fires once a ditch has been requested.
func DitchingTrigger(s *State) bool {
	return s.DitchRequested
}

// TODReachedTrigger fires when the ditch plan is active and its last
// waypoint has been reached.
func TODReachedTrigger(s *State) bool {
	if s.Book.ActiveID() != plan.PlanDitch {
		return false
	}
	p, ok := s.Book.Get(plan.PlanDitch)
	if !ok {
		return false
	}
	return s.Book.NextWP(plan.PlanDitch) >= p.Len()
}

// PrimaryPlanCompleteTrigger fires when the nominal plan is active and its
// last waypoint has been reached.
func PrimaryPlanCompleteTrigger(s *State) bool {
	if s.Book.ActiveID() != plan.PlanNominal {
		return false
	}
	p, ok := s.Book.Get(plan.PlanNominal)
	if !ok {
		return false
	}
	return s.Book.NextWP(plan.PlanNominal) >= p.Len()
}

// SecondaryPlanCompleteTrigger fires when a detour or merge plan other than
// the nominal, ditch, or return-to-launch plan has reached its last
// waypoint.
func SecondaryPlanCompleteTrigger(s *State) bool {
	id := s.Book.ActiveID()
	if id == plan.PlanNominal || id == plan.PlanDitch || id == plan.PlanRTL || id == "" {
		return false
	}
	p, ok := s.Book.Get(id)
	if !ok {
		return false
	}
	return s.Book.NextWP(id) >= p.Len()
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// firstDigit returns the most-significant digit of n, which is n itself
// when n < 10. A single-digit ResolutionType names one dimension; a
// multi-digit value is read as a priority list most-significant digit first.
func firstDigit(n int) int {
	for n >= 10 {
		n /= 10
	}
	return n
}
