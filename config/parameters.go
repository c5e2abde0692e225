// Package config holds the plain-value configuration struct every component
// is handed, passed by value rather than injected as a shared mutable
// singleton. input_parameters replaces it wholesale; there is no file I/O
// here, which is out of this core's scope.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// ResolutionType is the DAA-conflict resolution dimension selector. A
// Parameters.ResolutionType value is either a single digit naming one
// dimension, or a multi-digit priority list read most-to-least significant.
type ResolutionType int

const (
	ResSpeed ResolutionType = iota
	ResAltitude
	ResTrack
	ResVerticalSpeed
	ResSearch
	ResDitch
	ResCombined
)

// Parameters is the superset of recognized configuration options for
// sizing, guidance, DAA/cognition, and fence behavior.
type Parameters struct {
	// Sizing
	MinHS    float64
	MaxHS    float64
	MinVS    float64
	MaxVS    float64
	TurnRate float64 // deg/s

	// Guidance
	CaptureRadiusScaling  float64
	GuidanceRadiusScaling float64
	TurnrateGain          float64
	ClimbAngle            float64 // climb_angle_v_range, meters
	VerticalClimbDelta    float64
	ClimbRateGain         float64
	MaxCaptureRadius      float64
	MinCaptureRadius      float64
	YawForward            bool
	MaintainETA           bool
	ClimbSpeed            float64
	HorizontalAccel       float64
	VerticalAccel         float64

	// DAA / cognition
	ResolutionType        int // digit or multi-digit dimension priority list
	DTHR                  float64
	ZTHR                  float64
	AllowedXTrackDeviation float64
	PersistenceTime       float64 // seconds
	LookaheadTime         float64 // seconds
	PlanLookaheadTime     float64 // seconds
	Return2NextWP         bool
	ReturnVector          bool
	VerifyPlanConflict    bool
	Active                bool

	// Fences
	ObstacleBuffer         float64
	DubinsWellClearRadius  float64
	DubinsWellClearHeight  float64
}

// Default returns the parameter set used when no input_parameters call has
// replaced it yet, tuned for a small fixed-wing UAS.
func Default() Parameters {
	return Parameters{
		MinHS: 8, MaxHS: 25, MinVS: -5, MaxVS: 5, TurnRate: 10,

		CaptureRadiusScaling: 3, GuidanceRadiusScaling: 5, TurnrateGain: 1,
		ClimbAngle: 5, VerticalClimbDelta: 2, ClimbRateGain: 0.3,
		MaxCaptureRadius: 80, MinCaptureRadius: 10,
		YawForward: true, MaintainETA: false, ClimbSpeed: 2,
		HorizontalAccel: 2, VerticalAccel: 1,

		ResolutionType: int(ResTrack),
		DTHR:           4000, ZTHR: 450,
		AllowedXTrackDeviation: 50,
		PersistenceTime:        5,
		LookaheadTime:          30,
		PlanLookaheadTime:      10,
		Return2NextWP:          true, ReturnVector: false,
		VerifyPlanConflict: true, Active: true,

		ObstacleBuffer: 20, DubinsWellClearRadius: 50, DubinsWellClearHeight: 50,
	}
}

// Validate aggregates every out-of-range field into a single multierr, per
// the ambient-stack error-handling convention.
func (p Parameters) Validate() error {
	var errs error
	check := func(cond bool, format string, args ...interface{}) {
		if !cond {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
	}
	check(p.MinHS >= 0 && p.MinHS < p.MaxHS, "min_hs (%v) must be >= 0 and < max_hs (%v)", p.MinHS, p.MaxHS)
	check(p.MinVS <= p.MaxVS, "min_vs (%v) must be <= max_vs (%v)", p.MinVS, p.MaxVS)
	check(p.TurnRate > 0, "turn_rate (%v) must be > 0", p.TurnRate)
	check(p.CaptureRadiusScaling > 0, "capture_radius_scaling must be > 0")
	check(p.GuidanceRadiusScaling > 0, "guidance_radius_scaling must be > 0")
	check(p.MinCaptureRadius >= 0 && p.MinCaptureRadius <= p.MaxCaptureRadius,
		"min_capture_radius (%v) must be >= 0 and <= max_capture_radius (%v)", p.MinCaptureRadius, p.MaxCaptureRadius)
	check(p.PersistenceTime >= 0, "persistence_time must be >= 0")
	check(p.LookaheadTime >= 0, "lookahead_time must be >= 0")
	check(p.PlanLookaheadTime >= 0, "plan_lookahead_time must be >= 0")
	check(p.DTHR >= 0, "DTHR must be >= 0")
	check(p.ZTHR >= 0, "ZTHR must be >= 0")
	return errs
}

// ResolutionPriority decodes ResolutionType into an ordered dimension list:
// a single digit picks one dimension; a multi-digit numeral lists
// dimensions most- to least-significant.
func (p Parameters) ResolutionPriority() []ResolutionType {
	n := p.ResolutionType
	if n < 10 {
		return []ResolutionType{ResolutionType(n)}
	}
	var digits []int
	for n > 0 {
		digits = append([]int{n % 10}, digits...)
		n /= 10
	}
	out := make([]ResolutionType, len(digits))
	for i, d := range digits {
		out[i] = ResolutionType(d)
	}
	return out
}
