// Package plan implements the typed waypoint/plan model: TCP-annotated
// waypoints, plan invariants, kinematic repair, and the in-place/cloned edits
// guidance uses for speed, altitude, and ETA changes.
package plan

import (
	"strconv"
	"time"

	"go.icarous.dev/core/geo"
)

// TrackTCPType is the track-channel trajectory-change-point kind.
type TrackTCPType int

const (
	TrackNone TrackTCPType = iota
	TrackBOT
	TrackMOT
	TrackEOT
	TrackEOTBOT
)

// TrackTCP annotates a waypoint's track channel. Radius is signed: positive
// is a right turn. Center is only meaningful when Type is BOT, MOT, EOT, or
// EOTBOT.
type TrackTCP struct {
	Type   TrackTCPType
	Radius float64
	Center geo.Point
}

// GSTCPType is the ground-speed-channel TCP kind.
type GSTCPType int

const (
	GSNone GSTCPType = iota
	GSBegin
	GSEnd
)

// GSTCP annotates a waypoint's ground-speed channel.
type GSTCP struct {
	Type  GSTCPType
	Accel float64
}

// VSTCPType is the vertical-speed-channel TCP kind.
type VSTCPType int

const (
	VSNone VSTCPType = iota
	VSBegin
	VSEnd
)

// VSTCP annotates a waypoint's vertical-speed channel.
type VSTCP struct {
	Type  VSTCPType
	Accel float64
}

// Waypoint is a position, a scheduled time of arrival, and the three
// independent TCP channels.
type Waypoint struct {
	// Seq is the unique, monotonically-assigned insertion-order identifier.
	Seq int

	Position geo.Point
	Time     time.Time

	// GroundSpeedIn is the commanded ground speed flown into this waypoint.
	GroundSpeedIn float64

	Track TrackTCP
	GS    GSTCP
	VS    VSTCP

	Info string
}

// InTurn reports whether this waypoint's track channel places it inside an
// open turn segment (BOT, MOT, or EOTBOT, which simultaneously closes one
// turn and opens the next).
func (w Waypoint) InTurn() bool {
	switch w.Track.Type {
	case TrackBOT, TrackMOT, TrackEOTBOT:
		return true
	default:
		return false
	}
}

// Well-known plan IDs.
const (
	PlanNominal  = "Plan0"
	PlanDitch    = "DitchPath"
	PlanRTL      = "RtlPath"
	PlanCombined = "Plan+"
)

// DetourPlanID formats the Nth detour plan id, "Plan<N>".
func DetourPlanID(n int) string {
	return "Plan" + strconv.Itoa(n)
}
