// Package command defines the tagged output command union cognition and
// guidance enqueue for the host to drain between ticks.
package command

import "go.icarous.dev/core/geo"

// Kind tags which command variant a Command carries.
type Kind int

const (
	KindVelocity Kind = iota
	KindP2P
	KindSpeedChange
	KindAltChange
	KindTakeoff
	KindLand
	KindDitch
	KindFpChange
	KindFpRequest
	KindStatus
)

// Severity classifies a StatusMessage.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// EndpointState is the (position, velocity) pair an FpRequest's from/to
// fields carry.
type EndpointState struct {
	Position geo.Point
	Velocity geo.VelocityPolar
}

// Command is the single tagged union of every output variant this core
// emits. Exactly the fields relevant to Kind are populated; this mirrors a
// protobuf-oneof without requiring a wire encoding, which is out of this
// core's scope.
type Command struct {
	Kind Kind

	// KindVelocity
	VN, VE, VU float64

	// KindP2P
	Point geo.Point
	Speed float64

	// KindSpeedChange / KindAltChange
	PlanID   string
	Altitude float64
	Hold     bool

	// KindFpChange
	WPIndex        int
	NextFeasibleWP int

	// KindFpRequest
	From, To EndpointState

	// KindStatus
	Text     string
	Severity Severity
}

// Velocity builds a KindVelocity command from north, east and up velocity
// components, in that order.
func Velocity(vn, ve, vu float64) Command {
	return Command{Kind: KindVelocity, VN: vn, VE: ve, VU: vu}
}

// P2P builds a KindP2P command.
func P2P(point geo.Point, speed float64) Command {
	return Command{Kind: KindP2P, Point: point, Speed: speed}
}

// SpeedChange builds a KindSpeedChange command.
func SpeedChange(planID string, speed float64, hold bool) Command {
	return Command{Kind: KindSpeedChange, PlanID: planID, Speed: speed, Hold: hold}
}

// AltChange builds a KindAltChange command.
func AltChange(planID string, altitude float64, hold bool) Command {
	return Command{Kind: KindAltChange, PlanID: planID, Altitude: altitude, Hold: hold}
}

// Takeoff builds a KindTakeoff command.
func Takeoff() Command { return Command{Kind: KindTakeoff} }

// Land builds a KindLand command.
func Land() Command { return Command{Kind: KindLand} }

// Ditch builds a KindDitch command.
func Ditch() Command { return Command{Kind: KindDitch} }

// FpChange builds a KindFpChange command.
func FpChange(planID string, wpIndex, nextFeasibleWP int) Command {
	return Command{Kind: KindFpChange, PlanID: planID, WPIndex: wpIndex, NextFeasibleWP: nextFeasibleWP}
}

// FpRequest builds a KindFpRequest command.
func FpRequest(planID string, from, to EndpointState) Command {
	return Command{Kind: KindFpRequest, PlanID: planID, From: from, To: to}
}

// Status builds a KindStatus command.
func Status(sev Severity, text string) Command {
	return Command{Kind: KindStatus, Severity: sev, Text: text}
}
