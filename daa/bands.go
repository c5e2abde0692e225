// Package daa holds the data types fed in by the external detect-and-avoid
// band provider and fence monitor: band sets, traffic tracks, and the
// geofence-conflict summary. Nothing here computes; it is a pure data model,
// consumed by cognition and trajectorymonitor.
package daa

import (
	"time"

	"go.icarous.dev/core/geo"
)

// Severity classifies a band interval.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityNear
	SeverityMid
	SeverityFar
	SeverityRecovery
)

// Interval is one disjoint interval of a band dimension.
type Interval struct {
	Low, High float64
	Severity  Severity
}

// Dimension identifies which control axis a BandSet describes.
type Dimension int

const (
	DimTrack Dimension = iota
	DimGroundSpeed
	DimVerticalSpeed
	DimAltitude
)

// BandSet is one DAA dimension's advisory output.
type BandSet struct {
	Dimension         Dimension
	Intervals         []Interval
	CurrentConflict   bool
	PreferredResolution float64
	RecoveryUp        float64
	RecoveryDown      float64
	TimeToViolation   [2]float64 // [low, high) interval, seconds
}

// HasNonRecoveryResolution reports whether PreferredResolution falls outside
// every RECOVERY-tagged interval, i.e. a genuine conflict-free resolution
// exists on this dimension.
func (b BandSet) HasNonRecoveryResolution() bool {
	for _, iv := range b.Intervals {
		if iv.Severity == SeverityRecovery && b.PreferredResolution >= iv.Low && b.PreferredResolution <= iv.High {
			return false
		}
	}
	return true
}

// TrafficTrack is one DAA-observed intruder.
type TrafficTrack struct {
	Callsign       string
	Source         string
	Position       geo.Point
	Velocity       geo.VelocityPolar
	ObservedAt     time.Time
	PosUncertainty [6]float64
	VelUncertainty [6]float64
}

// AlertLevel is the per-track DAA alert level reported via input_traffic_alert.
type AlertLevel int

const (
	AlertNone AlertLevel = iota
	AlertAdvisory
	AlertWarning
)

// FenceConflict is the pre-computed fence-conflict summary fed in via
// input_geofence_conflict_data.
type FenceConflict struct {
	Conflict      bool
	RecoveryPoint geo.Point
	HasRecovery   bool
}
