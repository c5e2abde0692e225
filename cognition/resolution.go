package cognition

import "go.icarous.dev/core/config"

// GetResolutionType walks the configured dimension priority list in order
// and returns the first dimension that both has an active conflict and
// offers a non-recovery resolution. If none qualifies it falls back to the
// first entry in the priority list, so a handler always has a dimension to
// act on.
func GetResolutionType(s *State) config.ResolutionType {
	priority := s.Params.ResolutionPriority()
	for _, dim := range priority {
		if dimConflicted(s, dim) && dimHasNonRecoveryResolution(s, dim) {
			return dim
		}
	}
	return priority[0]
}

func dimConflicted(s *State, dim config.ResolutionType) bool {
	switch dim {
	case config.ResSpeed:
		return s.SpeedBands.CurrentConflict
	case config.ResAltitude:
		return s.AltBands.CurrentConflict
	case config.ResTrack:
		return s.TrackBands.CurrentConflict
	case config.ResVerticalSpeed:
		return s.VSBands.CurrentConflict
	default:
		return false
	}
}

func dimHasNonRecoveryResolution(s *State, dim config.ResolutionType) bool {
	switch dim {
	case config.ResSpeed:
		return s.SpeedBands.HasNonRecoveryResolution()
	case config.ResAltitude:
		return s.AltBands.HasNonRecoveryResolution()
	case config.ResTrack:
		return s.TrackBands.HasNonRecoveryResolution()
	case config.ResVerticalSpeed:
		return s.VSBands.HasNonRecoveryResolution()
	default:
		return true
	}
}
