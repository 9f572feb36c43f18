package som

import (
	"fmt"
	"math"
	"strings"
)

// DecayFunc returns the multiplier applied to the initial learning rate and
// radius at iteration t of total. It must decrease monotonically in t.
type DecayFunc func(t, total int) float64

// LinearDecay falls from 1 at t=0 to 1/total at the final iteration.
func LinearDecay(t, total int) float64 {
	return 1 - float64(t)/float64(total)
}

// ExponentialDecay falls from 1 at t=0 towards 0.01 at t=total.
func ExponentialDecay(t, total int) float64 {
	return math.Exp(-math.Log(100) * float64(t) / float64(total))
}

// Neighborhood selects which neurons around the winner are updated.
type Neighborhood int

const (
	// Gaussian weighs neurons by exp(-d²/2σ²) of their grid distance d.
	Gaussian Neighborhood = iota
	// Bubble updates every neuron within σ (per axis) with full strength.
	Bubble
	// WinnerTakeAll updates the winner only.
	WinnerTakeAll
)

// minSigma is the radius below which Gaussian collapses to the winner only.
const minSigma = 1e-9

func (n Neighborhood) String() string {
	switch n {
	case Gaussian:
		return "gaussian"
	case Bubble:
		return "bubble"
	case WinnerTakeAll:
		return "wta"
	default:
		return fmt.Sprintf("Neighborhood(%d)", int(n))
	}
}

// ParseNeighborhood maps a competition type name to a Neighborhood.
// The empty string, "soft" and "gaussian" select Gaussian; "hard" and "wta"
// select WinnerTakeAll; "bubble" selects Bubble. Matching ignores case.
func ParseNeighborhood(name string) (Neighborhood, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "soft", "gaussian":
		return Gaussian, nil
	case "bubble":
		return Bubble, nil
	case "hard", "wta", "winner-take-all":
		return WinnerTakeAll, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNeighborhood, name)
	}
}

// influence returns the update strength for a neuron at grid offset (dr, dc)
// from the winner.
func (n Neighborhood) influence(dr, dc int, sigma float64) float64 {
	switch n {
	case Bubble:
		if dr == 0 && dc == 0 {
			return 1
		}
		if math.Abs(float64(dr)) < sigma && math.Abs(float64(dc)) < sigma {
			return 1
		}
		return 0
	case WinnerTakeAll:
		if dr == 0 && dc == 0 {
			return 1
		}
		return 0
	default:
		d2 := float64(dr*dr + dc*dc)
		if sigma < minSigma {
			if d2 == 0 {
				return 1
			}
			return 0
		}
		return math.Exp(-d2 / (2 * sigma * sigma))
	}
}
