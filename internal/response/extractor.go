package response

import (
	"math"

	"github.com/quakelab/bridgeval/pkg/fragility"
)

// Column layout of the displacement matrix. The bridge model has five
// nodes; node 2 is the left pier top and node 5 the deck midpoint.
const (
	pierTopXCol = 4  // pier-top horizontal displacement
	deckXCol    = 13 // deck midpoint x
	deckYCol    = 14 // deck midpoint y (vertical)
	deckZCol    = 15 // deck midpoint z
)

// Demands holds the scalar engineering-demand parameters extracted from
// one phase's raw results, keyed by fragility component type.
type Demands struct {
	ByComponent map[string]float64

	// MaxDeckDisplacement is the per-axis maximum absolute deck midpoint
	// displacement (x, y, z), kept for reporting.
	MaxDeckDisplacement [3]float64

	// PierDrift is the pier drift ratio, kept for reporting.
	PierDrift float64
}

// FromStatic extracts demand from a static solve's displacement vector
// for the deck midpoint node. Deck demand is the absolute vertical
// component.
func FromStatic(displacement []float64) Demands {
	deck := 0.0
	if len(displacement) > 1 {
		deck = math.Abs(displacement[1])
	}
	return Demands{
		ByComponent: map[string]float64{
			fragility.ComponentDeckDisp: deck,
		},
	}
}

// FromTimeHistory extracts demand from a time-history displacement
// matrix. Pier demand is the peak absolute pier-top horizontal
// displacement divided by pier height (a drift ratio); deck demand is the
// peak absolute vertical displacement of the deck midpoint. A matrix with
// at most one row carries no usable time samples and yields zero demand
// throughout. A matrix narrower than the expected width is zero-padded,
// never rejected.
func FromTimeHistory(displacements *Matrix, pierHeight float64) Demands {
	if displacements.Rows() <= 1 {
		return Demands{
			ByComponent: map[string]float64{
				fragility.ComponentPierDrift: 0,
				fragility.ComponentDeckDisp:  0,
			},
		}
	}

	padded := displacements.PadTo(DisplacementCols)

	drift := 0.0
	if pierHeight > 0 {
		drift = padded.MaxAbsCol(pierTopXCol) / pierHeight
	}

	var deckMax [3]float64
	for axis, col := range []int{deckXCol, deckYCol, deckZCol} {
		deckMax[axis] = padded.MaxAbsCol(col)
	}

	return Demands{
		ByComponent: map[string]float64{
			fragility.ComponentPierDrift: drift,
			fragility.ComponentDeckDisp:  deckMax[1],
		},
		MaxDeckDisplacement: deckMax,
		PierDrift:           drift,
	}
}
