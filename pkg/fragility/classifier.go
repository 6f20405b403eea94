package fragility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ClassificationError indicates an unknown component type was passed to
// the classifier.
type ClassificationError struct {
	Component string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("no fragility curves defined for component type %q", e.Component)
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Classify returns the discrete damage state for a demand value using the
// hard median threshold rule: candidate states are checked from Complete
// down to Slight and the first state whose median is at or below the
// demand wins. Dispersion is ignored here; see the package comment.
func (m *Model) Classify(component string, demand float64) (DamageState, error) {
	states, ok := m.curves[component]
	if !ok {
		return NoDamage, &ClassificationError{Component: component}
	}

	for i := len(States()) - 1; i >= 0; i-- {
		state := States()[i]
		if state == NoDamage {
			break
		}
		curve, ok := states[state]
		if !ok {
			continue
		}
		if demand >= curve.Median {
			return state, nil
		}
	}

	return NoDamage, nil
}

// exceedance returns P(damage reaches or exceeds each non-zero state)
// under the lognormal fragility function. Zero or negative demand has
// zero exceedance probability for every state.
func (m *Model) exceedance(states map[DamageState]Curve, demand float64) map[DamageState]float64 {
	exceed := make(map[DamageState]float64, len(states))
	for state, curve := range states {
		if demand <= 0 {
			exceed[state] = 0
			continue
		}
		z := math.Log(demand/curve.Median) / curve.Beta
		exceed[state] = stdNormal.CDF(z)
	}
	return exceed
}

// Probabilities returns the discrete probability of being in exactly each
// damage state for a given demand. Consecutive exceedance probabilities
// are differenced: P(NoDamage) = 1 - Pe(Slight), P(Complete) =
// Pe(Complete), and intermediate states take Pe(state) - Pe(next). For a
// monotone set of curves the values lie in [0,1] and sum to 1.
func (m *Model) Probabilities(component string, demand float64) (map[DamageState]float64, error) {
	states, ok := m.curves[component]
	if !ok {
		return nil, &ClassificationError{Component: component}
	}

	exceed := m.exceedance(states, demand)

	probs := make(map[DamageState]float64, len(States()))
	for _, state := range States() {
		switch state {
		case NoDamage:
			probs[state] = 1.0 - exceed[Slight]
		case Complete:
			probs[state] = exceed[Complete]
		default:
			probs[state] = exceed[state] - exceed[state+1]
		}
	}
	return probs, nil
}
