package fragility

import (
	"fmt"
	"sort"

	"github.com/quakelab/bridgeval/pkg/config"
)

// Component types covered by the built-in curves.
const (
	ComponentPierDrift = "pier_drift"
	ComponentDeckDisp  = "deck_disp"
)

// Curve is a lognormal fragility curve: the probability of reaching or
// exceeding the associated damage state is Phi(ln(demand/Median)/Beta).
type Curve struct {
	Median float64
	Beta   float64
}

// Model maps component type -> damage state -> fragility curve. It is
// built once and never mutated afterwards.
type Model struct {
	curves map[string]map[DamageState]Curve
}

// defaultCurves are displacement-based curves (meters) for a simple
// two-span bridge: pier drift ratio and deck vertical displacement.
func defaultCurves() map[string]map[DamageState]Curve {
	return map[string]map[DamageState]Curve{
		ComponentPierDrift: {
			Slight:    {Median: 0.005, Beta: 0.6},
			Moderate:  {Median: 0.01, Beta: 0.6},
			Extensive: {Median: 0.025, Beta: 0.6},
			Complete:  {Median: 0.05, Beta: 0.6},
		},
		ComponentDeckDisp: {
			Slight:    {Median: 0.02, Beta: 0.6},
			Moderate:  {Median: 0.05, Beta: 0.6},
			Extensive: {Median: 0.1, Beta: 0.6},
			Complete:  {Median: 0.3, Beta: 0.6},
		},
	}
}

// DefaultModel returns a model with the built-in curves.
func DefaultModel() *Model {
	return &Model{curves: defaultCurves()}
}

// New builds a fragility model from configuration overrides. A nil or
// empty override map yields the built-in defaults. Damage state names in
// the overrides are matched case-insensitively; unknown names are a
// configuration error.
func New(overrides map[string]map[string]config.CurveData) (*Model, error) {
	if len(overrides) == 0 {
		return DefaultModel(), nil
	}

	curves := make(map[string]map[DamageState]Curve, len(overrides))
	for component, states := range overrides {
		converted := make(map[DamageState]Curve, len(states))
		for stateName, params := range states {
			state, err := ParseDamageState(stateName)
			if err != nil {
				return nil, &config.ConfigError{
					Field:  fmt.Sprintf("fragility.%s.%s", component, stateName),
					Reason: err.Error(),
				}
			}
			if state == NoDamage {
				return nil, &config.ConfigError{
					Field:  fmt.Sprintf("fragility.%s.%s", component, stateName),
					Reason: "NO_DAMAGE has no fragility curve",
				}
			}
			converted[state] = Curve{Median: params.Median, Beta: params.Beta}
		}
		curves[component] = converted
	}

	return &Model{curves: curves}, nil
}

// Components returns the component types known to the model, sorted.
func (m *Model) Components() []string {
	components := make([]string, 0, len(m.curves))
	for component := range m.curves {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// Curve returns the fragility curve for a component and state, if defined.
func (m *Model) Curve(component string, state DamageState) (Curve, bool) {
	states, ok := m.curves[component]
	if !ok {
		return Curve{}, false
	}
	curve, ok := states[state]
	return curve, ok
}

// MonotonicityViolations reports components whose medians decrease with
// increasing severity. The classifier behaves monotonically only when
// this list is empty; violations are reported for logging, not rejected.
func (m *Model) MonotonicityViolations() []string {
	var violations []string
	for _, component := range m.Components() {
		prev := 0.0
		for _, state := range States() {
			if state == NoDamage {
				continue
			}
			curve, ok := m.curves[component][state]
			if !ok {
				continue
			}
			if curve.Median < prev {
				violations = append(violations, fmt.Sprintf(
					"%s: median for %s (%g) is below the median for the previous state (%g)",
					component, state, curve.Median, prev))
			}
			prev = curve.Median
		}
	}
	return violations
}
