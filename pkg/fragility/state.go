// Package fragility provides empirical fragility curves for bridge
// components and the damage classification built on top of them.
//
// Two outputs are computed from the same curves: a discrete damage state
// via a hard median threshold (Classify) and a full probability
// distribution via the lognormal fragility function (Probabilities). The
// threshold rule ignores the dispersion beta entirely, so the classified
// state is not necessarily the most likely state under the distribution.
// That mismatch is inherited from the empirical procedure this package
// implements and is kept as-is.
package fragility

import (
	"fmt"
	"strings"
)

// DamageState is a discrete bridge damage level, ordered by severity.
// Comparisons must use Severity (the integer rank), never declaration
// order or name.
type DamageState int

const (
	NoDamage DamageState = iota
	Slight
	Moderate
	Extensive
	Complete
)

var stateNames = map[DamageState]string{
	NoDamage:  "NO_DAMAGE",
	Slight:    "SLIGHT",
	Moderate:  "MODERATE",
	Extensive: "EXTENSIVE",
	Complete:  "COMPLETE",
}

var stateDescriptions = map[DamageState]string{
	NoDamage:  "No damage",
	Slight:    "Slight damage: hairline cracking, structural function unaffected",
	Moderate:  "Moderate damage: visible cracking and concrete cover spalling, repair may be required",
	Extensive: "Extensive damage: widespread spalling with exposed reinforcement, major repair required",
	Complete:  "Complete damage: structural failure or imminent failure, replacement required",
}

// States returns all damage states ordered from least to most severe.
func States() []DamageState {
	return []DamageState{NoDamage, Slight, Moderate, Extensive, Complete}
}

// Severity returns the integer rank of the state. Higher is worse.
func (s DamageState) Severity() int {
	return int(s)
}

// Worst returns the more severe of two damage states.
func Worst(a, b DamageState) DamageState {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// String returns the canonical name, e.g. "MODERATE".
func (s DamageState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DamageState(%d)", int(s))
}

// Description returns a human-readable description of the damage level.
func (s DamageState) Description() string {
	if desc, ok := stateDescriptions[s]; ok {
		return desc
	}
	return "Unknown damage state"
}

// ParseDamageState converts a state name to a DamageState,
// case-insensitively. Returns an error for unknown names.
func ParseDamageState(name string) (DamageState, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for state, stateName := range stateNames {
		if stateName == upper {
			return state, nil
		}
	}
	return NoDamage, fmt.Errorf("unknown damage state name: %q", name)
}
