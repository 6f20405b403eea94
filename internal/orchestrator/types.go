// Package orchestrator sequences the analysis phases against the
// structural analysis engine, isolates per-phase failures, and turns the
// aggregated raw results into damage assessments.
package orchestrator

import (
	"fmt"

	"github.com/quakelab/bridgeval/internal/response"
	"github.com/quakelab/bridgeval/pkg/config"
	"github.com/quakelab/bridgeval/pkg/fragility"
)

// Phase identifies one analysis phase. Phases always run in the fixed
// order Static, Modal, TimeHistory: the engine's structural model is
// session state rebuilt per phase, and reordering would change which
// model a phase consumes.
type Phase string

const (
	PhaseStatic      Phase = "static"
	PhaseModal       Phase = "modal"
	PhaseTimeHistory Phase = "time_history"
)

// phaseOrder is the only execution order.
var phaseOrder = []Phase{PhaseStatic, PhaseModal, PhaseTimeHistory}

// ParsePhase converts a phase name to a Phase.
func ParsePhase(name string) (Phase, error) {
	switch Phase(name) {
	case PhaseStatic, PhaseModal, PhaseTimeHistory:
		return Phase(name), nil
	}
	return "", fmt.Errorf("unknown analysis phase: %q", name)
}

// StaticResult is the raw payload of a static solve.
type StaticResult struct {
	// Displacement is the deck midpoint displacement vector (x, y, z).
	Displacement []float64
}

// ModalResult is the raw payload of an eigen-solve, with periods and
// frequencies derived from the eigenvalues.
type ModalResult struct {
	Eigenvalues []float64
	Periods     []float64
	Frequencies []float64
}

// TimeHistoryResult is the raw payload of a time-history integration.
type TimeHistoryResult struct {
	Displacements *response.Matrix
	ElementForces *response.Matrix
}

// PhaseResult is the outcome of one phase: exactly one payload field is
// set on success, or Err carries the failure. Failed phases stay in the
// result map as markers; aggregation skips them without exception-style
// branching.
type PhaseResult struct {
	Phase       Phase
	Static      *StaticResult
	Modal       *ModalResult
	TimeHistory *TimeHistoryResult
	Err         error
}

// Failed reports whether the phase ended in an error.
func (r *PhaseResult) Failed() bool {
	return r.Err != nil
}

// StaticAssessment is the damage evaluation of the static phase.
type StaticAssessment struct {
	// DeckDisplacement keeps the signed vertical deflection for
	// reporting; classification uses its magnitude.
	DeckDisplacement float64
	State            fragility.DamageState
	Err              error
}

// TimeHistoryAssessment is the damage evaluation of the time-history
// phase, per component and overall.
type TimeHistoryAssessment struct {
	MaxPierDrift        float64
	MaxDeckDisplacement [3]float64
	PierState           fragility.DamageState
	DeckState           fragility.DamageState
	OverallState        fragility.DamageState
	PierProbabilities   map[fragility.DamageState]float64
	DeckProbabilities   map[fragility.DamageState]float64
	Err                 error
}

// DamageResult aggregates the per-phase damage assessments. A phase
// absent from the raw results has a nil assessment here.
type DamageResult struct {
	Static      *StaticAssessment
	TimeHistory *TimeHistoryAssessment
}

// Summary is the complete output of one evaluation run. It is owned
// exclusively by the caller once Run returns.
type Summary struct {
	RunID          string
	Raw            map[Phase]*PhaseResult
	Damage         *DamageResult
	ElapsedSeconds float64
	Config         *config.Data
}

// ResultWriter persists a summary to the configured destination. The
// results package provides the document-based implementation; the
// orchestrator only triggers it.
type ResultWriter interface {
	Write(summary *Summary, path string) error
}
