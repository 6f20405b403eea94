// Package engine defines the contract with the structural analysis
// engine that builds and solves the finite-element bridge model. The
// real solver is an external collaborator; this package also ships a
// small simulated engine so the pipeline can run end-to-end without it.
package engine

import (
	"fmt"
	"math"

	"github.com/quakelab/bridgeval/internal/response"
	"github.com/quakelab/bridgeval/pkg/config"
)

// ModelBuildError indicates the engine failed to construct the
// structural model for a phase.
type ModelBuildError struct {
	Err error
}

func (e *ModelBuildError) Error() string {
	return fmt.Sprintf("failed to build structural model: %v", e.Err)
}

func (e *ModelBuildError) Unwrap() error { return e.Err }

// PhaseError indicates a solver operation failed during one analysis
// phase. The orchestrator isolates these per phase.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// ModelParams carries the geometry and material configuration through to
// the engine's model construction, unaltered by this module.
type ModelParams struct {
	SpanLength float64
	PierHeight float64
	Material   config.MaterialData
}

// TimeHistoryResult bundles the raw response histories of a time-history
// integration.
type TimeHistoryResult struct {
	Displacements *response.Matrix
	ElementForces *response.Matrix
}

// Engine is the structural analysis collaborator. The shared structural
// model is engine-session state: every phase must call BuildModel before
// its solver operation, or results from a prior phase's model would
// silently leak through.
type Engine interface {
	// BuildModel constructs a fresh structural model. Idempotent;
	// performed once per phase.
	BuildModel(params ModelParams) error

	// RunStatic applies a vertical load at the deck midpoint and returns
	// that node's displacement vector (x, y, z).
	RunStatic(loadMagnitude float64) ([]float64, error)

	// RunModal performs an eigen-solve and returns numModes eigenvalues.
	RunModal(numModes int) ([]float64, error)

	// RunTimeHistory integrates the model response to a ground-motion
	// record. totalDuration <= 0 means the full record length.
	RunTimeHistory(groundMotionFile string, recordDt, analysisDt, totalDuration float64) (*TimeHistoryResult, error)

	// AccumulatedResults returns the engine's own record of everything it
	// has computed this session, keyed by phase name.
	AccumulatedResults() map[string]interface{}
}

// Periods converts eigenvalues to natural periods, T = 2*pi/sqrt(lambda).
// Non-positive eigenvalues map to a zero period.
func Periods(eigenvalues []float64) []float64 {
	periods := make([]float64, len(eigenvalues))
	for i, lambda := range eigenvalues {
		if lambda > 0 {
			periods[i] = 2 * math.Pi / math.Sqrt(lambda)
		}
	}
	return periods
}

// Frequencies converts periods to frequencies, zero periods map to zero.
func Frequencies(periods []float64) []float64 {
	freqs := make([]float64, len(periods))
	for i, t := range periods {
		if t > 0 {
			freqs[i] = 1 / t
		}
	}
	return freqs
}
