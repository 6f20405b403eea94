package orchestrator

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quakelab/bridgeval/internal/engine"
	"github.com/quakelab/bridgeval/internal/log"
	"github.com/quakelab/bridgeval/internal/response"
	"github.com/quakelab/bridgeval/pkg/config"
	"github.com/quakelab/bridgeval/pkg/fragility"
)

// Evaluator drives a full bridge evaluation run: phase selection, solver
// execution with per-phase fault isolation, demand extraction, damage
// classification, and summary assembly. One Evaluator instance owns one
// engine session; concurrent runs need independent instances.
type Evaluator struct {
	cfg    *config.Data
	eng    engine.Engine
	model  *fragility.Model
	writer ResultWriter
}

// New creates an evaluator for a validated configuration. The writer may
// be nil when result persistence is not wired. Configuration errors here
// are the only fatal failures in the pipeline.
func New(cfg *config.Data, eng engine.Engine, writer ResultWriter) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := fragility.New(cfg.Fragility)
	if err != nil {
		return nil, err
	}
	for _, violation := range model.MonotonicityViolations() {
		log.Warnf("fragility medians are not monotone: %s", violation)
	}

	return &Evaluator{
		cfg:    cfg,
		eng:    eng,
		model:  model,
		writer: writer,
	}, nil
}

// SelectPhases resolves the phases for a run. An explicit list overrides
// auto-selection; otherwise Static runs iff a static load is configured,
// TimeHistory iff a ground-motion record is configured, and Modal always
// runs. The returned slice follows the fixed execution order.
func (e *Evaluator) SelectPhases(explicit []string) ([]Phase, error) {
	selected := make(map[Phase]bool)

	if len(explicit) > 0 {
		for _, name := range explicit {
			phase, err := ParsePhase(name)
			if err != nil {
				return nil, &config.ConfigError{Field: "phases", Reason: err.Error()}
			}
			selected[phase] = true
		}
	} else {
		selected[PhaseModal] = true
		if e.cfg.Analysis.StaticLoad != nil {
			selected[PhaseStatic] = true
		}
		if e.cfg.Analysis.GroundMotion != nil {
			selected[PhaseTimeHistory] = true
		}
	}

	var phases []Phase
	for _, phase := range phaseOrder {
		if selected[phase] {
			phases = append(phases, phase)
		}
	}
	return phases, nil
}

// Run executes the selected phases and returns the evaluation summary.
// A single phase's failure never aborts the run: the phase is recorded
// as failed and the remaining phases proceed. The only error Run itself
// returns is an invalid explicit phase list.
func (e *Evaluator) Run(explicitPhases []string) (*Summary, error) {
	start := time.Now()

	phases, err := e.SelectPhases(explicitPhases)
	if err != nil {
		return nil, err
	}
	log.Infof("starting bridge evaluation, phases: %v", phases)

	raw := make(map[Phase]*PhaseResult, len(phases))
	for _, phase := range phases {
		result := e.runPhase(phase)
		if result.Failed() {
			log.Errorf("%s analysis failed: %v", phase, result.Err)
		} else {
			log.Infof("%s analysis complete", phase)
		}
		raw[phase] = result
	}

	damage := e.evaluateDamage(raw)

	summary := &Summary{
		RunID:          uuid.NewString(),
		Raw:            raw,
		Damage:         damage,
		ElapsedSeconds: time.Since(start).Seconds(),
		Config:         e.cfg.Clone(),
	}
	log.Infof("evaluation complete in %.2fs", summary.ElapsedSeconds)

	if e.cfg.Output.SaveResults {
		e.persist(summary)
	}

	return summary, nil
}

// runPhase rebuilds the structural model and executes one phase,
// capturing any failure into the result.
func (e *Evaluator) runPhase(phase Phase) *PhaseResult {
	result := &PhaseResult{Phase: phase}

	// Fresh model per phase: the engine's model is session state and a
	// stale model from a prior phase would silently corrupt results.
	params := engine.ModelParams{
		SpanLength: e.cfg.Span,
		PierHeight: e.cfg.Height,
		Material:   e.cfg.Material,
	}
	if err := e.eng.BuildModel(params); err != nil {
		result.Err = err
		return result
	}

	switch phase {
	case PhaseStatic:
		displacement, err := e.eng.RunStatic(e.cfg.StaticLoadOrDefault())
		if err != nil {
			result.Err = err
			return result
		}
		result.Static = &StaticResult{Displacement: displacement}

	case PhaseModal:
		eigenvalues, err := e.eng.RunModal(e.cfg.NumModesOrDefault())
		if err != nil {
			result.Err = err
			return result
		}
		periods := engine.Periods(eigenvalues)
		result.Modal = &ModalResult{
			Eigenvalues: eigenvalues,
			Periods:     periods,
			Frequencies: engine.Frequencies(periods),
		}

	case PhaseTimeHistory:
		gm := e.cfg.Analysis.GroundMotion
		if gm == nil {
			result.Err = &config.ConfigError{Field: "analysis.ground_motion", Reason: "required for time history analysis"}
			return result
		}
		// Integration at half the record step, by convention.
		analysisDt := gm.Dt / 2
		duration := 0.0
		if gm.Duration != nil {
			duration = *gm.Duration
		}
		th, err := e.eng.RunTimeHistory(gm.File, gm.Dt, analysisDt, duration)
		if err != nil {
			result.Err = err
			return result
		}
		result.TimeHistory = &TimeHistoryResult{
			Displacements: th.Displacements,
			ElementForces: th.ElementForces,
		}
	}

	return result
}

// evaluateDamage runs the extractor and classifier over every raw result
// present. Evaluation failures are captured as error markers on the
// affected assessment; they never propagate.
func (e *Evaluator) evaluateDamage(raw map[Phase]*PhaseResult) *DamageResult {
	damage := &DamageResult{}

	if r, ok := raw[PhaseStatic]; ok && !r.Failed() {
		damage.Static = e.assessStatic(r.Static)
	}
	if r, ok := raw[PhaseTimeHistory]; ok && !r.Failed() {
		damage.TimeHistory = e.assessTimeHistory(r.TimeHistory)
	}

	return damage
}

func (e *Evaluator) assessStatic(result *StaticResult) *StaticAssessment {
	assessment := &StaticAssessment{}
	if len(result.Displacement) > 1 {
		assessment.DeckDisplacement = result.Displacement[1]
	}

	demands := response.FromStatic(result.Displacement)
	state, err := e.model.Classify(fragility.ComponentDeckDisp, demands.ByComponent[fragility.ComponentDeckDisp])
	if err != nil {
		log.Errorf("static damage evaluation failed: %v", err)
		assessment.Err = err
		return assessment
	}
	assessment.State = state
	return assessment
}

func (e *Evaluator) assessTimeHistory(result *TimeHistoryResult) *TimeHistoryAssessment {
	if result.Displacements.Rows() <= 1 {
		// No usable time samples: zero demand, no damage, and an explicit
		// marker so the report can say why.
		return &TimeHistoryAssessment{
			PierProbabilities: zeroProbabilities(),
			DeckProbabilities: zeroProbabilities(),
			Err:               errEmptyTimeHistory,
		}
	}

	demands := response.FromTimeHistory(result.Displacements, e.cfg.Height)

	assessment := &TimeHistoryAssessment{
		MaxPierDrift:        demands.PierDrift,
		MaxDeckDisplacement: demands.MaxDeckDisplacement,
	}

	pierDemand := demands.ByComponent[fragility.ComponentPierDrift]
	deckDemand := demands.ByComponent[fragility.ComponentDeckDisp]

	pierState, err := e.model.Classify(fragility.ComponentPierDrift, pierDemand)
	if err == nil {
		assessment.PierState = pierState
		assessment.DeckState, err = e.model.Classify(fragility.ComponentDeckDisp, deckDemand)
	}
	if err == nil {
		assessment.PierProbabilities, err = e.model.Probabilities(fragility.ComponentPierDrift, pierDemand)
	}
	if err == nil {
		assessment.DeckProbabilities, err = e.model.Probabilities(fragility.ComponentDeckDisp, deckDemand)
	}
	if err != nil {
		log.Errorf("time history damage evaluation failed: %v", err)
		assessment.Err = err
		return assessment
	}

	assessment.OverallState = fragility.Worst(assessment.PierState, assessment.DeckState)
	return assessment
}

func zeroProbabilities() map[fragility.DamageState]float64 {
	probs := make(map[fragility.DamageState]float64, len(fragility.States()))
	for _, state := range fragility.States() {
		probs[state] = 0
	}
	return probs
}

// errEmptyTimeHistory marks a time-history result with no usable time
// samples.
var errEmptyTimeHistory = errors.New("time history results are empty or invalid")

// persist writes the summary through the configured writer. Failures are
// logged and swallowed: the returned summary is unaffected.
func (e *Evaluator) persist(summary *Summary) {
	if e.writer == nil {
		log.Warn("save_results requested but no result writer is wired")
		return
	}
	path := e.cfg.ResultFileOrDefault()
	if err := e.writer.Write(summary, path); err != nil {
		log.Errorf("failed to save results to %s: %v", path, err)
		return
	}
	log.Infof("results saved to %s", path)
}
