package orchestrator

import (
	"errors"
	"math"
	"testing"

	"github.com/quakelab/bridgeval/internal/engine"
	"github.com/quakelab/bridgeval/internal/response"
	"github.com/quakelab/bridgeval/pkg/config"
	"github.com/quakelab/bridgeval/pkg/fragility"
)

// stubEngine is a scriptable engine for orchestrator tests.
type stubEngine struct {
	buildErr   error
	staticDisp []float64
	staticErr  error
	modalVals  []float64
	modalErr   error
	th         *engine.TimeHistoryResult
	thErr      error

	buildCalls int
	modelFresh bool
}

func (s *stubEngine) BuildModel(engine.ModelParams) error {
	s.buildCalls++
	if s.buildErr != nil {
		return s.buildErr
	}
	s.modelFresh = true
	return nil
}

func (s *stubEngine) RunStatic(float64) ([]float64, error) {
	s.modelFresh = false
	if s.staticErr != nil {
		return nil, s.staticErr
	}
	return s.staticDisp, nil
}

func (s *stubEngine) RunModal(int) ([]float64, error) {
	s.modelFresh = false
	if s.modalErr != nil {
		return nil, s.modalErr
	}
	return s.modalVals, nil
}

func (s *stubEngine) RunTimeHistory(string, float64, float64, float64) (*engine.TimeHistoryResult, error) {
	s.modelFresh = false
	if s.thErr != nil {
		return nil, s.thErr
	}
	return s.th, nil
}

func (s *stubEngine) AccumulatedResults() map[string]interface{} {
	return nil
}

// recordingWriter captures persistence calls.
type recordingWriter struct {
	summaries []*Summary
	paths     []string
	err       error
}

func (w *recordingWriter) Write(summary *Summary, path string) error {
	w.summaries = append(w.summaries, summary)
	w.paths = append(w.paths, path)
	return w.err
}

func fullConfig() *config.Data {
	staticLoad := 150.0
	return &config.Data{
		Span:   30.0,
		Height: 8.0,
		Material: config.MaterialData{
			E: 3.0e10, Fc: 3.0e7, PierWidth: 1.2, DeckArea: 5.0, DeckInertia: 2.0,
		},
		Analysis: config.AnalysisData{
			StaticLoad:   &staticLoad,
			GroundMotion: &config.GroundMotionData{File: "motion.txt", Dt: 0.02},
		},
	}
}

// thMatrix builds a full-width displacement history with the given
// pier-top horizontal and deck vertical peaks.
func thMatrix(pierPeak, deckPeak float64) *engine.TimeHistoryResult {
	rows := [][]float64{
		make([]float64, response.DisplacementCols),
		make([]float64, response.DisplacementCols),
		make([]float64, response.DisplacementCols),
	}
	rows[1][0], rows[2][0] = 0.01, 0.02
	rows[1][4] = pierPeak
	rows[2][14] = deckPeak
	return &engine.TimeHistoryResult{
		Displacements: response.NewMatrix(rows),
		ElementForces: response.NewMatrix([][]float64{make([]float64, response.ForceCols)}),
	}
}

func TestSelectPhasesAuto(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Data)
		expected []Phase
	}{
		{
			"static and ground motion configured",
			func(*config.Data) {},
			[]Phase{PhaseStatic, PhaseModal, PhaseTimeHistory},
		},
		{
			"no static load",
			func(c *config.Data) { c.Analysis.StaticLoad = nil },
			[]Phase{PhaseModal, PhaseTimeHistory},
		},
		{
			"no ground motion",
			func(c *config.Data) { c.Analysis.GroundMotion = nil },
			[]Phase{PhaseStatic, PhaseModal},
		},
		{
			"neither",
			func(c *config.Data) { c.Analysis = config.AnalysisData{} },
			[]Phase{PhaseModal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(cfg)
			ev, err := New(cfg, &stubEngine{}, nil)
			if err != nil {
				t.Fatal(err)
			}
			phases, err := ev.SelectPhases(nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(phases) != len(tt.expected) {
				t.Fatalf("phases = %v, expected %v", phases, tt.expected)
			}
			for i := range phases {
				if phases[i] != tt.expected[i] {
					t.Fatalf("phases = %v, expected %v", phases, tt.expected)
				}
			}
		})
	}
}

func TestSelectPhasesExplicitOverride(t *testing.T) {
	cfg := fullConfig()
	cfg.Analysis = config.AnalysisData{} // auto-selection would pick modal only
	ev, err := New(cfg, &stubEngine{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	phases, err := ev.SelectPhases([]string{"time_history", "static"})
	if err != nil {
		t.Fatal(err)
	}
	// Explicit selection still runs in fixed order.
	if len(phases) != 2 || phases[0] != PhaseStatic || phases[1] != PhaseTimeHistory {
		t.Errorf("phases = %v, expected [static time_history]", phases)
	}
}

func TestSelectPhasesUnknownName(t *testing.T) {
	ev, err := New(fullConfig(), &stubEngine{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ev.SelectPhases([]string{"pushover"})
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.ConfigError, got %v", err)
	}
}

func TestRunFaultIsolation(t *testing.T) {
	// Static and modal succeed, time history fails: the run must not
	// return an error, and damage comes from the phases that succeeded.
	eng := &stubEngine{
		staticDisp: []float64{0, -0.03, 0},
		modalVals:  []float64{40.0, 160.0, 360.0},
		thErr:      &engine.PhaseError{Phase: "time_history", Err: errors.New("integration diverged")},
	}

	ev, err := New(fullConfig(), eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatalf("Run returned an error despite per-phase isolation: %v", err)
	}

	if summary.Raw[PhaseStatic].Failed() || summary.Raw[PhaseStatic].Static == nil {
		t.Error("static result missing or failed")
	}
	if summary.Raw[PhaseModal].Failed() || summary.Raw[PhaseModal].Modal == nil {
		t.Error("modal result missing or failed")
	}
	if th := summary.Raw[PhaseTimeHistory]; !th.Failed() || th.TimeHistory != nil {
		t.Error("time history should be recorded as a failure marker with no payload")
	}

	if summary.Damage.Static == nil {
		t.Fatal("expected a static damage assessment")
	}
	if summary.Damage.TimeHistory != nil {
		t.Error("no time history assessment should exist for a failed phase")
	}
	// |-0.03| is at or above the deck_disp SLIGHT median (0.02) and below MODERATE (0.05).
	if summary.Damage.Static.State != fragility.Slight {
		t.Errorf("static state = %v, expected SLIGHT", summary.Damage.Static.State)
	}
	if summary.Damage.Static.DeckDisplacement != -0.03 {
		t.Errorf("deck displacement = %g, expected signed -0.03", summary.Damage.Static.DeckDisplacement)
	}
}

func TestRunRebuildsModelPerPhase(t *testing.T) {
	eng := &stubEngine{
		staticDisp: []float64{0, -0.01, 0},
		modalVals:  []float64{40.0},
		th:         thMatrix(0.1, 0.03),
	}
	ev, err := New(fullConfig(), eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ev.Run(nil); err != nil {
		t.Fatal(err)
	}

	if eng.buildCalls != 3 {
		t.Errorf("BuildModel called %d times for 3 phases, expected 3", eng.buildCalls)
	}
}

func TestRunBuildFailureIsolatedPerPhase(t *testing.T) {
	eng := &stubEngine{
		buildErr: &engine.ModelBuildError{Err: errors.New("mesh generation failed")},
	}
	ev, err := New(fullConfig(), eng, nil)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	for phase, result := range summary.Raw {
		if !result.Failed() {
			t.Errorf("phase %s should carry the model build failure", phase)
		}
	}
	if summary.Damage.Static != nil || summary.Damage.TimeHistory != nil {
		t.Error("no assessments should exist when every phase failed")
	}
}

func TestRunTimeHistoryAssessment(t *testing.T) {
	// Pier peak 0.1 over height 8.0 gives drift 0.0125: MODERATE.
	// Deck vertical peak 0.12 is past the EXTENSIVE median (0.1).
	eng := &stubEngine{
		staticDisp: []float64{0, -0.001, 0},
		modalVals:  []float64{40.0},
		th:         thMatrix(0.1, 0.12),
	}
	ev, err := New(fullConfig(), eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatal(err)
	}

	th := summary.Damage.TimeHistory
	if th == nil {
		t.Fatal("expected a time history assessment")
	}
	if math.Abs(th.MaxPierDrift-0.0125) > 1e-12 {
		t.Errorf("pier drift = %g, expected 0.0125", th.MaxPierDrift)
	}
	if th.PierState != fragility.Moderate {
		t.Errorf("pier state = %v, expected MODERATE", th.PierState)
	}
	if th.DeckState != fragility.Extensive {
		t.Errorf("deck state = %v, expected EXTENSIVE", th.DeckState)
	}
	if th.OverallState != fragility.Extensive {
		t.Errorf("overall state = %v, expected worst-of EXTENSIVE", th.OverallState)
	}

	for name, probs := range map[string]map[fragility.DamageState]float64{
		"pier": th.PierProbabilities,
		"deck": th.DeckProbabilities,
	} {
		sum := 0.0
		for _, p := range probs {
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%s probabilities sum to %g, expected 1", name, sum)
		}
	}
}

func TestRunEmptyTimeHistory(t *testing.T) {
	eng := &stubEngine{
		modalVals: []float64{40.0},
		th: &engine.TimeHistoryResult{
			Displacements: response.ZeroMatrix(1, response.DisplacementCols),
			ElementForces: response.ZeroMatrix(1, response.ForceCols),
		},
	}
	cfg := fullConfig()
	cfg.Analysis.StaticLoad = nil
	ev, err := New(cfg, eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatal(err)
	}

	th := summary.Damage.TimeHistory
	if th == nil {
		t.Fatal("expected a time history assessment marker")
	}
	if th.Err == nil {
		t.Error("empty time history must carry an error marker")
	}
	if th.OverallState != fragility.NoDamage || th.MaxPierDrift != 0 {
		t.Errorf("empty time history must resolve to no damage, got %v drift %g", th.OverallState, th.MaxPierDrift)
	}
	for _, p := range th.PierProbabilities {
		if p != 0 {
			t.Error("empty time history probabilities must all be zero")
		}
	}
}

func TestRunClassificationErrorIsolated(t *testing.T) {
	// Fragility overrides without a pier_drift component: time history
	// evaluation hits a classification error that must become a marker.
	cfg := fullConfig()
	cfg.Fragility = map[string]map[string]config.CurveData{
		"deck_disp": {
			"slight": {Median: 0.02, Beta: 0.6},
		},
	}
	eng := &stubEngine{
		staticDisp: []float64{0, -0.03, 0},
		modalVals:  []float64{40.0},
		th:         thMatrix(0.1, 0.03),
	}
	ev, err := New(cfg, eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}

	th := summary.Damage.TimeHistory
	if th == nil || th.Err == nil {
		t.Fatal("expected a time history assessment with an error marker")
	}
	var classErr *fragility.ClassificationError
	if !errors.As(th.Err, &classErr) {
		t.Errorf("marker = %v, expected a *fragility.ClassificationError", th.Err)
	}
}

func TestRunPersistsWhenRequested(t *testing.T) {
	cfg := fullConfig()
	cfg.Analysis.GroundMotion = nil
	cfg.Output.SaveResults = true
	cfg.Output.ResultFile = "out/summary.json"

	writer := &recordingWriter{}
	eng := &stubEngine{staticDisp: []float64{0, -0.01, 0}, modalVals: []float64{40.0}}
	ev, err := New(cfg, eng, writer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ev.Run(nil); err != nil {
		t.Fatal(err)
	}

	if len(writer.paths) != 1 || writer.paths[0] != "out/summary.json" {
		t.Errorf("writer paths = %v, expected one write to out/summary.json", writer.paths)
	}
}

func TestRunWriterFailureDoesNotPropagate(t *testing.T) {
	cfg := fullConfig()
	cfg.Analysis.GroundMotion = nil
	cfg.Output.SaveResults = true

	writer := &recordingWriter{err: errors.New("disk full")}
	eng := &stubEngine{staticDisp: []float64{0, -0.01, 0}, modalVals: []float64{40.0}}
	ev, err := New(cfg, eng, writer)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatalf("Run returned an error on serialization failure: %v", err)
	}
	if summary == nil || summary.Damage.Static == nil {
		t.Error("summary must be intact despite the failed write")
	}
}

func TestRunConfigSnapshotIsImmutable(t *testing.T) {
	cfg := fullConfig()
	eng := &stubEngine{
		staticDisp: []float64{0, -0.01, 0},
		modalVals:  []float64{40.0},
		th:         thMatrix(0.01, 0.01),
	}
	ev, err := New(cfg, eng, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := ev.Run(nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg.Span = 999
	*cfg.Analysis.StaticLoad = 0

	if summary.Config.Span != 30.0 {
		t.Errorf("snapshot span = %g, expected 30.0", summary.Config.Span)
	}
	if *summary.Config.Analysis.StaticLoad != 150.0 {
		t.Errorf("snapshot static load = %g, expected 150.0", *summary.Config.Analysis.StaticLoad)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := fullConfig()
	cfg.Span = -1

	_, err := New(cfg, &stubEngine{}, nil)
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.ConfigError, got %v", err)
	}
}
