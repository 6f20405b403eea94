package engine

import (
	"errors"
	"math"

	"github.com/quakelab/bridgeval/internal/response"
)

const (
	concreteDensity = 2400.0 // kg/m^3
	dampingRatio    = 0.05

	// Fraction of the lateral excitation that couples into the vertical
	// deck response in the lumped model.
	deckCoupling = 0.3
)

// Simulated is a lumped-parameter stand-in for the external finite
// element engine: two piers modeled as a single lateral spring-mass
// oscillator and the deck as a vertical one, integrated with the
// constant-average-acceleration Newmark method. It exists so the
// pipeline has a working in-repo collaborator; it makes no claim to
// finite-element fidelity.
//
// Like the real engine, the model is session state: every Run* consumes
// the current model and a fresh BuildModel is required before the next
// phase.
type Simulated struct {
	params ModelParams
	built  bool

	lateralStiffness  float64
	verticalStiffness float64
	mass              float64

	results map[string]interface{}
}

// NewSimulated creates an engine session with no model built.
func NewSimulated() *Simulated {
	return &Simulated{
		results: make(map[string]interface{}),
	}
}

// BuildModel derives the lumped spring-mass properties from the bridge
// geometry and material configuration.
func (s *Simulated) BuildModel(params ModelParams) error {
	if params.SpanLength <= 0 || params.PierHeight <= 0 {
		return &ModelBuildError{Err: errors.New("span and pier height must be positive")}
	}
	if params.Material.E <= 0 {
		return &ModelBuildError{Err: errors.New("material modulus must be positive")}
	}

	pierInertia := math.Pow(params.Material.PierWidth, 4) / 12
	deckInertia := params.Material.DeckInertia

	// Two fixed-free piers side by side, midspan point stiffness for the deck.
	lateral := 2 * 3 * params.Material.E * pierInertia / math.Pow(params.PierHeight, 3)
	vertical := 48 * params.Material.E * deckInertia / math.Pow(params.SpanLength, 3)
	mass := params.Material.DeckArea * params.SpanLength * concreteDensity

	if lateral <= 0 || vertical <= 0 || mass <= 0 {
		return &ModelBuildError{Err: errors.New("degenerate section properties yield a singular model")}
	}

	s.params = params
	s.lateralStiffness = lateral
	s.verticalStiffness = vertical
	s.mass = mass
	s.built = true
	return nil
}

func (s *Simulated) requireModel(phase string) error {
	if !s.built {
		return &PhaseError{Phase: phase, Err: errors.New("no structural model built; call BuildModel first")}
	}
	return nil
}

// RunStatic solves the vertical deflection of the deck midpoint under a
// downward point load and returns that node's displacement vector.
func (s *Simulated) RunStatic(loadMagnitude float64) ([]float64, error) {
	if err := s.requireModel("static"); err != nil {
		return nil, err
	}
	s.built = false

	deflection := -loadMagnitude / s.verticalStiffness
	displacement := []float64{0, deflection, 0}

	s.results["static"] = map[string]interface{}{
		"displacements": map[string][]float64{"node5": displacement},
	}
	return displacement, nil
}

// RunModal returns numModes eigenvalues of the lumped model. Higher
// modes follow the usual quadratic stiffening of slender members.
func (s *Simulated) RunModal(numModes int) ([]float64, error) {
	if err := s.requireModel("modal"); err != nil {
		return nil, err
	}
	s.built = false

	if numModes <= 0 {
		return nil, &PhaseError{Phase: "modal", Err: errors.New("mode count must be positive")}
	}

	fundamental := s.lateralStiffness / s.mass
	eigenvalues := make([]float64, numModes)
	for i := range eigenvalues {
		n := float64(i + 1)
		eigenvalues[i] = fundamental * n * n
	}

	periods := Periods(eigenvalues)
	s.results["modal"] = map[string]interface{}{
		"eigen_values": eigenvalues,
		"periods":      periods,
		"frequencies":  Frequencies(periods),
	}
	return eigenvalues, nil
}

// RunTimeHistory integrates both oscillators against the ground-motion
// record with Newmark-beta (gamma = 1/2, beta = 1/4) and assembles the
// displacement and element-force response matrices.
func (s *Simulated) RunTimeHistory(groundMotionFile string, recordDt, analysisDt, totalDuration float64) (*TimeHistoryResult, error) {
	if err := s.requireModel("time_history"); err != nil {
		return nil, err
	}
	s.built = false

	if recordDt <= 0 || analysisDt <= 0 {
		return nil, &PhaseError{Phase: "time_history", Err: errors.New("time steps must be positive")}
	}

	gm, err := LoadGroundMotion(groundMotionFile, recordDt)
	if err != nil {
		return nil, &PhaseError{Phase: "time_history", Err: err}
	}

	if totalDuration <= 0 {
		totalDuration = gm.Duration()
	}
	steps := int(totalDuration / analysisDt)
	if steps < 1 {
		return nil, &PhaseError{Phase: "time_history", Err: errors.New("record too short for the analysis time step")}
	}

	lateral := s.integrate(s.lateralStiffness, 1.0, gm, analysisDt, steps)
	vertical := s.integrate(s.verticalStiffness, deckCoupling, gm, analysisDt, steps)

	dispRows := make([][]float64, steps+1)
	forceRows := make([][]float64, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) * analysisDt

		disp := make([]float64, response.DisplacementCols)
		disp[0] = t
		disp[4] = lateral[i]  // node 2, left pier top x
		disp[7] = lateral[i]  // node 3, right pier top x
		disp[13] = lateral[i] // node 5, deck midpoint x
		disp[14] = vertical[i]
		dispRows[i] = disp

		force := make([]float64, response.ForceCols)
		force[0] = t
		pierShear := s.lateralStiffness / 2 * lateral[i]
		deckShear := s.verticalStiffness / 2 * vertical[i]
		force[1] = pierShear
		force[4] = pierShear
		force[7] = deckShear
		force[10] = deckShear
		forceRows[i] = force
	}

	result := &TimeHistoryResult{
		Displacements: response.NewMatrix(dispRows),
		ElementForces: response.NewMatrix(forceRows),
	}
	s.results["time_history"] = result
	return result, nil
}

// integrate runs a single-degree-of-freedom Newmark-beta integration and
// returns the displacement history including the at-rest initial sample.
func (s *Simulated) integrate(stiffness, excitationScale float64, gm *GroundMotion, dt float64, steps int) []float64 {
	const gamma, beta = 0.5, 0.25

	m := s.mass
	k := stiffness
	c := 2 * dampingRatio * math.Sqrt(k*m)

	u := make([]float64, steps+1)
	vel := 0.0
	acc := -excitationScale * gm.AccelAt(0)

	kHat := k + gamma/(beta*dt)*c + m/(beta*dt*dt)

	for i := 1; i <= steps; i++ {
		t := float64(i) * dt
		p := -m * excitationScale * gm.AccelAt(t)

		dp := p + m*(u[i-1]/(beta*dt*dt)+vel/(beta*dt)+acc*(1/(2*beta)-1)) +
			c*(gamma*u[i-1]/(beta*dt)+vel*(gamma/beta-1)+acc*dt*(gamma/(2*beta)-1))

		u[i] = dp / kHat
		velNew := gamma / (beta * dt) * (u[i] - u[i-1]) + vel*(1-gamma/beta) + acc*dt*(1-gamma/(2*beta))
		accNew := (u[i]-u[i-1])/(beta*dt*dt) - vel/(beta*dt) - acc*(1/(2*beta)-1)
		vel, acc = velNew, accNew
	}

	return u
}

// AccumulatedResults returns everything computed this session, keyed by
// phase name.
func (s *Simulated) AccumulatedResults() map[string]interface{} {
	return s.results
}
