// Package results turns evaluation summaries into plain documents and
// persists them: JSON or MessagePack files, a SQLite run archive, and an
// HTTP viewer.
package results

import (
	"github.com/quakelab/bridgeval/internal/orchestrator"
	"github.com/quakelab/bridgeval/internal/response"
	"github.com/quakelab/bridgeval/pkg/config"
	"github.com/quakelab/bridgeval/pkg/fragility"
)

// Document converts a summary into a nested map of plain values. The
// conversion is an explicit visitor over the four shapes that occur in a
// summary: numeric arrays become flat sequences, damage states become
// their name strings, structs become field maps, and anything else is
// stringified. No runtime type inspection.
func Document(summary *orchestrator.Summary) map[string]interface{} {
	doc := map[string]interface{}{
		"run_id":   summary.RunID,
		"analysis": analysisDocument(summary.Raw),
		"damage":   damageDocument(summary.Damage),
		"summary": map[string]interface{}{
			"total_analysis_time": summary.ElapsedSeconds,
			"config":              configDocument(summary.Config),
		},
	}
	return doc
}

func analysisDocument(raw map[orchestrator.Phase]*orchestrator.PhaseResult) map[string]interface{} {
	doc := make(map[string]interface{}, len(raw))
	for phase, result := range raw {
		doc[string(phase)] = phaseDocument(result)
	}
	return doc
}

func phaseDocument(result *orchestrator.PhaseResult) map[string]interface{} {
	if result.Failed() {
		return map[string]interface{}{"error": result.Err.Error()}
	}

	switch {
	case result.Static != nil:
		return map[string]interface{}{
			"displacements": map[string]interface{}{
				"node5": floatSequence(result.Static.Displacement),
			},
		}
	case result.Modal != nil:
		return map[string]interface{}{
			"eigen_values": floatSequence(result.Modal.Eigenvalues),
			"periods":      floatSequence(result.Modal.Periods),
			"frequencies":  floatSequence(result.Modal.Frequencies),
		}
	case result.TimeHistory != nil:
		return map[string]interface{}{
			"displacements":  matrixSequence(result.TimeHistory.Displacements),
			"element_forces": matrixSequence(result.TimeHistory.ElementForces),
			"time_points":    timePoints(result.TimeHistory.Displacements),
		}
	}
	return map[string]interface{}{}
}

func damageDocument(damage *orchestrator.DamageResult) map[string]interface{} {
	doc := make(map[string]interface{})
	if damage == nil {
		return doc
	}

	if st := damage.Static; st != nil {
		entry := map[string]interface{}{
			"deck_displacement": st.DeckDisplacement,
			"damage_state":      st.State.String(),
		}
		if st.Err != nil {
			entry["error"] = st.Err.Error()
		}
		doc["static"] = entry
	}

	if th := damage.TimeHistory; th != nil {
		entry := map[string]interface{}{
			"max_pier_drift":            th.MaxPierDrift,
			"max_deck_displacement":     floatSequence(th.MaxDeckDisplacement[:]),
			"pier_damage_state":         th.PierState.String(),
			"deck_damage_state":         th.DeckState.String(),
			"overall_damage_state":      th.OverallState.String(),
			"pier_damage_probabilities": probabilityDocument(th.PierProbabilities),
			"deck_damage_probabilities": probabilityDocument(th.DeckProbabilities),
		}
		if th.Err != nil {
			entry["error"] = th.Err.Error()
		}
		doc["time_history"] = entry
	}

	return doc
}

func probabilityDocument(probs map[fragility.DamageState]float64) map[string]interface{} {
	doc := make(map[string]interface{}, len(probs))
	for state, p := range probs {
		doc[state.String()] = p
	}
	return doc
}

func configDocument(cfg *config.Data) map[string]interface{} {
	if cfg == nil {
		return nil
	}

	doc := map[string]interface{}{
		"span":   cfg.Span,
		"height": cfg.Height,
		"material": map[string]interface{}{
			"e":            cfg.Material.E,
			"fc":           cfg.Material.Fc,
			"pier_width":   cfg.Material.PierWidth,
			"deck_area":    cfg.Material.DeckArea,
			"deck_inertia": cfg.Material.DeckInertia,
		},
	}

	analysis := make(map[string]interface{})
	if cfg.Analysis.StaticLoad != nil {
		analysis["static_load"] = *cfg.Analysis.StaticLoad
	}
	if gm := cfg.Analysis.GroundMotion; gm != nil {
		gmDoc := map[string]interface{}{
			"file": gm.File,
			"dt":   gm.Dt,
		}
		if gm.Duration != nil {
			gmDoc["duration"] = *gm.Duration
		}
		analysis["ground_motion"] = gmDoc
	}
	doc["analysis"] = analysis

	if cfg.NumModes > 0 {
		doc["num_modes"] = cfg.NumModes
	}

	if len(cfg.Fragility) > 0 {
		fragDoc := make(map[string]interface{}, len(cfg.Fragility))
		for component, states := range cfg.Fragility {
			statesDoc := make(map[string]interface{}, len(states))
			for state, curve := range states {
				statesDoc[state] = map[string]interface{}{
					"median": curve.Median,
					"beta":   curve.Beta,
				}
			}
			fragDoc[component] = statesDoc
		}
		doc["fragility"] = fragDoc
	}

	doc["output"] = map[string]interface{}{
		"save_results": cfg.Output.SaveResults,
		"result_file":  cfg.Output.ResultFile,
		"serve_addr":   cfg.Output.ServeAddr,
	}

	return doc
}

func floatSequence(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

func matrixSequence(m *response.Matrix) [][]float64 {
	if m == nil {
		return nil
	}
	return m.ToRows()
}

func timePoints(m *response.Matrix) []float64 {
	if m == nil || m.Cols() == 0 {
		return nil
	}
	points := make([]float64, m.Rows())
	for i := range points {
		points[i] = m.At(i, 0)
	}
	return points
}
