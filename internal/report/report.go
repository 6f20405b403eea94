// Package report renders an evaluation summary as human-readable text.
package report

import (
	"fmt"
	"strings"

	"github.com/quakelab/bridgeval/internal/orchestrator"
	"github.com/quakelab/bridgeval/pkg/fragility"
)

// Render produces the text damage summary. The richest available phase
// wins: time history if present, else static, else a no-evaluation
// notice. Render never fails; assessments that carry an error marker
// degrade to an explicit error line.
func Render(summary *orchestrator.Summary) string {
	if summary == nil || summary.Damage == nil {
		return "No damage evaluation was performed."
	}

	if th := summary.Damage.TimeHistory; th != nil {
		return renderTimeHistory(th)
	}
	if st := summary.Damage.Static; st != nil {
		return renderStatic(st)
	}
	return "No damage evaluation was performed."
}

func renderTimeHistory(th *orchestrator.TimeHistoryAssessment) string {
	var lines []string

	if th.Err != nil {
		lines = append(lines, fmt.Sprintf("Damage evaluation error: %v", th.Err))
		return strings.Join(lines, "\n")
	}

	lines = append(lines,
		fmt.Sprintf("Overall damage state: %s", th.OverallState),
		fmt.Sprintf("Damage description: %s", th.OverallState.Description()),
		fmt.Sprintf("Maximum pier drift ratio: %.6f", th.MaxPierDrift),
	)

	lines = append(lines, "Pier damage state probabilities:")
	lines = append(lines, probabilityLines(th.PierProbabilities)...)
	lines = append(lines, "Deck damage state probabilities:")
	lines = append(lines, probabilityLines(th.DeckProbabilities)...)

	return strings.Join(lines, "\n")
}

func renderStatic(st *orchestrator.StaticAssessment) string {
	if st.Err != nil {
		return fmt.Sprintf("Static damage evaluation error: %v", st.Err)
	}

	lines := []string{
		fmt.Sprintf("Static damage state: %s", st.State),
		fmt.Sprintf("Damage description: %s", st.State.Description()),
		fmt.Sprintf("Maximum deck displacement: %.6f", st.DeckDisplacement),
	}
	return strings.Join(lines, "\n")
}

func probabilityLines(probs map[fragility.DamageState]float64) []string {
	lines := make([]string, 0, len(fragility.States()))
	for _, state := range fragility.States() {
		lines = append(lines, fmt.Sprintf("  - %s: %.2f%%", state, probs[state]*100))
	}
	return lines
}
