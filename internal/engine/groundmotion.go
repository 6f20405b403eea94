package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Gravity scales raw ground-motion samples (given in units of g) to
// absolute acceleration in m/s^2.
const Gravity = 9.81

// GroundMotion is a uniformly sampled acceleration record, already
// scaled to m/s^2.
type GroundMotion struct {
	Accel []float64
	Dt    float64
}

// Duration returns the record length in seconds.
func (g *GroundMotion) Duration() float64 {
	if len(g.Accel) < 2 {
		return 0
	}
	return float64(len(g.Accel)-1) * g.Dt
}

// AccelAt returns the record acceleration at time t via linear
// interpolation, and zero outside the record.
func (g *GroundMotion) AccelAt(t float64) float64 {
	if t < 0 || len(g.Accel) == 0 {
		return 0
	}
	pos := t / g.Dt
	i := int(pos)
	if i >= len(g.Accel)-1 {
		if i == len(g.Accel)-1 && pos == float64(i) {
			return g.Accel[i]
		}
		return 0
	}
	frac := pos - float64(i)
	return g.Accel[i]*(1-frac) + g.Accel[i+1]*frac
}

// LoadGroundMotion reads a plain-text column of acceleration samples at
// uniform spacing dt and scales them by gravitational acceleration.
func LoadGroundMotion(path string, dt float64) (*GroundMotion, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground motion file: %w", err)
	}

	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return nil, fmt.Errorf("ground motion file %s contains no samples", path)
	}

	accel := make([]float64, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("ground motion file %s: bad sample %d (%q): %w", path, i, field, err)
		}
		accel = append(accel, v*Gravity)
	}

	return &GroundMotion{Accel: accel, Dt: dt}, nil
}
