// Package config provides bridge evaluation configuration loading from
// YAML files and SQLite databases behind a common Provider interface.
package config

import "fmt"

// Default values applied when the corresponding field is absent.
const (
	DefaultStaticLoad = 100.0
	DefaultNumModes   = 3
	DefaultResultFile = "results.json"
)

// Provider defines the interface for configuration data sources
type Provider interface {
	// Load complete configuration
	LoadConfig() (*Data, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// Data represents the complete bridge evaluation configuration
type Data struct {
	Span      float64                         `json:"span"`
	Height    float64                         `json:"height"`
	Material  MaterialData                    `json:"material"`
	Analysis  AnalysisData                    `json:"analysis"`
	NumModes  int                             `json:"num_modes,omitempty"`
	Fragility map[string]map[string]CurveData `json:"fragility,omitempty"`
	Output    OutputData                      `json:"output,omitempty"`
}

// MaterialData holds material and section properties passed through to the
// structural analysis engine, unaltered by this module.
type MaterialData struct {
	E           float64 `json:"e"`
	Fc          float64 `json:"fc"`
	PierWidth   float64 `json:"pier_width"`
	DeckArea    float64 `json:"deck_area"`
	DeckInertia float64 `json:"deck_inertia"`
}

// AnalysisData selects which analysis phases run and with what parameters
type AnalysisData struct {
	StaticLoad   *float64          `json:"static_load,omitempty"`
	GroundMotion *GroundMotionData `json:"ground_motion,omitempty"`
}

// GroundMotionData describes an acceleration record on disk
type GroundMotionData struct {
	File     string   `json:"file"`
	Dt       float64  `json:"dt"`
	Duration *float64 `json:"duration,omitempty"`
}

// CurveData holds one fragility curve override (lognormal median and
// logarithmic standard deviation)
type CurveData struct {
	Median float64 `json:"median"`
	Beta   float64 `json:"beta"`
}

// OutputData holds result persistence settings
type OutputData struct {
	SaveResults bool   `json:"save_results,omitempty"`
	ResultFile  string `json:"result_file,omitempty"`
	ServeAddr   string `json:"serve_addr,omitempty"`
}

// ConfigError indicates malformed or missing required configuration. It is
// the only error class that aborts an evaluation run before any phase runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// StaticLoadOrDefault returns the configured static load magnitude,
// or DefaultStaticLoad when unset.
func (d *Data) StaticLoadOrDefault() float64 {
	if d.Analysis.StaticLoad != nil {
		return *d.Analysis.StaticLoad
	}
	return DefaultStaticLoad
}

// NumModesOrDefault returns the configured mode count, or DefaultNumModes
// when unset.
func (d *Data) NumModesOrDefault() int {
	if d.NumModes > 0 {
		return d.NumModes
	}
	return DefaultNumModes
}

// ResultFileOrDefault returns the configured result path, or
// DefaultResultFile when unset.
func (d *Data) ResultFileOrDefault() string {
	if d.Output.ResultFile != "" {
		return d.Output.ResultFile
	}
	return DefaultResultFile
}

// Validate checks the top-level configuration for structural errors.
// A non-nil return is always a *ConfigError.
func (d *Data) Validate() error {
	if d.Span <= 0 {
		return &ConfigError{Field: "span", Reason: "must be positive"}
	}
	if d.Height <= 0 {
		return &ConfigError{Field: "height", Reason: "must be positive"}
	}
	if gm := d.Analysis.GroundMotion; gm != nil {
		if gm.File == "" {
			return &ConfigError{Field: "analysis.ground_motion.file", Reason: "required"}
		}
		if gm.Dt <= 0 {
			return &ConfigError{Field: "analysis.ground_motion.dt", Reason: "must be positive"}
		}
		if gm.Duration != nil && *gm.Duration <= 0 {
			return &ConfigError{Field: "analysis.ground_motion.duration", Reason: "must be positive"}
		}
	}
	for component, states := range d.Fragility {
		for state, curve := range states {
			if curve.Median <= 0 {
				return &ConfigError{
					Field:  fmt.Sprintf("fragility.%s.%s.median", component, state),
					Reason: "must be positive",
				}
			}
			if curve.Beta <= 0 {
				return &ConfigError{
					Field:  fmt.Sprintf("fragility.%s.%s.beta", component, state),
					Reason: "must be positive",
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration. Evaluation summaries
// embed a clone so later edits to the live config cannot change a
// finished run's snapshot.
func (d *Data) Clone() *Data {
	out := *d
	if d.Analysis.StaticLoad != nil {
		v := *d.Analysis.StaticLoad
		out.Analysis.StaticLoad = &v
	}
	if d.Analysis.GroundMotion != nil {
		gm := *d.Analysis.GroundMotion
		if gm.Duration != nil {
			dur := *gm.Duration
			gm.Duration = &dur
		}
		out.Analysis.GroundMotion = &gm
	}
	if d.Fragility != nil {
		out.Fragility = make(map[string]map[string]CurveData, len(d.Fragility))
		for component, states := range d.Fragility {
			copied := make(map[string]CurveData, len(states))
			for state, curve := range states {
				copied[state] = curve
			}
			out.Fragility[component] = copied
		}
	}
	return &out
}
