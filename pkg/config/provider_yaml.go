package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*Data, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Span     float64 `yaml:"span"`
		Height   float64 `yaml:"height"`
		Material struct {
			E           float64 `yaml:"e"`
			Fc          float64 `yaml:"fc"`
			PierWidth   float64 `yaml:"pier_width"`
			DeckArea    float64 `yaml:"deck_area"`
			DeckInertia float64 `yaml:"deck_inertia"`
		} `yaml:"material"`
		Analysis struct {
			StaticLoad   *float64 `yaml:"static_load,omitempty"`
			GroundMotion *struct {
				File     string   `yaml:"file"`
				Dt       float64  `yaml:"dt"`
				Duration *float64 `yaml:"duration,omitempty"`
			} `yaml:"ground_motion,omitempty"`
		} `yaml:"analysis"`
		NumModes  int `yaml:"num_modes,omitempty"`
		Fragility map[string]map[string]struct {
			Median float64 `yaml:"median"`
			Beta   float64 `yaml:"beta"`
		} `yaml:"fragility,omitempty"`
		Output struct {
			SaveResults bool   `yaml:"save_results,omitempty"`
			ResultFile  string `yaml:"result_file,omitempty"`
			ServeAddr   string `yaml:"serve_addr,omitempty"`
		} `yaml:"output,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Convert to our internal format
	config := &Data{
		Span:   yamlConfig.Span,
		Height: yamlConfig.Height,
		Material: MaterialData{
			E:           yamlConfig.Material.E,
			Fc:          yamlConfig.Material.Fc,
			PierWidth:   yamlConfig.Material.PierWidth,
			DeckArea:    yamlConfig.Material.DeckArea,
			DeckInertia: yamlConfig.Material.DeckInertia,
		},
		NumModes: yamlConfig.NumModes,
		Output: OutputData{
			SaveResults: yamlConfig.Output.SaveResults,
			ResultFile:  yamlConfig.Output.ResultFile,
			ServeAddr:   yamlConfig.Output.ServeAddr,
		},
	}

	config.Analysis.StaticLoad = yamlConfig.Analysis.StaticLoad
	if gm := yamlConfig.Analysis.GroundMotion; gm != nil {
		config.Analysis.GroundMotion = &GroundMotionData{
			File:     gm.File,
			Dt:       gm.Dt,
			Duration: gm.Duration,
		}
	}

	if len(yamlConfig.Fragility) > 0 {
		config.Fragility = make(map[string]map[string]CurveData, len(yamlConfig.Fragility))
		for component, states := range yamlConfig.Fragility {
			converted := make(map[string]CurveData, len(states))
			for state, curve := range states {
				converted[state] = CurveData{Median: curve.Median, Beta: curve.Beta}
			}
			config.Fragility[component] = converted
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this provider
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
