package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
span: 30.0
height: 8.0
material:
  e: 3.0e10
  fc: 3.0e7
  pier_width: 1.2
  deck_area: 5.0
  deck_inertia: 2.0
analysis:
  static_load: 150.0
  ground_motion:
    file: motion.txt
    dt: 0.02
num_modes: 5
fragility:
  pier_drift:
    slight:
      median: 0.004
      beta: 0.5
output:
  save_results: true
  result_file: out/results.json
`

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	provider := NewYAMLProvider(writeYAML(t, sampleYAML))
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Span != 30.0 || cfg.Height != 8.0 {
		t.Errorf("geometry = %g x %g", cfg.Span, cfg.Height)
	}
	if cfg.Material.E != 3.0e10 {
		t.Errorf("E = %g", cfg.Material.E)
	}
	if cfg.Analysis.StaticLoad == nil || *cfg.Analysis.StaticLoad != 150.0 {
		t.Error("static load not loaded")
	}
	if cfg.Analysis.GroundMotion == nil || cfg.Analysis.GroundMotion.Dt != 0.02 {
		t.Error("ground motion not loaded")
	}
	if cfg.Analysis.GroundMotion.Duration != nil {
		t.Error("duration should be unset")
	}
	if cfg.NumModes != 5 {
		t.Errorf("num_modes = %d", cfg.NumModes)
	}
	if curve := cfg.Fragility["pier_drift"]["slight"]; curve.Median != 0.004 || curve.Beta != 0.5 {
		t.Errorf("fragility override = %+v", curve)
	}
	if !cfg.Output.SaveResults || cfg.Output.ResultFile != "out/results.json" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderInvalidConfig(t *testing.T) {
	provider := NewYAMLProvider(writeYAML(t, "span: -5\nheight: 8\n"))

	_, err := provider.LoadConfig()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Field != "span" {
		t.Errorf("field = %q", cfgErr.Field)
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	provider := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	yamlProvider := NewYAMLProvider(writeYAML(t, sampleYAML))
	original, err := yamlProvider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "config.db")
	sqliteProvider, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.StoreConfig(original); err != nil {
		t.Fatalf("StoreConfig failed: %v", err)
	}

	loaded, err := sqliteProvider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Span != original.Span || loaded.Height != original.Height {
		t.Errorf("geometry mismatch: %+v", loaded)
	}
	if loaded.Analysis.StaticLoad == nil || *loaded.Analysis.StaticLoad != 150.0 {
		t.Error("static load did not round-trip")
	}
	if loaded.Analysis.GroundMotion == nil || loaded.Analysis.GroundMotion.File != "motion.txt" {
		t.Error("ground motion did not round-trip")
	}
	if loaded.NumModes != 5 {
		t.Errorf("num_modes = %d", loaded.NumModes)
	}
	if curve := loaded.Fragility["pier_drift"]["slight"]; curve.Median != 0.004 {
		t.Errorf("fragility did not round-trip: %+v", curve)
	}
	if !loaded.Output.SaveResults || loaded.Output.ResultFile != "out/results.json" {
		t.Errorf("output did not round-trip: %+v", loaded.Output)
	}
	if sqliteProvider.IsReadOnly() {
		t.Error("SQLite provider should not be read-only")
	}
}

func TestSQLiteProviderEmptyDatabase(t *testing.T) {
	provider, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close()
	if err := provider.Initialize(); err != nil {
		t.Fatal(err)
	}

	_, err = provider.LoadConfig()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for empty database, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Data {
		return &Data{Span: 30, Height: 8}
	}

	tests := []struct {
		name    string
		mutate  func(*Data)
		wantErr bool
	}{
		{"valid minimal", func(*Data) {}, false},
		{"zero span", func(d *Data) { d.Span = 0 }, true},
		{"negative height", func(d *Data) { d.Height = -1 }, true},
		{"ground motion without file", func(d *Data) {
			d.Analysis.GroundMotion = &GroundMotionData{Dt: 0.02}
		}, true},
		{"ground motion with zero dt", func(d *Data) {
			d.Analysis.GroundMotion = &GroundMotionData{File: "m.txt"}
		}, true},
		{"non-positive fragility median", func(d *Data) {
			d.Fragility = map[string]map[string]CurveData{
				"pier_drift": {"slight": {Median: 0, Beta: 0.6}},
			}
		}, true},
		{"non-positive fragility beta", func(d *Data) {
			d.Fragility = map[string]map[string]CurveData{
				"pier_drift": {"slight": {Median: 0.005, Beta: -1}},
			}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Data{Span: 30, Height: 8}

	if got := cfg.StaticLoadOrDefault(); got != DefaultStaticLoad {
		t.Errorf("StaticLoadOrDefault = %g", got)
	}
	if got := cfg.NumModesOrDefault(); got != DefaultNumModes {
		t.Errorf("NumModesOrDefault = %d", got)
	}
	if got := cfg.ResultFileOrDefault(); got != DefaultResultFile {
		t.Errorf("ResultFileOrDefault = %q", got)
	}

	load := 250.0
	cfg.Analysis.StaticLoad = &load
	cfg.NumModes = 7
	cfg.Output.ResultFile = "custom.json"
	if cfg.StaticLoadOrDefault() != 250.0 || cfg.NumModesOrDefault() != 7 || cfg.ResultFileOrDefault() != "custom.json" {
		t.Error("configured values must override defaults")
	}
}

func TestClone(t *testing.T) {
	load := 150.0
	duration := 20.0
	cfg := &Data{
		Span: 30, Height: 8,
		Analysis: AnalysisData{
			StaticLoad:   &load,
			GroundMotion: &GroundMotionData{File: "m.txt", Dt: 0.02, Duration: &duration},
		},
		Fragility: map[string]map[string]CurveData{
			"pier_drift": {"slight": {Median: 0.005, Beta: 0.6}},
		},
	}

	clone := cfg.Clone()
	*cfg.Analysis.StaticLoad = 999
	cfg.Analysis.GroundMotion.File = "other.txt"
	cfg.Fragility["pier_drift"]["slight"] = CurveData{Median: 1, Beta: 1}

	if *clone.Analysis.StaticLoad != 150.0 {
		t.Error("clone shares static load pointer")
	}
	if clone.Analysis.GroundMotion.File != "m.txt" {
		t.Error("clone shares ground motion pointer")
	}
	if clone.Fragility["pier_drift"]["slight"].Median != 0.005 {
		t.Error("clone shares fragility map")
	}
}
