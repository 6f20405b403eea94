package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bridge_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	span REAL NOT NULL,
	height REAL NOT NULL,
	material_e REAL,
	material_fc REAL,
	pier_width REAL,
	deck_area REAL,
	deck_inertia REAL,
	static_load REAL,
	gm_file TEXT,
	gm_dt REAL,
	gm_duration REAL,
	num_modes INTEGER,
	save_results INTEGER NOT NULL DEFAULT 0,
	result_file TEXT,
	serve_addr TEXT
);

CREATE TABLE IF NOT EXISTS fragility_curves (
	component TEXT NOT NULL,
	state TEXT NOT NULL,
	median REAL NOT NULL,
	beta REAL NOT NULL,
	PRIMARY KEY (component, state)
);
`

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Initialize creates the configuration schema if it does not exist yet
func (s *SQLiteProvider) Initialize() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*Data, error) {
	query := `
		SELECT span, height, material_e, material_fc, pier_width, deck_area,
		       deck_inertia, static_load, gm_file, gm_dt, gm_duration,
		       num_modes, save_results, result_file, serve_addr
		FROM bridge_config
		WHERE id = 1
	`

	var config Data
	var materialE, materialFc, pierWidth, deckArea, deckInertia sql.NullFloat64
	var staticLoad, gmDt, gmDuration sql.NullFloat64
	var gmFile, resultFile, serveAddr sql.NullString
	var numModes sql.NullInt64
	var saveResults bool

	err := s.db.QueryRow(query).Scan(
		&config.Span, &config.Height, &materialE, &materialFc, &pierWidth,
		&deckArea, &deckInertia, &staticLoad, &gmFile, &gmDt, &gmDuration,
		&numModes, &saveResults, &resultFile, &serveAddr,
	)
	if err == sql.ErrNoRows {
		return nil, &ConfigError{Field: "bridge_config", Reason: "no configuration row found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bridge_config: %w", err)
	}

	config.Material = MaterialData{
		E:           materialE.Float64,
		Fc:          materialFc.Float64,
		PierWidth:   pierWidth.Float64,
		DeckArea:    deckArea.Float64,
		DeckInertia: deckInertia.Float64,
	}
	if staticLoad.Valid {
		v := staticLoad.Float64
		config.Analysis.StaticLoad = &v
	}
	if gmFile.Valid && gmFile.String != "" {
		gm := &GroundMotionData{File: gmFile.String, Dt: gmDt.Float64}
		if gmDuration.Valid {
			dur := gmDuration.Float64
			gm.Duration = &dur
		}
		config.Analysis.GroundMotion = gm
	}
	if numModes.Valid {
		config.NumModes = int(numModes.Int64)
	}
	config.Output = OutputData{
		SaveResults: saveResults,
		ResultFile:  resultFile.String,
		ServeAddr:   serveAddr.String,
	}

	curves, err := s.loadFragilityCurves()
	if err != nil {
		return nil, err
	}
	config.Fragility = curves

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (s *SQLiteProvider) loadFragilityCurves() (map[string]map[string]CurveData, error) {
	rows, err := s.db.Query(`SELECT component, state, median, beta FROM fragility_curves ORDER BY component, state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fragility_curves: %w", err)
	}
	defer rows.Close()

	var curves map[string]map[string]CurveData
	for rows.Next() {
		var component, state string
		var median, beta float64
		if err := rows.Scan(&component, &state, &median, &beta); err != nil {
			return nil, fmt.Errorf("failed to scan fragility curve row: %w", err)
		}
		if curves == nil {
			curves = make(map[string]map[string]CurveData)
		}
		if curves[component] == nil {
			curves[component] = make(map[string]CurveData)
		}
		curves[component][state] = CurveData{Median: median, Beta: beta}
	}
	return curves, rows.Err()
}

// StoreConfig writes a complete configuration into the database,
// replacing any existing configuration. Used by the config-convert tool.
func (s *SQLiteProvider) StoreConfig(config *Data) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := s.Initialize(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bridge_config`); err != nil {
		return fmt.Errorf("failed to clear bridge_config: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM fragility_curves`); err != nil {
		return fmt.Errorf("failed to clear fragility_curves: %w", err)
	}

	var gmFile interface{}
	var gmDt, gmDuration interface{}
	if gm := config.Analysis.GroundMotion; gm != nil {
		gmFile = gm.File
		gmDt = gm.Dt
		if gm.Duration != nil {
			gmDuration = *gm.Duration
		}
	}
	var staticLoad interface{}
	if config.Analysis.StaticLoad != nil {
		staticLoad = *config.Analysis.StaticLoad
	}

	_, err = tx.Exec(`
		INSERT INTO bridge_config (
			id, span, height, material_e, material_fc, pier_width, deck_area,
			deck_inertia, static_load, gm_file, gm_dt, gm_duration, num_modes,
			save_results, result_file, serve_addr
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		config.Span, config.Height, config.Material.E, config.Material.Fc,
		config.Material.PierWidth, config.Material.DeckArea,
		config.Material.DeckInertia, staticLoad, gmFile, gmDt, gmDuration,
		config.NumModes, config.Output.SaveResults, config.Output.ResultFile,
		config.Output.ServeAddr,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bridge_config: %w", err)
	}

	for component, states := range config.Fragility {
		for state, curve := range states {
			_, err = tx.Exec(
				`INSERT INTO fragility_curves (component, state, median, beta) VALUES (?, ?, ?, ?)`,
				component, state, curve.Median, curve.Beta,
			)
			if err != nil {
				return fmt.Errorf("failed to insert fragility curve %s/%s: %w", component, state, err)
			}
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite databases support writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
