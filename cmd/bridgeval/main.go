package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quakelab/bridgeval/internal/engine"
	"github.com/quakelab/bridgeval/internal/log"
	"github.com/quakelab/bridgeval/internal/orchestrator"
	"github.com/quakelab/bridgeval/internal/report"
	"github.com/quakelab/bridgeval/internal/results"
	"github.com/quakelab/bridgeval/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml, bridge.yaml\n\t\t\t  SQLite: config.db, bridge.db\n\t\t\t  Use 'config-convert' tool to convert YAML to SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	phases := flag.String("phases", "", "Comma-separated analysis phases to run (static,modal,time_history); default is derived from the configuration")
	archiveFile := flag.String("archive", "", "Optional SQLite run archive; the finished run is appended to it")
	serveAddr := flag.String("serve", "", "Optional listen address (e.g. :8090) to serve the finished run over HTTP")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bridgeval %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	evaluator, err := orchestrator.New(cfgData, engine.NewSimulated(), results.NewWriter())
	if err != nil {
		log.Errorf("Failed to create evaluator: %v", err)
		os.Exit(1)
	}

	summary, err := evaluator.Run(splitPhases(*phases))
	if err != nil {
		log.Errorf("Evaluation failed: %v", err)
		os.Exit(1)
	}

	reportText := report.Render(summary)
	fmt.Println(reportText)

	if *archiveFile != "" {
		if err := archiveRun(*archiveFile, summary); err != nil {
			log.Errorf("Failed to archive run: %v", err)
		}
	}

	serve := *serveAddr
	if serve == "" {
		serve = cfgData.Output.ServeAddr
	}
	if serve != "" {
		server := results.NewServer(summary, reportText)
		if err := server.ListenAndServe(serve); err != nil {
			log.Errorf("Results viewer error: %v", err)
			os.Exit(1)
		}
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.Data, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.Provider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func splitPhases(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	phases := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			phases = append(phases, trimmed)
		}
	}
	return phases
}

func archiveRun(path string, summary *orchestrator.Summary) error {
	archive, err := results.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()
	return archive.SaveRun(summary)
}
