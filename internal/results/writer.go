package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quakelab/bridgeval/internal/orchestrator"
)

// Writer persists evaluation summaries as documents on disk. The file
// extension selects the encoding: .msgpack for MessagePack, anything
// else for indented JSON.
type Writer struct{}

// NewWriter creates a result document writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write converts the summary to a document and writes it to path,
// creating parent directories as needed.
func (w *Writer) Write(summary *orchestrator.Summary, path string) error {
	doc := Document(summary)

	var encoded []byte
	var err error
	if filepath.Ext(path) == ".msgpack" {
		encoded, err = msgpack.Marshal(doc)
	} else {
		encoded, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode results document: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
