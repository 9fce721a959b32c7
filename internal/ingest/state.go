package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the ingest watermark, persisted between runs so incremental
// fetches only pull records changed since the previous run.
type State struct {
	LastInstitutionUpdate string `json:"last_institution_update"`
	LastFinancialUpdate   string `json:"last_financial_update"`
	LastRun               string `json:"last_run"`
}

// LoadState reads the watermark file. A missing file yields the zero
// state, which triggers a full first run.
func LoadState(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read ingest state: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode ingest state: %w", err)
	}
	return st, nil
}

// SaveState writes the watermark atomically via rename.
func SaveState(path string, st State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ingest state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write ingest state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace ingest state: %w", err)
	}
	return nil
}
