package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ExportFileName is the name every export is delivered under.
const ExportFileName = "config.json"

// ErrParse wraps every import decoding failure.
var ErrParse = errors.New("invalid config document")

// FileSink receives an exported document.
type FileSink interface {
	Deliver(name string, data []byte) error
}

// DirSink writes delivered documents into Dir.
type DirSink struct {
	Dir string
}

// Deliver writes data to Dir/name and returns any write error.
func (s DirSink) Deliver(name string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// exportedConfig is the file form of a SnifferConfig. Unset fields are
// left out rather than written as zero values.
type exportedConfig struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Port          int    `json:"port,omitempty"`
	DownstreamURL string `json:"downstreamUrl,omitempty"`
}

// Export projects rows to their configs and encodes them as an
// indented JSON array. Transient row state is dropped.
func Export(rows []Row) ([]byte, error) {
	configs := make([]exportedConfig, 0, len(rows))
	for _, row := range rows {
		configs = append(configs, exportedConfig(row.Config))
	}
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode configs: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseImport decodes raw as a JSON array of sniffer configs.
// Nothing is returned unless the whole document decodes.
func ParseImport(raw []byte) ([]SnifferConfig, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrParse)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	configs := make([]SnifferConfig, 0, len(entries))
	for i, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrParse, i)
		}
		var cfg SnifferConfig
		if err := json.Unmarshal(entry, &cfg); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrParse, i, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// DraftsFromConfigs turns imported configs into draft rows.
// Imported rows are never considered started, whatever the file says.
func DraftsFromConfigs(configs []SnifferConfig) []Row {
	rows := make([]Row, 0, len(configs))
	for _, cfg := range configs {
		rows = append(rows, Row{
			Key:         NewDraftKey(),
			Config:      cfg,
			IsNew:       true,
			IsStarted:   false,
			IsEditing:   false,
			IsCollapsed: false,
		})
	}
	return rows
}
