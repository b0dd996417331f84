// Package export writes the latest snapshot to a timestamped file.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// Format is the serialization used for the artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const filePrefix = "axon_system_log_"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json|yaml)", s)
	}
}

// Marshal serializes a snapshot. Output is identical for identical input.
func Marshal(s model.Snapshot, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// FileName is axon_system_log_<unix millis>.<ext>.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("%s%d.%s", filePrefix, now.UnixMilli(), f)
}

// Exporter saves snapshots into Dir. An empty Dir means the host offers
// nowhere to save, and Export does nothing.
type Exporter struct {
	Dir    string
	Format Format
}

// Export writes the artifact atomically and returns its path.
func (e Exporter) Export(s model.Snapshot, now time.Time) (string, error) {
	if strings.TrimSpace(e.Dir) == "" {
		return "", nil
	}
	format := e.Format
	if format == "" {
		format = FormatJSON
	}

	data, err := Marshal(s, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(e.Dir, FileName(format, now))

	tmpFile, err := os.CreateTemp(e.Dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp export file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return "", fmt.Errorf("write temp export file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return "", fmt.Errorf("chmod temp export file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename export file: %w", err)
	}
	tmpPath = ""

	return path, nil
}
