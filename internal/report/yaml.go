package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/exrun/internal/executor"
	"gopkg.in/yaml.v3"
)

// WriteYAML encodes the run summary as YAML.
func WriteYAML(w io.Writer, s *executor.Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewRunRecord(s)); err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	return enc.Close()
}

// WriteYAMLFile writes the run report to path, creating its directory.
func WriteYAMLFile(path string, s *executor.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating run report: %w", err)
	}
	if err := WriteYAML(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
