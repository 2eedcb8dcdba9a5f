// Package report emits provisioning results as JSON for consumption by
// scripts and CI pipelines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// Fields is one run's reportable details. encoding/json sorts map keys, so
// output order is stable.
type Fields map[string]string

// Write renders f as 4-space-indented JSON followed by a newline.
func Write(w io.Writer, f Fields) error {
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteAll renders several named reports as one JSON object, keyed by
// recipe name.
func WriteAll(w io.Writer, all map[string]Fields) error {
	data, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
