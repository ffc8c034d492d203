package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Print writes the intrinsics and one report block per evaluation.
func (r *Results) Print(w io.Writer) {
	fmt.Fprintf(w, "📷 Intrinsics: fx=%.2f fy=%.2f cx=%.2f cy=%.2f\n",
		r.Intrinsics.Fx, r.Intrinsics.Fy, r.Intrinsics.Cx, r.Intrinsics.Cy)

	for _, e := range r.Evaluations {
		switch e.Kind {
		case KindCalibration:
			fmt.Fprintf(w, "\n📏 CALIBRATION IMAGE (%s)\n", e.Image)
		default:
			fmt.Fprintf(w, "\n🎯 TEST IMAGE %s (%s)\n", e.Name, e.Image)
		}
		for _, line := range e.Report.Lines() {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}

// Test returns the evaluation with the given name.
func (r *Results) Test(name string) (Evaluation, bool) {
	for _, e := range r.Evaluations {
		if e.Name == name {
			return e, true
		}
	}
	return Evaluation{}, false
}

// WriteResults saves r as indented JSON, creating parent directories.
// The file is a run summary and is never read back as a calibration.
func WriteResults(path string, r *Results) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	jsonData, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	debugMsg("RESULTS", fmt.Sprintf("saved %d evaluations to %s", len(r.Evaluations), path))
	return nil
}
