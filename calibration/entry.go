// Package calibration collects hand-measured calibration and test values
// from the terminal. The operator opens each photo in an image viewer,
// measures the object in pixels and types the values in.
package calibration

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"camsize/config"
)

// Entry prompts for measurements on out and reads answers from in.
type Entry struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewEntry creates an interactive measurement entry.
func NewEntry(in io.Reader, out io.Writer) *Entry {
	return &Entry{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Measurements walks through the calibration reference and every test
// case of defaults, asking for each value. An empty answer keeps the
// default. The returned measurements are validated.
func (e *Entry) Measurements(defaults *config.Measurements) (*config.Measurements, error) {
	m := *defaults
	m.Tests = append([]config.TestCase(nil), defaults.Tests...)

	fmt.Fprintf(e.out, "📏 CALIBRATION MEASUREMENTS\n")
	fmt.Fprintf(e.out, "==========================\n")
	fmt.Fprintf(e.out, "1. Open the calibration photo: %s\n", m.Calibration.Image)
	fmt.Fprintf(e.out, "2. Measure the reference object's top-left corner and size in pixels\n")
	fmt.Fprintf(e.out, "3. Press ENTER to keep the value in brackets\n\n")

	c := &m.Calibration
	fields := []struct {
		label string
		dst   *float64
		unit  string
	}{
		{"Pixel width", &c.PixelWidth, "px"},
		{"Pixel height", &c.PixelHeight, "px"},
		{"Anchor X", &c.AnchorX, "px"},
		{"Anchor Y", &c.AnchorY, "px"},
		{"Real width", &c.RealWidth, m.Unit},
		{"Real height", &c.RealHeight, m.Unit},
		{"Camera distance", &c.Distance, m.Unit},
	}
	for _, f := range fields {
		if err := e.askFloat(f.label, f.unit, f.dst); err != nil {
			return nil, err
		}
	}

	for i := range m.Tests {
		tc := &m.Tests[i]
		fmt.Fprintf(e.out, "\n🎯 [%d/%d] TEST IMAGE %s (%s)\n", i+1, len(m.Tests), tc.Name, tc.Image)
		fmt.Fprintf(e.out, "─────────────────────────────\n")
		fields := []struct {
			label string
			dst   *float64
			unit  string
		}{
			{"Pixel width", &tc.PixelWidth, "px"},
			{"Pixel height", &tc.PixelHeight, "px"},
			{"Anchor X", &tc.AnchorX, "px"},
			{"Anchor Y", &tc.AnchorY, "px"},
			{"Camera distance", &tc.Distance, m.Unit},
			{"Real width", &tc.RealWidth, m.Unit},
			{"Real height", &tc.RealHeight, m.Unit},
		}
		for _, f := range fields {
			if err := e.askFloat(f.label, f.unit, f.dst); err != nil {
				return nil, err
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// askFloat repeats the question until it gets a finite non-negative number or an
// empty answer. Input ending early is an error.
func (e *Entry) askFloat(label, unit string, dst *float64) error {
	for {
		fmt.Fprintf(e.out, "%s (%s) [%s]: ", label, unit, strconv.FormatFloat(*dst, 'f', -1, 64))
		if !e.scanner.Scan() {
			if err := e.scanner.Err(); err != nil {
				return fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
			}
			return fmt.Errorf("input ended before %s was entered", strings.ToLower(label))
		}

		input := strings.TrimSpace(e.scanner.Text())
		if input == "" {
			return nil
		}

		v, err := strconv.ParseFloat(input, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			fmt.Fprintf(e.out, "❌ Please enter a valid non-negative number\n")
			continue
		}
		*dst = v
		return nil
	}
}

// AskYesNo asks a yes/no question.
func (e *Entry) AskYesNo(question string) bool {
	fmt.Fprintf(e.out, "%s (y/n): ", question)
	if !e.scanner.Scan() {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(e.scanner.Text()))
	return response == "y" || response == "yes"
}
