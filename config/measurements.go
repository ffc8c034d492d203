package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"camsize/camera"
)

// DefaultConfigPath is the path to the bundled measurement defaults.
const DefaultConfigPath = "config/measurements.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// CalibrationName is the evaluation name of the calibration self-check.
// Test cases may not use it.
const CalibrationName = "calibration"

// Calibration describes the reference object photographed at a known distance.
type Calibration struct {
	Image       string  `json:"image"`
	PixelWidth  float64 `json:"pixel_width"`  // px
	PixelHeight float64 `json:"pixel_height"` // px
	AnchorX     float64 `json:"anchor_x"`     // px, top-left corner
	AnchorY     float64 `json:"anchor_y"`     // px, top-left corner
	RealWidth   float64 `json:"real_width"`   // length unit
	RealHeight  float64 `json:"real_height"`  // length unit
	Distance    float64 `json:"distance"`     // length unit, camera to object
}

// TestCase is a photo of an object whose size is recovered and compared
// against its measured ground truth.
type TestCase struct {
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	PixelWidth  float64 `json:"pixel_width"`  // px
	PixelHeight float64 `json:"pixel_height"` // px
	AnchorX     float64 `json:"anchor_x"`     // px, top-left corner
	AnchorY     float64 `json:"anchor_y"`     // px, top-left corner
	Distance    float64 `json:"distance"`     // length unit, camera to object
	RealWidth   float64 `json:"real_width"`   // length unit, ground truth
	RealHeight  float64 `json:"real_height"`  // length unit, ground truth
}

// Measurements is the full per-run input: one calibration reference and
// any number of test images. Every length shares Unit.
type Measurements struct {
	Unit        string      `json:"unit"`
	Calibration Calibration `json:"calibration"`
	Tests       []TestCase  `json:"tests"`
	// ProfileImages are shown alongside the others but never measured.
	ProfileImages []string `json:"profile_images,omitempty"`
}

// Default returns the measurements taken for the bundled sample photos.
func Default() *Measurements {
	return &Measurements{
		Unit: "cm",
		Calibration: Calibration{
			Image:       "_images/_CalibratePic.jpg",
			PixelWidth:  192,
			PixelHeight: 284,
			AnchorX:     332,
			AnchorY:     544,
			RealWidth:   7.5,
			RealHeight:  11.2,
			Distance:    40,
		},
		Tests: []TestCase{
			{
				Name:        "test",
				Image:       "_images/_TestPic.jpg",
				PixelWidth:  172,
				PixelHeight: 280,
				AnchorX:     323,
				AnchorY:     539,
				Distance:    37,
				RealWidth:   6,
				RealHeight:  10.8,
			},
		},
		ProfileImages: []string{"_images/_ProfilePic.jpg"},
	}
}

// Load reads measurements from a JSON file. Fields omitted from the file
// keep their Default values; a "tests" array replaces the default tests.
func Load(path string) (*Measurements, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// json decodes array elements onto existing ones, so tests start empty
	// and only fall back to the defaults when the file has no tests key.
	m := Default()
	m.Tests = nil
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if m.Tests == nil {
		m.Tests = Default().Tests
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return m, nil
}

// Validate checks that every measurement is usable. Non-positive sizes and
// distances are reported as camera.ErrInvalidParameter.
func (m *Measurements) Validate() error {
	if m.Unit == "" {
		return fmt.Errorf("unit must be set")
	}

	c := m.Calibration
	if c.Image == "" {
		return fmt.Errorf("calibration.image must be set")
	}
	if err := positive("calibration", map[string]float64{
		"pixel_width":  c.PixelWidth,
		"pixel_height": c.PixelHeight,
		"real_width":   c.RealWidth,
		"real_height":  c.RealHeight,
		"distance":     c.Distance,
	}); err != nil {
		return err
	}
	if !validAnchor(c.AnchorX, c.AnchorY) {
		return fmt.Errorf("calibration anchor must be non-negative, got (%v, %v)", c.AnchorX, c.AnchorY)
	}

	seen := make(map[string]bool, len(m.Tests))
	for i, tc := range m.Tests {
		if tc.Name == "" {
			return fmt.Errorf("tests[%d].name must be set", i)
		}
		if tc.Name == CalibrationName {
			return fmt.Errorf("tests[%d].name %q is reserved for the calibration image", i, tc.Name)
		}
		if seen[tc.Name] {
			return fmt.Errorf("duplicate test name %q", tc.Name)
		}
		seen[tc.Name] = true

		if tc.Image == "" {
			return fmt.Errorf("tests[%d] (%s): image must be set", i, tc.Name)
		}
		if err := positive(fmt.Sprintf("tests[%d] (%s)", i, tc.Name), map[string]float64{
			"pixel_width":  tc.PixelWidth,
			"pixel_height": tc.PixelHeight,
			"real_width":   tc.RealWidth,
			"real_height":  tc.RealHeight,
			"distance":     tc.Distance,
		}); err != nil {
			return err
		}
		if !validAnchor(tc.AnchorX, tc.AnchorY) {
			return fmt.Errorf("tests[%d] (%s): anchor must be non-negative, got (%v, %v)", i, tc.Name, tc.AnchorX, tc.AnchorY)
		}
	}
	return nil
}

func validAnchor(x, y float64) bool {
	return finite(x) && finite(y) && x >= 0 && y >= 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(scope string, fields map[string]float64) error {
	// fixed order so the first reported field is stable
	for _, name := range []string{"pixel_width", "pixel_height", "real_width", "real_height", "distance"} {
		v, ok := fields[name]
		if !ok {
			continue
		}
		if !finite(v) || v <= 0 {
			return fmt.Errorf("%s: %s must be positive, got %v: %w", scope, name, v, camera.ErrInvalidParameter)
		}
	}
	return nil
}

// Reference converts the calibration measurements for camera.Calibrate.
func (c Calibration) Reference() camera.Reference {
	return camera.Reference{
		PixelWidth:  c.PixelWidth,
		PixelHeight: c.PixelHeight,
		RealWidth:   c.RealWidth,
		RealHeight:  c.RealHeight,
		Distance:    c.Distance,
	}
}
