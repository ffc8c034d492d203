package camera

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const reportPrecision = 5

// Report compares a recovered size against the measured ground truth.
// All values are rounded to five decimals and errors are calculated - real.
type Report struct {
	Unit             string  `json:"unit"`
	CalculatedWidth  float64 `json:"calculated_width"`
	RealWidth        float64 `json:"real_width"`
	WidthError       float64 `json:"width_error"`
	CalculatedHeight float64 `json:"calculated_height"`
	RealHeight       float64 `json:"real_height"`
	HeightError      float64 `json:"height_error"`
	CalculatedArea   float64 `json:"calculated_area"`
	RealArea         float64 `json:"real_area"`
	AreaError        float64 `json:"area_error"`
}

// NewReport builds a Report for calculated vs. measured sizes in unit.
func NewReport(calculated, measured Size, unit string) Report {
	return Report{
		Unit:             unit,
		CalculatedWidth:  round(calculated.Width),
		RealWidth:        round(measured.Width),
		WidthError:       round(calculated.Width - measured.Width),
		CalculatedHeight: round(calculated.Height),
		RealHeight:       round(measured.Height),
		HeightError:      round(calculated.Height - measured.Height),
		CalculatedArea:   round(calculated.Area()),
		RealArea:         round(measured.Area()),
		AreaError:        round(calculated.Area() - measured.Area()),
	}
}

// Lines returns the width, height and area lines.
func (r Report) Lines() []string {
	areaUnit := r.Unit + "²"
	return []string{
		fmt.Sprintf("Calculated width: %s %s, real width: %s %s, error: %s",
			num(r.CalculatedWidth), r.Unit, num(r.RealWidth), r.Unit, num(r.WidthError)),
		fmt.Sprintf("Calculated height: %s %s, real height: %s %s, error: %s",
			num(r.CalculatedHeight), r.Unit, num(r.RealHeight), r.Unit, num(r.HeightError)),
		fmt.Sprintf("Calculated area: %s %s, real area: %s %s, error: %s %s",
			num(r.CalculatedArea), areaUnit, num(r.RealArea), areaUnit, num(r.AreaError), areaUnit),
	}
}

func (r Report) String() string {
	return strings.Join(r.Lines(), "\n")
}

func round(v float64) float64 {
	p := math.Pow(10, reportPrecision)
	r := math.Round(v*p) / p
	if r == 0 {
		// drop negative zero
		return 0
	}
	return r
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
