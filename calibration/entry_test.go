package calibration

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camsize/camera"
	"camsize/config"
)

func TestMeasurementsKeepDefaults(t *testing.T) {
	in := strings.Repeat("\n", 14)
	var out bytes.Buffer

	m, err := NewEntry(strings.NewReader(in), &out).Measurements(config.Default())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), m)
	assert.Contains(t, out.String(), "Pixel width (px) [192]: ")
}

func TestMeasurementsOverride(t *testing.T) {
	// calibration: width, height, anchor x, anchor y, real w, real h, distance
	// test: width, height, anchor x, anchor y, distance, real w, real h
	in := "200\n\n\n\n8\n\n45\n" + "abc\n-3\n180\n\n\n\n\n\n11\n"
	var out bytes.Buffer

	defaults := config.Default()
	m, err := NewEntry(strings.NewReader(in), &out).Measurements(defaults)
	require.NoError(t, err)

	assert.Equal(t, 200.0, m.Calibration.PixelWidth)
	assert.Equal(t, 284.0, m.Calibration.PixelHeight)
	assert.Equal(t, 8.0, m.Calibration.RealWidth)
	assert.Equal(t, 45.0, m.Calibration.Distance)
	assert.Equal(t, 180.0, m.Tests[0].PixelWidth)
	assert.Equal(t, 11.0, m.Tests[0].RealHeight)
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a valid non-negative number"))

	assert.Equal(t, 172.0, defaults.Tests[0].PixelWidth, "defaults must not be modified")
}

func TestMeasurementsRejectsNonFinite(t *testing.T) {
	in := "NaN\nInf\n-Inf\n" + strings.Repeat("\n", 14)
	var out bytes.Buffer

	m, err := NewEntry(strings.NewReader(in), &out).Measurements(config.Default())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), m)
	assert.Equal(t, 3, strings.Count(out.String(), "Please enter a valid non-negative number"))
}

func TestMeasurementsInvalid(t *testing.T) {
	in := "0\n" + strings.Repeat("\n", 13)

	_, err := NewEntry(strings.NewReader(in), &bytes.Buffer{}).Measurements(config.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, camera.ErrInvalidParameter))
}

func TestMeasurementsInputEnds(t *testing.T) {
	_, err := NewEntry(strings.NewReader("192\n"), &bytes.Buffer{}).Measurements(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input ended before pixel height")
}

func TestAskYesNo(t *testing.T) {
	e := NewEntry(strings.NewReader("y\nNo\nYES\n"), &bytes.Buffer{})
	assert.True(t, e.AskYesNo("ready?"))
	assert.False(t, e.AskYesNo("ready?"))
	assert.True(t, e.AskYesNo("ready?"))
	assert.False(t, e.AskYesNo("ready?"))
}
