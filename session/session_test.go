package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camsize/camera"
	"camsize/config"
)

var errMissing = errors.New("missing image")

type fakeLoader struct {
	mu     sync.Mutex
	shapes map[string]camera.Shape
	calls  []string
}

func (f *fakeLoader) Shape(path string) (camera.Shape, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	shape, ok := f.shapes[path]
	if !ok {
		return camera.Shape{}, fmt.Errorf("%w: %s", errMissing, path)
	}
	return shape, nil
}

func defaultLoader() *fakeLoader {
	shape := camera.Shape{Height: 1280, Width: 960, Channels: 3}
	return &fakeLoader{shapes: map[string]camera.Shape{
		"_images/_CalibratePic.jpg": shape,
		"_images/_TestPic.jpg":      shape,
	}}
}

func TestRunDefaults(t *testing.T) {
	s := New(config.Default(), defaultLoader())

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "cm", res.Unit)
	assert.InDelta(t, 1024.0, res.Intrinsics.Fx, 1e-9)
	require.Len(t, res.Evaluations, 2)

	calib := res.Evaluations[0]
	assert.Equal(t, KindCalibration, calib.Kind)
	assert.Zero(t, calib.Report.WidthError)
	assert.Zero(t, calib.Report.HeightError)
	assert.Zero(t, calib.Report.AreaError)

	test, ok := res.Test("test")
	require.True(t, ok)
	assert.Equal(t, KindTest, test.Kind)
	assert.Equal(t, camera.Rect{X: -157, Y: -101, W: 172, H: 280}, test.ROI)
	assert.Equal(t, 0.21484, test.Report.WidthError)
	assert.Equal(t, -0.58592, test.Report.HeightError)
	assert.Equal(t, -1.32106, test.Report.AreaError)
}

func TestRunPreservesOrder(t *testing.T) {
	cfg := config.Default()
	loader := defaultLoader()
	cfg.Tests = nil
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("img%d.jpg", i)
		loader.shapes[path] = camera.Shape{Height: 600, Width: 800}
		cfg.Tests = append(cfg.Tests, config.TestCase{
			Name: fmt.Sprintf("case-%d", i), Image: path,
			PixelWidth: float64(100 + i), PixelHeight: 100, AnchorX: 10, AnchorY: 10,
			Distance: 40, RealWidth: 4, RealHeight: 4,
		})
	}

	res, err := New(cfg, loader).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Evaluations, 9)
	for i, e := range res.Evaluations[1:] {
		assert.Equal(t, fmt.Sprintf("case-%d", i), e.Name)
	}
}

func TestRunImageLoadFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Tests[0].Image = "missing.jpg"

	res, err := New(cfg, defaultLoader()).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res, "no partial results on failure")
	assert.True(t, errors.Is(err, errMissing))
}

func TestRunInvalidCalibration(t *testing.T) {
	cfg := config.Default()
	cfg.Calibration.Distance = 0
	loader := defaultLoader()

	_, err := New(cfg, loader).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, camera.ErrInvalidParameter))
	assert.Empty(t, loader.calls, "no image is loaded when calibration fails")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Default(), defaultLoader()).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEvaluateBeforeCalibrate(t *testing.T) {
	s := New(config.Default(), defaultLoader())

	_, err := s.evaluate(context.Background(), target{
		name: "early", image: "_images/_TestPic.jpg", w: 10, h: 10, distance: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, camera.ErrSingularMatrix))
}

func TestResultsPrint(t *testing.T) {
	res, err := New(config.Default(), defaultLoader()).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	res.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "fx=1024.00 fy=1014.29")
	assert.Contains(t, out, "CALIBRATION IMAGE (_images/_CalibratePic.jpg)")
	assert.Contains(t, out, "TEST IMAGE test (_images/_TestPic.jpg)")
	assert.Contains(t, out, "Calculated width: 6.21484 cm, real width: 6 cm, error: 0.21484")
}

func TestWriteResults(t *testing.T) {
	res, err := New(config.Default(), defaultLoader()).Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, WriteResults(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Results
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.RunID, decoded.RunID)
	assert.Len(t, decoded.Evaluations, 2)
	assert.Equal(t, res.Evaluations[1].Report, decoded.Evaluations[1].Report)
}
