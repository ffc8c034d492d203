package overlay

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"camsize/camera"
	"camsize/session"
)

func writeImage(t *testing.T, dir, name string, rows, cols int) string {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), rows, cols, gocv.MatTypeCV8UC3)
	defer mat.Close()
	path := filepath.Join(dir, name)
	require.True(t, gocv.IMWrite(path, mat))
	return path
}

func evaluation(name, path string, shape camera.Shape) session.Evaluation {
	return session.Evaluation{
		Name:       name,
		Kind:       session.KindTest,
		Image:      path,
		Shape:      shape,
		ROI:        camera.ROI(shape, 40, 30, 100, 80),
		Calculated: camera.Size{Width: 5.1, Height: 4.2},
		Real:       camera.Size{Width: 5, Height: 4},
	}
}

func TestAbsoluteRect(t *testing.T) {
	e := evaluation("x", "x.jpg", camera.Shape{Height: 480, Width: 640})
	assert.Equal(t, image.Rect(40, 30, 140, 110), AbsoluteRect(e))
}

func TestSideBySide(t *testing.T) {
	a := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer a.Close()
	b := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC3)
	defer b.Close()

	r := NewRenderer(t.TempDir())
	r.SetPanelHeight(100)

	panel, err := r.SideBySide([]gocv.Mat{a, b}, []string{"a", "b"})
	require.NoError(t, err)
	defer panel.Close()

	assert.Equal(t, 100, panel.Rows())
	assert.Equal(t, 300, panel.Cols())
}

func TestSideBySideErrors(t *testing.T) {
	r := NewRenderer(t.TempDir())

	_, err := r.SideBySide(nil, nil)
	assert.Error(t, err)

	m := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer m.Close()
	_, err = r.SideBySide([]gocv.Mat{m}, nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	shape := camera.Shape{Height: 240, Width: 320, Channels: 3}
	calib := writeImage(t, dir, "calib.png", 240, 320)
	test := writeImage(t, dir, "test.png", 240, 320)
	profile := writeImage(t, dir, "profile.png", 120, 120)

	res := &session.Results{
		Unit: "cm",
		Evaluations: []session.Evaluation{
			evaluation(session.KindCalibration, calib, shape),
			evaluation("test", test, shape),
		},
	}

	out := filepath.Join(dir, "overlay")
	paths, err := NewRenderer(out).Render(res, []string{profile})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(out, "panel.jpg"), paths[2])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	panel := gocv.IMRead(paths[2], gocv.IMReadColor)
	defer panel.Close()
	assert.Equal(t, DefaultPanelHeight, panel.Rows())
}

func TestRenderMissingImage(t *testing.T) {
	res := &session.Results{Unit: "cm", Evaluations: []session.Evaluation{
		evaluation("gone", filepath.Join(t.TempDir(), "gone.jpg"), camera.Shape{Height: 10, Width: 10}),
	}}

	_, err := NewRenderer(t.TempDir()).Render(res, nil)
	assert.Error(t, err)
}
