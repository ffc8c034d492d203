package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"camsize/camera"
	"camsize/config"
)

// Evaluation kinds.
const (
	KindCalibration = "calibration"
	KindTest        = "test"
)

// debugMsgFunc is set by main to route messages through its logger
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide the debug logger
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// ShapeLoader supplies the pixel dimensions of the image at path.
type ShapeLoader interface {
	Shape(path string) (camera.Shape, error)
}

// Evaluation is the size recovered for one image.
type Evaluation struct {
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	Image      string        `json:"image"`
	Shape      camera.Shape  `json:"shape"`
	ROI        camera.Rect   `json:"roi"`
	Distance   float64       `json:"distance"`
	Calculated camera.Size   `json:"calculated"`
	Real       camera.Size   `json:"real"`
	Report     camera.Report `json:"report"`
}

// Results is everything a run produced.
type Results struct {
	RunID       string            `json:"run_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Unit        string            `json:"unit"`
	Intrinsics  camera.Intrinsics `json:"intrinsics"`
	Evaluations []Evaluation      `json:"evaluations"`
}

// Session calibrates one camera and evaluates images against it.
type Session struct {
	cfg    *config.Measurements
	loader ShapeLoader
	cam    *camera.Camera
}

// New creates a session for the given measurements.
func New(cfg *config.Measurements, loader ShapeLoader) *Session {
	return &Session{
		cfg:    cfg,
		loader: loader,
		cam:    camera.New(),
	}
}

// Camera returns the session's camera model.
func (s *Session) Camera() *camera.Camera {
	return s.cam
}

// Run calibrates the camera, re-measures the calibration object as a
// self-check and evaluates every test case. Test cases run concurrently
// against the calibrated camera, which is not modified afterwards.
// Any failure discards all results.
func (s *Session) Run(ctx context.Context) (*Results, error) {
	calib := s.cfg.Calibration
	if err := s.cam.Calibrate(calib.Reference()); err != nil {
		return nil, fmt.Errorf("calibration failed: %w", err)
	}
	intr := s.cam.Intrinsics()
	debugMsg("CALIBRATION", fmt.Sprintf("fx=%.2f fy=%.2f from %.0fx%.0f px at %.2f %s",
		intr.Fx, intr.Fy, calib.PixelWidth, calib.PixelHeight, calib.Distance, s.cfg.Unit))

	self, err := s.evaluate(ctx, target{
		name: config.CalibrationName, kind: KindCalibration, image: calib.Image,
		anchorX: calib.AnchorX, anchorY: calib.AnchorY, w: calib.PixelWidth, h: calib.PixelHeight,
		distance: calib.Distance, measured: camera.Size{Width: calib.RealWidth, Height: calib.RealHeight},
	})
	if err != nil {
		return nil, err
	}

	evals := make([]Evaluation, len(s.cfg.Tests))
	errs := make([]error, len(s.cfg.Tests))
	var wg sync.WaitGroup
	for i, tc := range s.cfg.Tests {
		wg.Add(1)
		go func(i int, tc config.TestCase) {
			defer wg.Done()
			evals[i], errs[i] = s.evaluate(ctx, target{
				name: tc.Name, kind: KindTest, image: tc.Image,
				anchorX: tc.AnchorX, anchorY: tc.AnchorY, w: tc.PixelWidth, h: tc.PixelHeight,
				distance: tc.Distance, measured: camera.Size{Width: tc.RealWidth, Height: tc.RealHeight},
			})
		}(i, tc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &Results{
		RunID:       uuid.NewString(),
		Timestamp:   time.Now(),
		Unit:        s.cfg.Unit,
		Intrinsics:  intr,
		Evaluations: append([]Evaluation{self}, evals...),
	}, nil
}

// target is one image to measure: an ROI anchor and size in pixels plus
// the distance and ground truth in the length unit.
type target struct {
	name, kind, image string
	anchorX, anchorY  float64
	w, h              float64
	distance          float64
	measured          camera.Size
}

func (s *Session) evaluate(ctx context.Context, t target) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, fmt.Errorf("%s: %w", t.name, err)
	}

	shape, err := s.loader.Shape(t.image)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: %w", t.name, err)
	}

	rect := camera.ROI(shape, t.anchorX, t.anchorY, t.w, t.h)
	corners, err := s.cam.Coordinates(rect)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: %w", t.name, err)
	}
	size := camera.RealSize(corners, t.distance)

	debugMsg("EVALUATE", fmt.Sprintf("%s: %dx%d image, roi=(%.1f, %.1f, %.0f, %.0f) -> %.5f x %.5f %s",
		t.name, shape.Width, shape.Height, rect.X, rect.Y, rect.W, rect.H, size.Width, size.Height, s.cfg.Unit))

	return Evaluation{
		Name:       t.name,
		Kind:       t.kind,
		Image:      t.image,
		Shape:      shape,
		ROI:        rect,
		Distance:   t.distance,
		Calculated: size,
		Real:       t.measured,
		Report:     camera.NewReport(size, t.measured, s.cfg.Unit),
	}, nil
}
