package camera

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidParameter is returned for non-positive or non-finite calibration input.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSingularMatrix is returned when the intrinsic matrix cannot be inverted.
	ErrSingularMatrix = errors.New("singular intrinsic matrix")
)

// Reference is a calibration object measured in a calibration photo.
// Pixel sizes are in pixels, real sizes and distance share one length unit.
type Reference struct {
	PixelWidth  float64
	PixelHeight float64
	RealWidth   float64
	RealHeight  float64
	Distance    float64
}

// Intrinsics holds the focal lengths and optical center, all in pixels.
type Intrinsics struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// Camera is a pinhole camera model without distortion.
//
// The optical center is never calibrated and stays at (0,0); ROI
// re-centres pixel coordinates on the image midpoint instead.
type Camera struct {
	mu   sync.RWMutex
	intr Intrinsics
	k    *mat.Dense
}

// New creates an uncalibrated camera. Its K is the zero matrix, so any
// projection fails with ErrSingularMatrix until Calibrate succeeds.
func New() *Camera {
	return &Camera{k: mat.NewDense(3, 3, nil)}
}

// Calibrate estimates fx and fy from a reference object with similar
// triangles and rebuilds K. fx, fy and K are replaced together.
func (c *Camera) Calibrate(ref Reference) error {
	if err := ref.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	intr := c.intr
	intr.Fx = ref.PixelWidth * ref.Distance / ref.RealWidth
	intr.Fy = ref.PixelHeight * ref.Distance / ref.RealHeight

	c.intr = intr
	c.k = intrinsicMatrix(intr)
	return nil
}

func (r Reference) validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"pixel width", r.PixelWidth},
		{"pixel height", r.PixelHeight},
		{"real width", r.RealWidth},
		{"real height", r.RealHeight},
		{"distance", r.Distance},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParameter, f.name, f.value)
		}
	}
	return nil
}

func intrinsicMatrix(intr Intrinsics) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		intr.Fx, 0, intr.Cx,
		0, intr.Fy, intr.Cy,
		0, 0, 1,
	})
}

// Intrinsics returns the current focal lengths and optical center.
func (c *Camera) Intrinsics() Intrinsics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intr
}

// K returns a copy of the 3x3 intrinsic matrix.
func (c *Camera) K() *mat.Dense {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mat.DenseCopyOf(c.k)
}

// Coordinates maps the four corners of rect through K⁻¹, giving
// normalized camera-ray coordinates. K is factorized once and each corner
// is solved against it rather than inverting K.
func (c *Camera) Coordinates(rect Rect) (Corners, error) {
	c.mu.RLock()
	k := mat.DenseCopyOf(c.k)
	c.mu.RUnlock()

	var lu mat.LU
	lu.Factorize(k)
	if lu.Det() == 0 || math.IsInf(lu.Cond(), 1) {
		return Corners{}, fmt.Errorf("%w: det(K) is zero, calibrate the camera first", ErrSingularMatrix)
	}

	solve := func(px, py float64) (r3.Vector, error) {
		var dst mat.VecDense
		if err := lu.SolveVecTo(&dst, false, mat.NewVecDense(3, []float64{px, py, 1})); err != nil {
			return r3.Vector{}, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
		}
		return r3.Vector{X: dst.AtVec(0), Y: dst.AtVec(1), Z: dst.AtVec(2)}, nil
	}

	var (
		corners Corners
		err     error
	)
	if corners.TopLeft, err = solve(rect.X, rect.Y); err != nil {
		return Corners{}, err
	}
	if corners.TopRight, err = solve(rect.X+rect.W, rect.Y); err != nil {
		return Corners{}, err
	}
	if corners.BottomLeft, err = solve(rect.X, rect.Y+rect.H); err != nil {
		return Corners{}, err
	}
	if corners.BottomRight, err = solve(rect.X+rect.W, rect.Y+rect.H); err != nil {
		return Corners{}, err
	}
	return corners, nil
}
