package camera

import "github.com/golang/geo/r3"

// Shape is the pixel size of an image.
type Shape struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// Rect is an axis-aligned rectangle in pixels, relative to the image center.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Corners are the projected rectangle corners in camera-ray coordinates.
type Corners struct {
	TopLeft     r3.Vector
	TopRight    r3.Vector
	BottomLeft  r3.Vector
	BottomRight r3.Vector
}

// Size is a real-world width and height in the configured length unit.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width * Height.
func (s Size) Area() float64 {
	return s.Width * s.Height
}

// ROI expresses a rectangle anchored at (anchorX, anchorY) with size w×h
// relative to the geometric center of an image with the given shape.
func ROI(shape Shape, anchorX, anchorY, w, h float64) Rect {
	return Rect{
		X: anchorX - float64(shape.Width)/2,
		Y: anchorY - float64(shape.Height)/2,
		W: w,
		H: h,
	}
}

// RealSize scales the diagonal extent of the projected corners by the
// camera-to-object distance.
func RealSize(c Corners, scale float64) Size {
	return Size{
		Width:  (c.BottomRight.X - c.TopLeft.X) * scale,
		Height: (c.BottomRight.Y - c.TopLeft.Y) * scale,
	}
}
