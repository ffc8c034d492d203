package imagesource

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"camsize/camera"
)

// ErrImageLoad is returned when an image file cannot be decoded.
var ErrImageLoad = errors.New("image load failure")

// Image is a decoded photo. The caller owns Mat and must call Close.
type Image struct {
	Path string
	Mat  gocv.Mat
}

// Shape returns the image height, width and channel count.
func (img *Image) Shape() camera.Shape {
	return camera.Shape{
		Height:   img.Mat.Rows(),
		Width:    img.Mat.Cols(),
		Channels: img.Mat.Channels(),
	}
}

// Close releases the underlying Mat.
func (img *Image) Close() error {
	return img.Mat.Close()
}

// Load decodes the image at path in color.
func Load(path string) (*Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: failed to read %s", ErrImageLoad, path)
	}
	return &Image{Path: path, Mat: mat}, nil
}

// Loader reads images from disk. It satisfies session.ShapeLoader.
type Loader struct{}

// Shape loads path only long enough to read its dimensions.
func (Loader) Shape(path string) (camera.Shape, error) {
	img, err := Load(path)
	if err != nil {
		return camera.Shape{}, err
	}
	defer img.Close()
	return img.Shape(), nil
}
