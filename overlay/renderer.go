package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"camsize/imagesource"
	"camsize/session"
)

// debugMsgFunc is a function that will be set by main package to use unified logging
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide the debug logger
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

// debugMsg is a wrapper that handles nil checks
func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

var (
	roiColor     = color.RGBA{0, 255, 0, 0}   // green box
	measureColor = color.RGBA{255, 255, 0, 0} // yellow
	labelColor   = color.RGBA{255, 255, 255, 0}
	titleBgColor = color.RGBA{0, 0, 0, 0}
)

// DefaultPanelHeight is the height every image is scaled to in the side-by-side panel.
const DefaultPanelHeight = 500

// Renderer draws measured regions on the source photos and writes JPEGs.
type Renderer struct {
	outputDir   string
	panelHeight int
}

// NewRenderer creates a renderer writing into outputDir.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{
		outputDir:   outputDir,
		panelHeight: DefaultPanelHeight,
	}
}

// SetPanelHeight changes the panel row height. Non-positive values are ignored.
func (r *Renderer) SetPanelHeight(h int) {
	if h > 0 {
		r.panelHeight = h
	}
}

// AbsoluteRect converts the image-centred ROI of e back to pixel
// coordinates with the origin in the top-left corner.
func AbsoluteRect(e session.Evaluation) image.Rectangle {
	x := e.ROI.X + float64(e.Shape.Width)/2
	y := e.ROI.Y + float64(e.Shape.Height)/2
	return image.Rect(int(x), int(y), int(x+e.ROI.W), int(y+e.ROI.H))
}

// Annotate draws the ROI of e with width and height dimension arrows and
// the recovered sizes in the unit of the run.
func (r *Renderer) Annotate(img *gocv.Mat, e session.Evaluation, unit string) {
	rect := AbsoluteRect(e)
	gocv.Rectangle(img, rect, roiColor, 2)

	title := fmt.Sprintf("%s: %.2f x %.2f %s", e.Name, e.Calculated.Width, e.Calculated.Height, unit)
	gocv.PutText(img, title, image.Pt(rect.Min.X, rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, roiColor, 2)

	// Horizontal arrow under the box
	arrowY := rect.Max.Y + 15
	gocv.Line(img, image.Pt(rect.Min.X, arrowY), image.Pt(rect.Max.X, arrowY), measureColor, 2)
	gocv.Line(img, image.Pt(rect.Min.X, arrowY), image.Pt(rect.Min.X+6, arrowY-4), measureColor, 2)
	gocv.Line(img, image.Pt(rect.Min.X, arrowY), image.Pt(rect.Min.X+6, arrowY+4), measureColor, 2)
	gocv.Line(img, image.Pt(rect.Max.X, arrowY), image.Pt(rect.Max.X-6, arrowY-4), measureColor, 2)
	gocv.Line(img, image.Pt(rect.Max.X, arrowY), image.Pt(rect.Max.X-6, arrowY+4), measureColor, 2)

	widthText := fmt.Sprintf("%.2f%s (real %.2f)", e.Calculated.Width, unit, e.Real.Width)
	textWidth := len(widthText) * 8 // approximate glyph width at scale 0.5
	gocv.PutText(img, widthText, image.Pt(rect.Min.X+rect.Dx()/2-textWidth/2, arrowY+22),
		gocv.FontHersheySimplex, 0.5, measureColor, 1)

	// Vertical arrow to the right of the box
	arrowX := rect.Max.X + 15
	gocv.Line(img, image.Pt(arrowX, rect.Min.Y), image.Pt(arrowX, rect.Max.Y), measureColor, 2)
	gocv.Line(img, image.Pt(arrowX, rect.Min.Y), image.Pt(arrowX-4, rect.Min.Y+6), measureColor, 2)
	gocv.Line(img, image.Pt(arrowX, rect.Min.Y), image.Pt(arrowX+4, rect.Min.Y+6), measureColor, 2)
	gocv.Line(img, image.Pt(arrowX, rect.Max.Y), image.Pt(arrowX-4, rect.Max.Y-6), measureColor, 2)
	gocv.Line(img, image.Pt(arrowX, rect.Max.Y), image.Pt(arrowX+4, rect.Max.Y-6), measureColor, 2)

	heightText := fmt.Sprintf("%.2f%s (real %.2f)", e.Calculated.Height, unit, e.Real.Height)
	gocv.PutText(img, heightText, image.Pt(arrowX+8, rect.Min.Y+rect.Dy()/2),
		gocv.FontHersheySimplex, 0.5, measureColor, 1)
}

// SideBySide scales every image to the panel height, captions it with its
// index and label, and concatenates them left to right. The caller owns
// the returned Mat.
func (r *Renderer) SideBySide(images []gocv.Mat, labels []string) (gocv.Mat, error) {
	if len(images) == 0 {
		return gocv.NewMat(), fmt.Errorf("no images to concatenate")
	}
	if len(labels) != len(images) {
		return gocv.NewMat(), fmt.Errorf("got %d labels for %d images", len(labels), len(images))
	}

	panel := gocv.NewMat()
	for i, src := range images {
		scale := float64(r.panelHeight) / float64(src.Rows())
		width := int(float64(src.Cols())*scale + 0.5)

		tile := gocv.NewMat()
		gocv.Resize(src, &tile, image.Pt(width, r.panelHeight), 0, 0, gocv.InterpolationArea)

		caption := fmt.Sprintf("%d (%s)", i, labels[i])
		gocv.Rectangle(&tile, image.Rect(0, 0, width, 28), titleBgColor, -1)
		gocv.PutText(&tile, caption, image.Pt(6, 20), gocv.FontHersheySimplex, 0.5, labelColor, 1)

		if i == 0 {
			panel.Close()
			panel = tile
			continue
		}

		joined := gocv.NewMat()
		gocv.Hconcat(panel, tile, &joined)
		panel.Close()
		tile.Close()
		panel = joined
	}
	return panel, nil
}

// Render annotates every evaluated image, writes one JPEG per evaluation
// plus a side-by-side panel that also carries the profile images, and
// returns the written paths. The panel is last.
func (r *Renderer) Render(res *session.Results, profileImages []string) ([]string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create overlay directory: %v", err)
	}

	var (
		written []string
		tiles   []gocv.Mat
		labels  []string
	)
	defer func() {
		for _, m := range tiles {
			m.Close()
		}
	}()

	for _, e := range res.Evaluations {
		img, err := imagesource.Load(e.Image)
		if err != nil {
			return nil, err
		}
		r.Annotate(&img.Mat, e, res.Unit)

		path := filepath.Join(r.outputDir, fmt.Sprintf("%s_annotated.jpg", e.Name))
		if !gocv.IMWrite(path, img.Mat) {
			img.Close()
			return nil, fmt.Errorf("failed to write %s", path)
		}
		debugMsg("OVERLAY", fmt.Sprintf("saved annotated %s image: %s", e.Kind, path))
		written = append(written, path)

		tiles = append(tiles, img.Mat)
		labels = append(labels, filepath.Base(e.Image))
	}

	for _, p := range profileImages {
		img, err := imagesource.Load(p)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, img.Mat)
		labels = append(labels, filepath.Base(p))
	}

	panel, err := r.SideBySide(tiles, labels)
	if err != nil {
		return nil, err
	}
	defer panel.Close()

	panelPath := filepath.Join(r.outputDir, "panel.jpg")
	if !gocv.IMWrite(panelPath, panel) {
		return nil, fmt.Errorf("failed to write %s", panelPath)
	}
	debugMsg("OVERLAY", fmt.Sprintf("saved side-by-side panel (%d images): %s", len(tiles), panelPath))

	return append(written, panelPath), nil
}
