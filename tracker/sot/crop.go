package sot

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

// cropWindow describes where a square crop was taken from the source image
type cropWindow struct {
	// X and Y are the top left corner in image coordinates, can be negative
	// when the crop extends past the image
	X, Y float32
	// Side is the crop side length in image pixels
	Side float32
	// Scale is crop pixels per image pixel
	Scale float32
}

// toImage maps a rectangle in crop coordinates to image coordinates
func (w cropWindow) toImage(r tracker.Rect) tracker.Rect {
	return tracker.NewRect(
		w.X+r.X1/w.Scale,
		w.Y+r.Y1/w.Scale,
		w.X+r.X2/w.Scale,
		w.Y+r.Y2/w.Scale,
	)
}

// toCrop maps a rectangle in image coordinates to crop coordinates
func (w cropWindow) toCrop(r tracker.Rect) tracker.Rect {
	return tracker.NewRect(
		(r.X1-w.X)*w.Scale,
		(r.Y1-w.Y)*w.Scale,
		(r.X2-w.X)*w.Scale,
		(r.Y2-w.Y)*w.Scale,
	)
}

// contextSize returns the side of the square region around the box once
// context is added to both dimensions
func contextSize(box tracker.Rect, amount float32) float32 {
	ctx := amount * (box.Width() + box.Height())
	return float32(math.Sqrt(float64((box.Width() + ctx) * (box.Height() + ctx))))
}

// cropper extracts square crops around a point, padding the parts outside
// the image with the image mean color
type cropper struct {
	padMat gocv.Mat
}

func newCropper() *cropper {
	return &cropper{
		padMat: gocv.NewMat(),
	}
}

// Close frees memory held by the cropper
func (c *cropper) Close() error {
	return c.padMat.Close()
}

// crop takes the square of the given side centered at cx, cy and resizes it
// to outSize into dst
func (c *cropper) crop(src gocv.Mat, cx, cy, side float32, outSize int,
	dst *gocv.Mat) cropWindow {

	s := int(math.Round(float64(side)))

	if s < 1 {
		s = 1
	}

	x1 := int(math.Round(float64(cx) - float64(s)/2))
	y1 := int(math.Round(float64(cy) - float64(s)/2))
	x2 := x1 + s
	y2 := y1 + s

	win := cropWindow{
		X:     float32(x1),
		Y:     float32(y1),
		Side:  float32(s),
		Scale: float32(outSize) / float32(s),
	}

	left := maxi(0, -x1)
	top := maxi(0, -y1)
	right := maxi(0, x2-src.Cols())
	bottom := maxi(0, y2-src.Rows())

	mean := src.Mean()
	roi := image.Rect(x1+left, y1+top, x2-right, y2-bottom)

	// window lies entirely outside the image
	if roi.Empty() {
		fill := gocv.NewMatWithSizeFromScalar(mean, outSize, outSize, src.Type())
		fill.CopyTo(dst)
		fill.Close()
		return win
	}

	region := src.Region(roi)
	defer region.Close()

	if left+top+right+bottom == 0 {
		gocv.Resize(region, dst, image.Pt(outSize, outSize), 0, 0,
			gocv.InterpolationLinear)
		return win
	}

	padClr := color.RGBA{
		R: uint8(mean.Val3),
		G: uint8(mean.Val2),
		B: uint8(mean.Val1),
		A: 255,
	}

	gocv.CopyMakeBorder(region, &c.padMat, top, bottom, left, right,
		gocv.BorderConstant, padClr)

	gocv.Resize(c.padMat, dst, image.Pt(outSize, outSize), 0, 0,
		gocv.InterpolationLinear)

	return win
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
