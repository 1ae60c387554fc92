package tracker

import (
	"math"
)

// Tlwh (top left x, top left y, width, height) represents a 1x4 matrix
type Tlwh []float32

// Xyah (center x, center y, aspect ratio, height) represents a 1x4 matrix
// where the aspect ratio is width divided by height
type Xyah []float32

// Rect represents a bounding box in pixel coordinates using the top left
// (X1, Y1) and bottom right (X2, Y2) corners
type Rect struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

// NewRect creates a new Rect from its corner coordinates
func NewRect(x1, y1, x2, y2 float32) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RectFromTlwh creates a Rect from Tlwh format
func RectFromTlwh(tlwh Tlwh) Rect {
	return NewRect(tlwh[0], tlwh[1], tlwh[0]+tlwh[2], tlwh[1]+tlwh[3])
}

// RectFromXyah creates a Rect from Xyah (center x, center y, aspect ratio,
// height) format
func RectFromXyah(xyah Xyah) Rect {
	width := xyah[2] * xyah[3]
	return NewRect(xyah[0]-width/2, xyah[1]-xyah[3]/2,
		xyah[0]+width/2, xyah[1]+xyah[3]/2)
}

// RectFromCenter creates a Rect from its center point and dimensions
func RectFromCenter(cx, cy, width, height float32) Rect {
	return NewRect(cx-width/2, cy-height/2, cx+width/2, cy+height/2)
}

// Width returns the width of the rectangle
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the height of the rectangle
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// CenterX returns the x coordinate of the rectangle center
func (r Rect) CenterX() float32 {
	return (r.X1 + r.X2) / 2
}

// CenterY returns the y coordinate of the rectangle center
func (r Rect) CenterY() float32 {
	return (r.Y1 + r.Y2) / 2
}

// Area returns the area of the rectangle, zero for degenerate rectangles
func (r Rect) Area() float32 {
	w := r.Width()
	h := r.Height()

	if w <= 0 || h <= 0 {
		return 0
	}

	return w * h
}

// Valid reports whether the rectangle has positive width and height and
// finite coordinates
func (r Rect) Valid() bool {
	for _, v := range []float32{r.X1, r.Y1, r.X2, r.Y2} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return r.X2 > r.X1 && r.Y2 > r.Y1
}

// Contains reports whether the point (x, y) lies inside the rectangle
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// Tlwh converts the rectangle to Tlwh format
func (r Rect) Tlwh() Tlwh {
	return Tlwh{r.X1, r.Y1, r.Width(), r.Height()}
}

// Xyah converts the rectangle to Xyah (center x, center y, aspect ratio,
// height) format
func (r Rect) Xyah() Xyah {
	return Xyah{
		r.CenterX(),
		r.CenterY(),
		r.Width() / r.Height(),
		r.Height(),
	}
}

// Clamp limits the rectangle to the image area of the given width and height
func (r Rect) Clamp(width, height float32) Rect {
	return NewRect(
		clampf(r.X1, 0, width),
		clampf(r.Y1, 0, height),
		clampf(r.X2, 0, width),
		clampf(r.Y2, 0, height),
	)
}

// Scale grows or shrinks the rectangle about its center by the given ratio
func (r Rect) Scale(ratio float32) Rect {
	return RectFromCenter(r.CenterX(), r.CenterY(), r.Width()*ratio,
		r.Height()*ratio)
}

// Intersection returns the overlapping area of two rectangles
func (r Rect) Intersection(other Rect) float32 {
	iw := minf(r.X2, other.X2) - maxf(r.X1, other.X1)
	if iw <= 0 {
		return 0
	}

	ih := minf(r.Y2, other.Y2) - maxf(r.Y1, other.Y1)
	if ih <= 0 {
		return 0
	}

	return iw * ih
}

// IoU calculates the Intersection over Union between two rectangles
func IoU(a, b Rect) float32 {
	inter := a.Intersection(b)

	if inter == 0 {
		return 0
	}

	union := a.Area() + b.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// IoUOnFirst calculates the intersection of two rectangles relative to the
// area of the first one.  Used to measure how much of a box lies inside
// another, such as a track inside the image or a face inside a person.
func IoUOnFirst(first, second Rect) float32 {
	area := first.Area()

	if area == 0 {
		return 0
	}

	return first.Intersection(second) / area
}

// IoUMatrix calculates the IoU between every pair of rectangles, with rows
// indexed by aRects and columns by bRects
func IoUMatrix(aRects, bRects []Rect) [][]float32 {

	var ious [][]float32

	if len(aRects)*len(bRects) == 0 {
		return ious
	}

	ious = make([][]float32, len(aRects))

	for ai := range aRects {
		ious[ai] = make([]float32, len(bRects))

		for bi := range bRects {
			ious[ai][bi] = IoU(aRects[ai], bRects[bi])
		}
	}

	return ious
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
