package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment places a label along the top edge of its box
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Font holds the Hershey font settings for box labels.  The label
// background takes the box color.
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Thickness int
	LineType  gocv.LineType
	Color     color.RGBA
	// LostColor is the text color on labels of lost tracks, which sit on
	// the lighter lost box color
	LostColor color.RGBA
	// PadX is the margin left and right of the text, PadY above and below
	PadX      int
	PadY      int
	Alignment Alignment
}

// DefaultFont returns font settings sized for "type id" labels with an
// optional velocity suffix
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.45,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Color:     White,
		LostColor: Black,
		PadX:      3,
		PadY:      4,
		Alignment: AlignLeft,
	}
}

// textColor returns the text color for a label of the given status
func (f Font) textColor(lost bool) color.RGBA {
	if lost {
		return f.LostColor
	}
	return f.Color
}

// measure returns the pixel size of the text
func (f Font) measure(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}
