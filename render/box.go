package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

// boxLabel holds a precalculated label so labels can be drawn after all
// boxes as the top most layer
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textClr color.RGBA
	textPos image.Point
}

// BoxStyle defines how tracker boxes are drawn
type BoxStyle struct {
	LineThickness int
	// ShowLost draws lost tracks in LostColor, otherwise they are skipped
	ShowLost  bool
	LostColor color.RGBA
	// ShowVelocity appends the velocity in pixels per frame to the label
	ShowVelocity bool
}

// DefaultBoxStyle returns default box style settings
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{
		LineThickness: 2,
		ShowLost:      true,
		LostColor:     Gray,
	}
}

// toImageRect converts a box to integer pixel coordinates
func toImageRect(r tracker.Rect) image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2))
}

// DetectionBoxes renders the bounding boxes of raw detections
func DetectionBoxes(img *gocv.Mat, dets []tracker.Detection, font Font,
	lineThickness int) {

	labels := make([]boxLabel, 0, len(dets))

	for i, d := range dets {
		clr := trackColors[i%len(trackColors)]
		rect := toImageRect(d.Box)

		gocv.Rectangle(img, rect, clr, lineThickness)

		text := fmt.Sprintf("%s %.2f", d.ObjectType, d.Score)
		labels = append(labels, newBoxLabel(rect, text, clr, font.Color, font,
			lineThickness))
	}

	drawLabels(img, labels, font)
}

// TrackerBoxes renders the bounding boxes and id labels of tracker results
func TrackerBoxes(img *gocv.Mat, results []tracker.TrackerInfo, font Font,
	style BoxStyle) {

	labels := make([]boxLabel, 0, len(results))

	for _, r := range results {

		if r.Status == tracker.Removed {
			continue
		}

		clr := TrackColor(r.TrackID)

		if r.Status == tracker.Lost {
			if !style.ShowLost {
				continue
			}
			clr = style.LostColor
		}

		rect := toImageRect(r.Box)
		gocv.Rectangle(img, rect, clr, style.LineThickness)

		text := fmt.Sprintf("%s %d", r.ObjectType, r.TrackID)

		if style.ShowVelocity {
			text += fmt.Sprintf(" %.1f,%.1f", r.VelocityX, r.VelocityY)
		}

		labels = append(labels, newBoxLabel(rect, text, clr,
			font.textColor(r.Status == tracker.Lost), font, style.LineThickness))
	}

	drawLabels(img, labels, font)
}

// newBoxLabel calculates the placement of a label sitting on the top edge
// of the box
func newBoxLabel(rect image.Rectangle, text string, clr, textClr color.RGBA,
	font Font, lineThickness int) boxLabel {

	size := font.measure(text)
	width := size.X + 2*font.PadX
	edge := lineThickness / 2

	var x int

	switch font.Alignment {
	case AlignCenter:
		x = (rect.Min.X+rect.Max.X)/2 - width/2
	case AlignRight:
		x = rect.Max.X + edge - width
	default:
		x = rect.Min.X - edge
	}

	bottom := rect.Min.Y
	top := bottom - size.Y - 2*font.PadY

	return boxLabel{
		rect:    image.Rect(x, top, x+width, bottom),
		clr:     clr,
		text:    text,
		textClr: textClr,
		textPos: image.Pt(x+font.PadX, bottom-font.PadY),
	}
}

// drawLabels paints the labels over everything else drawn
func drawLabels(img *gocv.Mat, labels []boxLabel, font Font) {
	for _, l := range labels {
		gocv.Rectangle(img, l.rect, l.clr, -1)

		gocv.PutTextWithParams(img, l.text, l.textPos,
			font.Face, font.Scale, l.textClr, font.Thickness,
			font.LineType, false)
	}
}
