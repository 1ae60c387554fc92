package sot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/swdee/go-edgetrack/tracker"
)

func TestContextSize(t *testing.T) {
	// square box with half its perimeter of context each side
	assert.InDelta(t, 120, contextSize(tracker.NewRect(0, 0, 60, 60), 0.5), 1e-4)
	assert.InDelta(t, 60, contextSize(tracker.NewRect(0, 0, 60, 60), 0), 1e-4)
}

func TestCropWindowMapping(t *testing.T) {
	win := cropWindow{X: -10, Y: 20, Side: 100, Scale: 2}

	r := tracker.NewRect(30, 40, 50, 70)
	c := win.toCrop(r)
	assert.Equal(t, tracker.NewRect(80, 40, 120, 100), c)
	assert.Equal(t, r, win.toImage(c))
}

func TestCrop(t *testing.T) {

	tests := []struct {
		name     string
		cx, cy   float32
		side     float32
		expected cropWindow
	}{
		{"inside", 100, 100, 50, cropWindow{X: 75, Y: 75, Side: 50, Scale: 2}},
		{"padded", 10, 10, 50, cropWindow{X: -15, Y: -15, Side: 50, Scale: 2}},
		{"outside", -500, -500, 50, cropWindow{X: -525, Y: -525, Side: 50, Scale: 2}},
	}

	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	c := newCropper()
	defer c.Close()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dst := gocv.NewMat()
			defer dst.Close()

			win := c.crop(img, tc.cx, tc.cy, tc.side, 100, &dst)

			assert.Equal(t, tc.expected, win)
			assert.Equal(t, 100, dst.Rows())
			assert.Equal(t, 100, dst.Cols())
		})
	}
}
