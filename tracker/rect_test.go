package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectConversions(t *testing.T) {
	r := NewRect(10, 20, 50, 100)

	assert.InDelta(t, 40, r.Width(), 1e-6)
	assert.InDelta(t, 80, r.Height(), 1e-6)
	assert.InDelta(t, 3200, r.Area(), 1e-6)

	xyah := r.Xyah()
	assert.InDeltaSlice(t, []float32{30, 60, 0.5, 80}, []float32(xyah), 1e-6)
	assert.Equal(t, r, RectFromXyah(xyah))

	tlwh := r.Tlwh()
	assert.InDeltaSlice(t, []float32{10, 20, 40, 80}, []float32(tlwh), 1e-6)
	assert.Equal(t, r, RectFromTlwh(tlwh))
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want float32
	}{
		{"identical", NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), 1},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 30, 30), 0},
		{"touching", NewRect(0, 0, 10, 10), NewRect(10, 0, 20, 10), 0},
		{"half overlap", NewRect(0, 0, 10, 10), NewRect(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", NewRect(0, 0, 10, 10), NewRect(0, 0, 5, 5), 0.25},
		{"degenerate", NewRect(0, 0, 0, 10), NewRect(0, 0, 10, 10), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, IoU(tc.a, tc.b), 1e-6)
			assert.InDelta(t, tc.want, IoU(tc.b, tc.a), 1e-6)
		})
	}
}

func TestIoUOnFirst(t *testing.T) {
	img := NewRect(0, 0, 100, 100)

	// fully inside
	assert.InDelta(t, 1, IoUOnFirst(NewRect(10, 10, 20, 20), img), 1e-6)
	// 40% inside the image
	assert.InDelta(t, 0.4, IoUOnFirst(NewRect(-30, 0, 20, 10), img), 1e-6)
	// asymmetric
	assert.InDelta(t, 0.01, IoUOnFirst(img, NewRect(10, 10, 20, 20)), 1e-6)
	// empty first box
	assert.Zero(t, IoUOnFirst(NewRect(5, 5, 5, 5), img))
}

func TestRectClampAndScale(t *testing.T) {
	r := NewRect(-10, 20, 700, 500).Clamp(640, 480)
	assert.Equal(t, NewRect(0, 20, 640, 480), r)

	s := NewRect(40, 40, 60, 80).Scale(2)
	assert.Equal(t, NewRect(30, 20, 70, 100), s)
}

func TestIoUMatrix(t *testing.T) {
	a := []Rect{NewRect(0, 0, 10, 10), NewRect(100, 100, 110, 110)}
	b := []Rect{NewRect(100, 100, 110, 110)}

	ious := IoUMatrix(a, b)

	assert.Len(t, ious, 2)
	assert.InDelta(t, 0, ious[0][0], 1e-6)
	assert.InDelta(t, 1, ious[1][0], 1e-6)
	assert.Nil(t, IoUMatrix(a, nil))
}
