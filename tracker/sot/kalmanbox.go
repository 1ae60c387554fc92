package sot

import (
	"errors"
	"fmt"

	"github.com/swdee/go-edgetrack/tracker"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the innovation covariance can not be inverted
var ErrSingular = errors.New("singular innovation covariance")

// KalmanBoxTracker is a constant velocity Kalman filter over a box center,
// width and height.  The state is [x, y, w, h, vx, vy, vw, vh].
type KalmanBoxTracker struct {
	x *mat.VecDense
	p *mat.Dense
	f *mat.Dense
	q *mat.Dense

	measurementNoise float64
	// aspect is the height to width ratio of the last scale update, the
	// predicted height is derived from it
	aspect float64
	// updates counts measurement updates since creation
	updates int
}

// NewKalmanBoxTracker returns a filter seeded at the given box
func NewKalmanBoxTracker(box tracker.Rect, processNoise,
	measurementNoise float32) *KalmanBoxTracker {

	k := &KalmanBoxTracker{
		x: mat.NewVecDense(8, []float64{
			float64(box.CenterX()), float64(box.CenterY()),
			float64(box.Width()), float64(box.Height()),
			0, 0, 0, 0,
		}),
		f:                eye(8),
		p:                mat.NewDense(8, 8, nil),
		q:                mat.NewDense(8, 8, nil),
		measurementNoise: float64(measurementNoise),
		aspect:           1,
	}

	if box.Width() > 0 {
		k.aspect = float64(box.Height() / box.Width())
	}

	for i := 0; i < 4; i++ {
		k.f.Set(i, i+4, 1)

		// velocities are unknown at the start
		k.p.Set(i, i, float64(measurementNoise))
		k.p.Set(i+4, i+4, 1000)

		k.q.Set(i, i, float64(processNoise))
		k.q.Set(i+4, i+4, float64(processNoise)*0.01)
	}

	return k
}

// eye returns an n x n identity matrix
func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)

	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}

	return m
}

// Predict advances the state by one frame and returns the predicted box
func (k *KalmanBoxTracker) Predict() tracker.Rect {

	// x = F x
	var x mat.VecDense
	x.MulVec(k.f, k.x)
	k.x = &x

	// P = F P F' + Q
	var fp, fpft mat.Dense
	fp.Mul(k.f, k.p)
	fpft.Mul(&fp, k.f.T())
	fpft.Add(&fpft, k.q)
	k.p = &fpft

	if k.x.AtVec(2) < 1 {
		k.x.SetVec(2, 1)
	}

	k.x.SetVec(3, k.aspect*k.x.AtVec(2))

	return k.Box()
}

// Update corrects the state with a measured box.  When updateScale is false
// only the center is measured and the width, height and their velocities
// keep their values from before the update.
func (k *KalmanBoxTracker) Update(box tracker.Rect, updateScale bool) error {

	w, h := k.x.AtVec(2), k.x.AtVec(3)
	vw, vh := k.x.AtVec(6), k.x.AtVec(7)

	rows := 2
	z := []float64{float64(box.CenterX()), float64(box.CenterY())}

	if updateScale {
		rows = 4
		z = append(z, float64(box.Width()), float64(box.Height()))
	}

	hm := mat.NewDense(rows, 8, nil)
	r := mat.NewDense(rows, rows, nil)

	for i := 0; i < rows; i++ {
		hm.Set(i, i, 1)
		r.Set(i, i, k.measurementNoise)
	}

	// y = z - H x
	var hx, y mat.VecDense
	hx.MulVec(hm, k.x)
	y.SubVec(mat.NewVecDense(rows, z), &hx)

	// S = H P H' + R
	var hp, s mat.Dense
	hp.Mul(hm, k.p)
	s.Mul(&hp, hm.T())
	s.Add(&s, r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}

	// K = P H' S^-1
	var pht, gain mat.Dense
	pht.Mul(k.p, hm.T())
	gain.Mul(&pht, &sInv)

	// x = x + K y
	var ky mat.VecDense
	ky.MulVec(&gain, &y)
	k.x.AddVec(k.x, &ky)

	// P = (I - K H) P
	var kh, p mat.Dense
	kh.Mul(&gain, hm)
	ikh := eye(8)
	ikh.Sub(ikh, &kh)
	p.Mul(ikh, k.p)
	k.p = &p

	if updateScale {
		if box.Width() > 0 && box.Height() > 0 {
			k.aspect = float64(box.Height() / box.Width())
		}
	} else {
		k.x.SetVec(2, w)
		k.x.SetVec(3, h)
		k.x.SetVec(6, vw)
		k.x.SetVec(7, vh)
	}

	k.updates++

	return nil
}

// Box returns the current state as a rectangle
func (k *KalmanBoxTracker) Box() tracker.Rect {
	return tracker.RectFromCenter(
		float32(k.x.AtVec(0)), float32(k.x.AtVec(1)),
		float32(k.x.AtVec(2)), float32(k.x.AtVec(3)),
	)
}

// Velocity returns the center velocity in pixels per frame
func (k *KalmanBoxTracker) Velocity() (float32, float32) {
	return float32(k.x.AtVec(4)), float32(k.x.AtVec(5))
}

// Updates returns the number of measurement updates applied
func (k *KalmanBoxTracker) Updates() int {
	return k.updates
}
