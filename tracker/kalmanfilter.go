package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateMean represents the 1x8 state vector
// [cx, cy, aspect, h, vcx, vcy, vaspect, vh]
type StateMean []float32

// StateCov represents the 8x8 state covariance matrix
type StateCov struct {
	*mat.Dense
}

// NewStateCov returns a zeroed 8x8 covariance matrix
func NewStateCov() *StateCov {
	return &StateCov{mat.NewDense(8, 8, nil)}
}

// StateHMean represents the 1x4 state projected to measurement space
type StateHMean []float32

// StateHCov represents the 4x4 covariance projected to measurement space
type StateHCov struct {
	*mat.SymDense
}

// ErrFactorize is returned when the projected covariance is not positive
// definite
var ErrFactorize = errors.New("failed to factorize projected covariance")

// KalmanFilter is a constant velocity Kalman filter over the Xyah bounding
// box parameterisation.  Process and measurement noise are scaled by the
// box height so uncertainty grows with object size.
type KalmanFilter struct {
	stdWeightPosition float32
	stdWeightVelocity float32
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter with the given
// position and velocity noise weights, typically 1/20 and 1/160
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float32) *KalmanFilter {

	const ndim = 4
	const dt = 1.0

	// F is identity with dt coupling each position to its velocity
	motionMat := mat.NewDense(2*ndim, 2*ndim, nil)

	for i := 0; i < 2*ndim; i++ {
		motionMat.Set(i, i, 1)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, dt)
	}

	// H observes the first four state variables
	updateMat := mat.NewDense(ndim, 2*ndim, nil)

	for i := 0; i < ndim; i++ {
		updateMat.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// Initiate creates the state mean and covariance of a new track from an
// unassociated measurement
func (kf *KalmanFilter) Initiate(measurement Xyah) (StateMean, *StateCov) {

	mean := make(StateMean, 8)
	copy(mean[:4], measurement[:4])

	h := measurement[3]

	std := [8]float32{
		2 * kf.stdWeightPosition * h,
		2 * kf.stdWeightPosition * h,
		1e-2,
		2 * kf.stdWeightPosition * h,
		10 * kf.stdWeightVelocity * h,
		10 * kf.stdWeightVelocity * h,
		1e-5,
		10 * kf.stdWeightVelocity * h,
	}

	covariance := NewStateCov()

	for i, v := range std {
		covariance.Set(i, i, float64(v*v))
	}

	return mean, covariance
}

// Predict runs the prediction step in place, advancing the state by one
// frame
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	h := mean[3]

	std := [8]float32{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-2,
		kf.stdWeightPosition * h,
		kf.stdWeightVelocity * h,
		kf.stdWeightVelocity * h,
		1e-5,
		kf.stdWeightVelocity * h,
	}

	motionCov := mat.NewDense(8, 8, nil)

	for i, v := range std {
		motionCov.Set(i, i, float64(v*v))
	}

	// x = F x
	x := mat.NewVecDense(8, toFloat64(mean))
	var xNext mat.VecDense
	xNext.MulVec(kf.motionMat, x)

	for i := 0; i < 8; i++ {
		mean[i] = float32(xNext.AtVec(i))
	}

	// P = F P F' + Q
	var fp, fpft mat.Dense
	fp.Mul(kf.motionMat, covariance.Dense)
	fpft.Mul(&fp, kf.motionMat.T())
	fpft.Add(&fpft, motionCov)

	covariance.Dense = &fpft
}

// Project projects the state distribution to measurement space
func (kf *KalmanFilter) Project(mean StateMean,
	covariance *StateCov) (StateHMean, *StateHCov) {

	h := mean[3]

	std := [4]float32{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-1,
		kf.stdWeightPosition * h,
	}

	// H x
	var projected mat.VecDense
	projected.MulVec(kf.updateMat, mat.NewVecDense(8, toFloat64(mean)))

	// H P H' + R
	var hp, hph mat.Dense
	hp.Mul(kf.updateMat, covariance.Dense)
	hph.Mul(&hp, kf.updateMat.T())

	projectedCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			projectedCov.SetSym(i, j, hph.At(i, j))
		}
		projectedCov.SetSym(i, i, projectedCov.At(i, i)+float64(std[i]*std[i]))
	}

	projectedMean := make(StateHMean, 4)

	for i := 0; i < 4; i++ {
		projectedMean[i] = float32(projected.AtVec(i))
	}

	return projectedMean, &StateHCov{projectedCov}
}

// Update runs the correction step in place with the given measurement
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement Xyah) error {

	projectedMean, projectedCov := kf.Project(mean, covariance)

	var chol mat.Cholesky

	if ok := chol.Factorize(projectedCov); !ok {
		return ErrFactorize
	}

	// K' = S^-1 (P H')'
	var pht mat.Dense
	pht.Mul(covariance.Dense, kf.updateMat.T())

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, pht.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(4, nil)

	for i := 0; i < 4; i++ {
		innovation.SetVec(i, float64(measurement[i]-projectedMean[i]))
	}

	// x = x + K y
	var correction mat.VecDense
	correction.MulVec(gainT.T(), innovation)

	for i := 0; i < 8; i++ {
		mean[i] += float32(correction.AtVec(i))
	}

	// P = P - K S K'
	var ks, ksk mat.Dense
	ks.Mul(gainT.T(), projectedCov)
	ksk.Mul(&ks, &gainT)

	newCov := mat.NewDense(8, 8, nil)
	newCov.Sub(covariance.Dense, &ksk)
	covariance.Dense = newCov

	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
