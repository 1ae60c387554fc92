package mot

import (
	"github.com/swdee/go-edgetrack/tracker"
)

// Track is the persistent state of one object followed across frames
type Track struct {
	id      uint64
	objType tracker.ObjectType
	classID int

	kf         *tracker.KalmanFilter
	mean       tracker.StateMean
	covariance *tracker.StateCov

	// box is the current state estimate, detBox the last real detection
	box    tracker.Rect
	detBox tracker.Rect
	// confidence is the last detection score, decayed on every prediction
	confidence float32

	status           tracker.Status
	matchedTimes     int
	unmatchedTimes   int
	falseUpdateTimes int
	ages             int

	velX, velY      float32
	lastUpdateFrame uint64

	// pair is the single active cross type correlation, nil when unpaired
	pair *PairCorrelation
}

// TrackState is a read only snapshot of a track
type TrackState struct {
	ID               uint64
	ObjectType       tracker.ObjectType
	ClassID          int
	Status           tracker.Status
	Box              tracker.Rect
	DetectionBox     tracker.Rect
	Confidence       float32
	MatchedTimes     int
	UnmatchedTimes   int
	FalseUpdateTimes int
	Ages             int
	VelocityX        float32
	VelocityY        float32
	// Pair is a copy of the active pair correlation, nil when unpaired
	Pair *PairCorrelation
}

// newTrack starts a track from an unmatched detection
func newTrack(id uint64, det tracker.Detection, frameID uint64,
	kf *tracker.KalmanFilter) *Track {

	mean, covariance := kf.Initiate(det.Box.Xyah())

	return &Track{
		id:              id,
		objType:         det.ObjectType,
		classID:         det.ClassID,
		kf:              kf,
		mean:            mean,
		covariance:      covariance,
		box:             det.Box,
		detBox:          det.Box,
		confidence:      det.Score,
		status:          tracker.New,
		matchedTimes:    1,
		lastUpdateFrame: frameID,
	}
}

// ID returns the unique track id
func (t *Track) ID() uint64 {
	return t.id
}

// Status returns the lifecycle state
func (t *Track) Status() tracker.Status {
	return t.status
}

// ObjectType returns the object type the track follows
func (t *Track) ObjectType() tracker.ObjectType {
	return t.objType
}

// Box returns the current box estimate
func (t *Track) Box() tracker.Rect {
	return t.box
}

// State returns a snapshot of the track
func (t *Track) State() TrackState {
	s := TrackState{
		ID:               t.id,
		ObjectType:       t.objType,
		ClassID:          t.classID,
		Status:           t.status,
		Box:              t.box,
		DetectionBox:     t.detBox,
		Confidence:       t.confidence,
		MatchedTimes:     t.matchedTimes,
		UnmatchedTimes:   t.unmatchedTimes,
		FalseUpdateTimes: t.falseUpdateTimes,
		Ages:             t.ages,
		VelocityX:        t.velX,
		VelocityY:        t.velY,
	}

	if t.pair != nil {
		p := *t.pair
		s.Pair = &p
	}

	return s
}

// predict advances the Kalman state by one frame
func (t *Track) predict(confidenceDecay float32) {

	// a lost track stops growing or shrinking
	if t.status != tracker.Tracked {
		t.mean[7] = 0
	}

	t.kf.Predict(t.mean, t.covariance)
	t.box = tracker.RectFromXyah(tracker.Xyah(t.mean[:4]))
	t.ages++
	t.confidence *= confidenceDecay
}

// correct applies a measurement to the Kalman state.  A failed update
// restarts the filter from the measurement.
func (t *Track) correct(box tracker.Rect) {

	if err := t.kf.Update(t.mean, t.covariance, box.Xyah()); err != nil {
		tracker.Diagf("track %d kalman update failed, reinitiating: %v", t.id, err)
		t.mean, t.covariance = t.kf.Initiate(box.Xyah())
	}

	t.box = tracker.RectFromXyah(tracker.Xyah(t.mean[:4]))
}

// update applies a real detection to the track
func (t *Track) update(det tracker.Detection, frameID uint64,
	cfg tracker.MOTConfig) {

	t.correct(det.Box)

	// velocity from raw detection centers, averaged over skipped frames
	if frameID > t.lastUpdateFrame {
		dt := float32(frameID - t.lastUpdateFrame)
		vx := (det.Box.CenterX() - t.detBox.CenterX()) / dt
		vy := (det.Box.CenterY() - t.detBox.CenterY()) / dt

		if t.matchedTimes <= 1 {
			t.velX, t.velY = vx, vy
		} else {
			t.velX = cfg.VelocityAlpha*vx + (1-cfg.VelocityAlpha)*t.velX
			t.velY = cfg.VelocityAlpha*vy + (1-cfg.VelocityAlpha)*t.velY
		}
	}

	t.detBox = det.Box
	t.classID = det.ClassID
	t.confidence = det.Score
	t.lastUpdateFrame = frameID
	t.matchedTimes++
	t.unmatchedTimes = 0

	switch t.status {
	case tracker.New:
		if t.matchedTimes >= cfg.TrackConfirmedFrames {
			t.status = tracker.Tracked
		}
	case tracker.Lost:
		t.status = tracker.Tracked
	}
}

// falseUpdate applies a box imputed from the pair partner.  The frame still
// counts as unmatched but part of the debt is forgiven.
func (t *Track) falseUpdate(box tracker.Rect, cfg tracker.MOTConfig) {

	t.correct(box)
	t.falseUpdateTimes++

	t.unmatchedTimes++
	t.unmatchedTimes -= cfg.PairRescueForgiveness

	if t.unmatchedTimes < 1 {
		t.unmatchedTimes = 1
	}

	if t.unmatchedTimes >= cfg.MaxUnmatchedTimes {
		t.status = tracker.Removed
	}
}

// markMissed records a frame without any update
func (t *Track) markMissed(maxUnmatchedTimes int) {

	t.unmatchedTimes++

	switch t.status {
	case tracker.New:
		t.status = tracker.Removed
	case tracker.Tracked:
		t.status = tracker.Lost
	}

	if t.unmatchedTimes >= maxUnmatchedTimes {
		t.status = tracker.Removed
	}
}
