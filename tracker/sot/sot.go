package sot

import (
	"errors"
	"fmt"
	"math"

	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when an empty image is passed in
	ErrEmptyFrame = errors.New("empty frame")
	// ErrNoTarget is returned when initialization could not select a target
	ErrNoTarget = errors.New("no target at the selected point")
)

// SOT is a single object tracker.  A similarity Model locates the target in
// a search crop around its last position, the result is filtered with a
// Kalman box tracker and scored for occlusion and reappearance.
//
// A SOT is not safe for concurrent use, run one instance per video channel.
type SOT struct {
	cfg   tracker.SOTConfig
	model Model

	crops    *cropper
	template gocv.Mat
	search   gocv.Mat

	kf *KalmanBoxTracker

	initialized bool
	status      tracker.Status
	classID     int
	objType     tracker.ObjectType

	box   tracker.Rect
	score float32
	// lastTracked is the model box of the last tracked frame
	lastTracked tracker.Rect
	// lastReliable is the box snapshot taken when the target was lost
	lastReliable tracker.Rect
	lostFrames   int
	occluded     bool

	scores []float32

	imgWidth  int
	imgHeight int
	frameID   uint64
}

var _ tracker.SingleTracker = (*SOT)(nil)

// New returns a single object tracker using the given model
func New(model Model, cfg tracker.SOTConfig) (*SOT, error) {

	if model == nil {
		return nil, fmt.Errorf("%w: nil model", tracker.ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SOT{
		cfg:      cfg,
		model:    model,
		crops:    newCropper(),
		template: gocv.NewMat(),
		search:   gocv.NewMat(),
		status:   tracker.Lost,
	}, nil
}

// Close frees the crop buffers
func (s *SOT) Close() error {
	s.template.Close()
	s.search.Close()
	return s.crops.Close()
}

// Kind returns tracker.SingleObject
func (s *SOT) Kind() tracker.Kind {
	return tracker.SingleObject
}

// Reset forgets the target, Track fails until the tracker is initialized
// again
func (s *SOT) Reset() {
	s.initialized = false
	s.kf = nil
	s.status = tracker.Lost
	s.scores = s.scores[:0]
	s.lostFrames = 0
	s.occluded = false
}

// Status returns the reported status of the target
func (s *SOT) Status() tracker.Status {
	return s.reportedStatus()
}

// Box returns the current target box
func (s *SOT) Box() tracker.Rect {
	return s.box
}

// InitializeWithBox starts tracking the target inside box
func (s *SOT) InitializeWithBox(frame gocv.Mat, box tracker.Rect,
	frameID uint64) error {

	return s.initialize(frame, box, tracker.Undefined, 0, frameID)
}

// InitializeWithDetection starts tracking the detection at index idx
func (s *SOT) InitializeWithDetection(frame gocv.Mat, dets []tracker.Detection,
	idx int, frameID uint64) error {

	if idx < 0 || idx >= len(dets) {
		return fmt.Errorf("%w: detection index %d out of range", ErrNoTarget, idx)
	}

	d := dets[idx]

	return s.initialize(frame, d.Box, d.ObjectType, d.ClassID, frameID)
}

// InitializeWithPoint starts tracking the smallest candidate detection
// containing the point, such as a user click
func (s *SOT) InitializeWithPoint(frame gocv.Mat, x, y float32,
	candidates []tracker.Detection, frameID uint64) error {

	best := -1
	var bestArea float32

	for i, c := range candidates {
		if !c.Box.Contains(x, y) {
			continue
		}

		if a := c.Box.Area(); best < 0 || a < bestArea {
			best = i
			bestArea = a
		}
	}

	if best < 0 {
		return fmt.Errorf("%w: (%.0f, %.0f)", ErrNoTarget, x, y)
	}

	return s.InitializeWithDetection(frame, candidates, best, frameID)
}

func (s *SOT) initialize(frame gocv.Mat, box tracker.Rect,
	objType tracker.ObjectType, classID int, frameID uint64) error {

	if frame.Empty() {
		return ErrEmptyFrame
	}

	s.imgWidth, s.imgHeight = frame.Cols(), frame.Rows()
	box = s.fitBox(box)

	if !box.Valid() {
		return fmt.Errorf("%w: box %v outside image", ErrNoTarget, box)
	}

	side := contextSize(box, s.cfg.ContextAmount)
	win := s.crops.crop(frame, box.CenterX(), box.CenterY(), side,
		s.cfg.TemplateSize, &s.template)

	if err := s.model.Init(s.template, win.toCrop(box)); err != nil {
		return fmt.Errorf("model init: %w", err)
	}

	s.kf = NewKalmanBoxTracker(box, s.cfg.ProcessNoise, s.cfg.MeasurementNoise)
	s.initialized = true
	s.status = tracker.Tracked
	s.objType = objType
	s.classID = classID
	s.box = box
	s.score = 1
	s.lastTracked = box
	s.lastReliable = box
	s.lostFrames = 0
	s.occluded = false
	s.scores = s.scores[:0]
	s.frameID = frameID

	tracker.Diagf("sot initialized at %v frame %d", box, frameID)

	return nil
}

// fitBox clamps the box to the image and grows it about its center to the
// minimum size
func (s *SOT) fitBox(box tracker.Rect) tracker.Rect {

	w := float32(s.imgWidth)
	h := float32(s.imgHeight)

	box = box.Clamp(w, h)

	if !box.Valid() {
		return box
	}

	bw := maxf(box.Width(), s.cfg.MinBoxSize)
	bh := maxf(box.Height(), s.cfg.MinBoxSize)

	return tracker.RectFromCenter(box.CenterX(), box.CenterY(), bw, bh).Clamp(w, h)
}

// anchor returns the box the search region is centered on.  While lost the
// last reliable box is grown with the number of lost frames.
func (s *SOT) anchor() tracker.Rect {

	if s.status != tracker.Lost {
		return s.box
	}

	ratio := 1 + s.cfg.LostExpandStep*float32(s.lostFrames)

	if ratio > s.cfg.MaxExpandRatio {
		ratio = s.cfg.MaxExpandRatio
	}

	return s.lastReliable.Scale(ratio)
}

// Track locates the target in the frame
func (s *SOT) Track(frame gocv.Mat, frameID uint64) (tracker.TrackerInfo, error) {

	if !s.initialized {
		return tracker.TrackerInfo{}, tracker.ErrNotInitialized
	}

	if frame.Empty() {
		return tracker.TrackerInfo{}, ErrEmptyFrame
	}

	s.imgWidth, s.imgHeight = frame.Cols(), frame.Rows()
	s.replaySkipped(frameID)
	s.frameID = frameID

	anchor := s.anchor()
	side := contextSize(anchor, s.cfg.ContextAmount) *
		float32(s.cfg.SearchSize) / float32(s.cfg.TemplateSize)
	win := s.crops.crop(frame, anchor.CenterX(), anchor.CenterY(), side,
		s.cfg.SearchSize, &s.search)

	pred := s.kf.Predict()

	cands, err := s.model.Infer(s.search)

	if err != nil {
		tracker.Opsf("sot frame %d model inference failed: %v", frameID, err)
	}

	if err != nil || len(cands) == 0 {
		s.missed(pred)
		return s.info(), nil
	}

	best := cands[0]

	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	raw := win.toImage(best.Box).Clamp(float32(s.imgWidth), float32(s.imgHeight))

	if !raw.Valid() {
		tracker.Diagf("sot frame %d candidate %v outside image", frameID, raw)
		s.missed(pred)
		return s.info(), nil
	}

	s.assess(raw, pred, best.Score)

	return s.info(), nil
}

// replaySkipped steps the filter over frames that were never passed to
// Track so its velocity stays in pixels per frame
func (s *SOT) replaySkipped(frameID uint64) {

	if frameID <= s.frameID+1 {
		return
	}

	for i := s.frameID + 1; i < frameID; i++ {
		pred := s.kf.Predict()

		if err := s.kf.Update(pred, false); err != nil {
			tracker.Diagf("sot replay update failed: %v", err)
		}
	}
}

// assess scores the model candidate and drives the tracked/lost transitions
func (s *SOT) assess(raw, pred tracker.Rect, score float32) {

	iou := float32(1)

	if s.kf.Updates() >= s.cfg.KalmanWarmupFrames {
		iou = tracker.IoU(raw, pred)
	}

	ratio := minf(s.scoreRatio(score), 1)
	drift := minf(aspectDrift(raw, s.lastTracked), 1)

	wo := s.cfg.Occluded
	occ := wo.Score*(1-score) + wo.Ratio*(1-ratio) + wo.IoU*(1-iou) + wo.Aspect*drift

	wr := s.cfg.Reappear
	reappear := wr.Score*score + wr.Ratio*ratio + wr.IoU*iou + wr.Aspect*(1-drift)

	s.occluded = occ > s.cfg.OccludedThresh
	s.score = score

	tracker.Tracef("sot frame %d score %.3f ratio %.3f iou %.3f drift %.3f occ %.3f reappear %.3f",
		s.frameID, score, ratio, iou, drift, occ, reappear)

	switch s.status {
	case tracker.Tracked:
		if s.occluded {
			s.lose(raw)
			return
		}

		s.accept(raw, score)

	case tracker.Lost:
		if reappear > s.cfg.ReappearThresh {
			tracker.Diagf("sot frame %d target reappeared after %d frames",
				s.frameID, s.lostFrames)
			s.status = tracker.Tracked
			s.lostFrames = 0
			s.accept(raw, score)
			return
		}

		s.lostFrames++
		s.box = pred.Clamp(float32(s.imgWidth), float32(s.imgHeight))
	}
}

// accept applies a full update from a trusted candidate
func (s *SOT) accept(raw tracker.Rect, score float32) {

	if err := s.kf.Update(raw, true); err != nil {
		tracker.Diagf("sot frame %d kalman update failed: %v", s.frameID, err)
	}

	s.box = s.kf.Box().Clamp(float32(s.imgWidth), float32(s.imgHeight))
	s.lastTracked = raw
	s.pushScore(score)
}

// lose moves a tracked target to lost with a position only update
func (s *SOT) lose(raw tracker.Rect) {

	tracker.Diagf("sot frame %d target occluded", s.frameID)

	s.lastReliable = s.box
	s.status = tracker.Lost
	s.lostFrames = 1

	if err := s.kf.Update(raw, false); err != nil {
		tracker.Diagf("sot frame %d kalman update failed: %v", s.frameID, err)
	}

	s.box = s.kf.Box().Clamp(float32(s.imgWidth), float32(s.imgHeight))
}

// missed handles a frame where the model found nothing
func (s *SOT) missed(pred tracker.Rect) {

	s.occluded = true
	s.score = 0

	if s.status == tracker.Tracked {
		s.lastReliable = s.box
		s.status = tracker.Lost
		s.lostFrames = 1
	} else {
		s.lostFrames++
	}

	s.box = pred.Clamp(float32(s.imgWidth), float32(s.imgHeight))
}

// scoreRatio compares the score with the average of recent tracked scores
// once enough history exists
func (s *SOT) scoreRatio(score float32) float32 {

	if len(s.scores) < s.cfg.ScoreWarmupFrames || len(s.scores) == 0 {
		return 1
	}

	var sum float32

	for _, v := range s.scores {
		sum += v
	}

	avg := sum / float32(len(s.scores))

	if avg <= 0 {
		return 1
	}

	return score / avg
}

func (s *SOT) pushScore(score float32) {

	s.scores = append(s.scores, score)

	if over := len(s.scores) - s.cfg.ScoreHistorySize; over > 0 {
		s.scores = s.scores[over:]
	}
}

// reportedStatus is the status given to callers.  A briefly lost target
// that is not occluded is still reported as tracked.
func (s *SOT) reportedStatus() tracker.Status {

	if s.status == tracker.Lost && !s.occluded &&
		s.lostFrames <= s.cfg.LostGraceFrames {
		return tracker.Tracked
	}

	return s.status
}

func (s *SOT) info() tracker.TrackerInfo {

	vx, vy := s.kf.Velocity()

	return tracker.TrackerInfo{
		TrackID:    1,
		Box:        s.box,
		Score:      s.score,
		ObjectType: s.objType,
		ClassID:    s.classID,
		Status:     s.reportedStatus(),
		ObjIdx:     -1,
		VelocityX:  vx,
		VelocityY:  vy,
		PairIdx:    -1,
	}
}

// aspectDrift is the relative change of width to height ratio
func aspectDrift(box, ref tracker.Rect) float32 {

	if box.Height() <= 0 || ref.Height() <= 0 || ref.Width() <= 0 {
		return 0
	}

	ar := box.Width() / box.Height()
	refAr := ref.Width() / ref.Height()

	return float32(math.Abs(float64(ar-refAr))) / refAr
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
