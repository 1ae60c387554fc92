package sot

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/swdee/go-edgetrack/tracker"
)

// scriptedModel reports the target at the center of the search crop with
// the score scripted for each call, a negative score reports nothing
type scriptedModel struct {
	target tracker.Rect
	scores []float32
	calls  int
	err    error
}

func (m *scriptedModel) Init(template gocv.Mat, target tracker.Rect) error {
	m.target = target
	return nil
}

func (m *scriptedModel) Infer(search gocv.Mat) ([]Candidate, error) {
	i := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	score := float32(0.95)

	if i < len(m.scores) {
		score = m.scores[i]
	}

	if score < 0 {
		return nil, nil
	}

	c := float32(search.Cols()) / 2
	r := float32(search.Rows()) / 2

	return []Candidate{{
		Box:   tracker.RectFromCenter(c, r, m.target.Width(), m.target.Height()),
		Score: score,
	}}, nil
}

func newFrame() gocv.Mat {
	return gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
}

func newTestSOT(t *testing.T, model Model) *SOT {
	t.Helper()

	s, err := New(model, tracker.DefaultSOTConfig())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestTrackRequiresInitialization(t *testing.T) {
	s := newTestSOT(t, &scriptedModel{})

	frame := newFrame()
	defer frame.Close()

	_, err := s.Track(frame, 0)
	assert.ErrorIs(t, err, tracker.ErrNotInitialized)
	assert.Equal(t, tracker.SingleObject, s.Kind())
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(nil, tracker.DefaultSOTConfig())
	assert.ErrorIs(t, err, tracker.ErrInvalidConfig)
}

func TestInitializeClampsAndMinSizes(t *testing.T) {
	s := newTestSOT(t, &scriptedModel{})

	frame := newFrame()
	defer frame.Close()

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(300, 200, 302, 203), 0))
	assert.InDelta(t, 8, s.Box().Width(), 1e-4)
	assert.InDelta(t, 8, s.Box().Height(), 1e-4)

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(600, 400, 700, 500), 0))
	assert.Equal(t, tracker.NewRect(600, 400, 640, 480), s.Box())
	assert.Equal(t, tracker.Tracked, s.Status())

	err := s.InitializeWithBox(frame, tracker.NewRect(700, 500, 800, 600), 0)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestInitializeWithPoint(t *testing.T) {
	s := newTestSOT(t, &scriptedModel{})

	frame := newFrame()
	defer frame.Close()

	cands := []tracker.Detection{
		tracker.NewDetection(0, tracker.Person, 100, 100, 300, 400, 0.9),
		tracker.NewDetection(1, tracker.Face, 150, 110, 190, 160, 0.8),
		tracker.NewDetection(0, tracker.Person, 400, 100, 500, 400, 0.9),
	}

	// the smaller face wins over the person containing it
	require.NoError(t, s.InitializeWithPoint(frame, 170, 130, cands, 0))
	assert.Equal(t, cands[1].Box, s.Box())

	info, err := s.Track(frame, 1)
	require.NoError(t, err)
	assert.Equal(t, tracker.Face, info.ObjectType)
	assert.Equal(t, 1, info.ClassID)

	err = s.InitializeWithPoint(frame, 10, 10, cands, 0)
	assert.ErrorIs(t, err, ErrNoTarget)

	err = s.InitializeWithDetection(frame, cands, 5, 0)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestTrackVanishAndReappear(t *testing.T) {

	const gap = 6

	// tracked for 10 frames, nothing for the gap, then back
	var scores []float32

	for i := 0; i < 10; i++ {
		scores = append(scores, 0.95)
	}

	for i := 0; i < gap; i++ {
		scores = append(scores, -1)
	}

	for i := 0; i < 5; i++ {
		scores = append(scores, 0.95)
	}

	model := &scriptedModel{scores: scores}
	s := newTestSOT(t, model)

	frame := newFrame()
	defer frame.Close()

	target := tracker.NewRect(200, 150, 260, 270)
	require.NoError(t, s.InitializeWithBox(frame, target, 0))

	for f := 1; f <= len(scores); f++ {
		info, err := s.Track(frame, uint64(f))
		require.NoError(t, err)

		switch {
		case f <= 10:
			assert.Equal(t, tracker.Tracked, info.Status, "frame %d", f)
			assert.Greater(t, tracker.IoU(target, info.Box), float32(0.9), "frame %d", f)

		case f <= 10+gap:
			assert.Equal(t, tracker.Lost, info.Status, "frame %d", f)
			assert.Equal(t, float32(0), info.Score)

		default:
			assert.Equal(t, tracker.Tracked, info.Status, "frame %d", f)
			assert.InDelta(t, target.CenterX(), info.Box.CenterX(), 3, "frame %d", f)
			assert.InDelta(t, target.CenterY(), info.Box.CenterY(), 3, "frame %d", f)
		}
	}
}

func TestTrackLowScoreIsLost(t *testing.T) {
	scores := []float32{0.95, 0.95, 0.95, 0.95, 0.95, 0.95, 0.05, 0.05, 0.05, 0.05, 0.05}

	s := newTestSOT(t, &scriptedModel{scores: scores})

	frame := newFrame()
	defer frame.Close()

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(200, 150, 260, 270), 0))

	for f := 1; f <= len(scores); f++ {
		info, err := s.Track(frame, uint64(f))
		require.NoError(t, err)

		if f <= 6 {
			assert.Equal(t, tracker.Tracked, info.Status, "frame %d", f)
		} else {
			assert.Equal(t, tracker.Lost, info.Status, "frame %d", f)
		}
	}

	// search anchor grows while lost, capped
	assert.Equal(t, 5, s.lostFrames)
	assert.InDelta(t, 1.5, s.anchor().Width()/s.lastReliable.Width(), 1e-4)
}

func TestLostPredictionStaysInImage(t *testing.T) {
	scores := []float32{0.95, 0.95, 0.95, 0.95, 0.95, 0.95, 0.05}

	s := newTestSOT(t, &scriptedModel{scores: scores})

	frame := newFrame()
	defer frame.Close()

	target := tracker.NewRect(200, 150, 260, 270)
	require.NoError(t, s.InitializeWithBox(frame, target, 0))

	for f := 1; f <= len(scores); f++ {
		_, err := s.Track(frame, uint64(f))
		require.NoError(t, err)
	}

	require.Equal(t, tracker.Lost, s.status)

	// a weak candidate while the prediction runs off the right edge
	s.assess(target, tracker.NewRect(600, 150, 700, 270), 0.05)

	assert.Equal(t, tracker.Lost, s.status)
	assert.Equal(t, 2, s.lostFrames)
	assert.Equal(t, tracker.NewRect(600, 150, 640, 270), s.box)
}

func TestTrackModelError(t *testing.T) {
	model := &scriptedModel{}
	s := newTestSOT(t, model)

	frame := newFrame()
	defer frame.Close()

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(200, 150, 260, 270), 0))

	model.err = errors.New("npu timeout")

	info, err := s.Track(frame, 1)
	require.NoError(t, err)
	assert.Equal(t, tracker.Lost, info.Status)
}

func TestTrackSkippedFrames(t *testing.T) {
	s := newTestSOT(t, &scriptedModel{})

	frame := newFrame()
	defer frame.Close()

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(200, 150, 260, 270), 0))

	info, err := s.Track(frame, 5)
	require.NoError(t, err)
	assert.Equal(t, tracker.Tracked, info.Status)

	// four replayed position only updates plus the real one
	assert.Equal(t, 5, s.kf.Updates())
}

func TestResetRequiresInitialization(t *testing.T) {
	s := newTestSOT(t, &scriptedModel{})

	frame := newFrame()
	defer frame.Close()

	require.NoError(t, s.InitializeWithBox(frame, tracker.NewRect(200, 150, 260, 270), 0))
	s.Reset()

	_, err := s.Track(frame, 1)
	assert.ErrorIs(t, err, tracker.ErrNotInitialized)
}

// drawTarget paints a textured target on a gray background
func drawTarget(img *gocv.Mat, box image.Rectangle) {
	gocv.Rectangle(img, image.Rect(0, 0, img.Cols(), img.Rows()),
		color.RGBA{R: 90, G: 90, B: 90, A: 255}, -1)
	gocv.Rectangle(img, box, color.RGBA{R: 250, G: 250, B: 250, A: 255}, -1)

	inner := image.Rect(box.Min.X+box.Dx()/3, box.Min.Y+box.Dy()/6,
		box.Max.X-box.Dx()/3, box.Max.Y-box.Dy()/6)
	gocv.Rectangle(img, inner, color.RGBA{R: 10, G: 10, B: 10, A: 255}, -1)
}

func TestTemplateMatcherFollowsTarget(t *testing.T) {
	matcher := NewTemplateMatcher()
	defer matcher.Close()

	s := newTestSOT(t, matcher)

	frame := newFrame()
	defer frame.Close()

	box := image.Rect(200, 150, 260, 210)
	drawTarget(&frame, box)

	require.NoError(t, s.InitializeWithBox(frame,
		tracker.NewRect(200, 150, 260, 210), 0))

	for f := 1; f <= 10; f++ {
		moved := box.Add(image.Pt(2*f, f))
		drawTarget(&frame, moved)

		info, err := s.Track(frame, uint64(f))
		require.NoError(t, err)

		want := tracker.NewRect(float32(moved.Min.X), float32(moved.Min.Y),
			float32(moved.Max.X), float32(moved.Max.Y))

		assert.Equal(t, tracker.Tracked, info.Status, "frame %d", f)
		assert.Greater(t, tracker.IoU(want, info.Box), float32(0.7), "frame %d", f)
	}
}

func TestTemplateMatcherNotInitialized(t *testing.T) {
	matcher := NewTemplateMatcher()
	defer matcher.Close()

	search := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC3)
	defer search.Close()

	_, err := matcher.Infer(search)
	assert.ErrorIs(t, err, tracker.ErrNotInitialized)
}
