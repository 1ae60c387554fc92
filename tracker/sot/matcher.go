package sot

import (
	"image"

	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

// TemplateMatcher is a Model using normalized cross correlation of the
// target appearance over the search crop.  It does not estimate scale.
type TemplateMatcher struct {
	templ  gocv.Mat
	result gocv.Mat
	mask   gocv.Mat
}

// NewTemplateMatcher returns a template matching model
func NewTemplateMatcher() *TemplateMatcher {
	return &TemplateMatcher{
		templ:  gocv.NewMat(),
		result: gocv.NewMat(),
		mask:   gocv.NewMat(),
	}
}

// Init keeps the target region of the template crop as the template
func (m *TemplateMatcher) Init(template gocv.Mat, target tracker.Rect) error {

	rect := image.Rect(int(target.X1), int(target.Y1), int(target.X2),
		int(target.Y2)).Intersect(image.Rect(0, 0, template.Cols(), template.Rows()))

	if rect.Dx() < 1 || rect.Dy() < 1 {
		return tracker.ErrNotInitialized
	}

	region := template.Region(rect)
	defer region.Close()

	m.templ.Close()
	m.templ = region.Clone()

	return nil
}

// Infer returns the best match location, or nothing if the search crop is
// smaller than the template
func (m *TemplateMatcher) Infer(search gocv.Mat) ([]Candidate, error) {

	if m.templ.Empty() {
		return nil, tracker.ErrNotInitialized
	}

	if search.Cols() < m.templ.Cols() || search.Rows() < m.templ.Rows() {
		return nil, nil
	}

	gocv.MatchTemplate(search, m.templ, &m.result, gocv.TmCcoeffNormed, m.mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(m.result)

	score := maxVal

	if score < 0 {
		score = 0
	}

	return []Candidate{{
		Box: tracker.NewRect(float32(maxLoc.X), float32(maxLoc.Y),
			float32(maxLoc.X+m.templ.Cols()), float32(maxLoc.Y+m.templ.Rows())),
		Score: score,
	}}, nil
}

// Close frees the template memory
func (m *TemplateMatcher) Close() error {
	m.templ.Close()
	m.mask.Close()
	return m.result.Close()
}
