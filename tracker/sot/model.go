package sot

import (
	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

// Candidate is a target location proposed by a Model
type Candidate struct {
	// Box is the target box in search crop pixel coordinates
	Box tracker.Rect
	// Score is the similarity of the candidate to the template in [0, 1]
	Score float32
}

// Model is a template/search similarity model such as a siamese network
// running on an NPU.  Init is called with the square template crop and the
// target location inside it, Infer with each square search crop.  The
// template and search crops share the same pixel scale.
type Model interface {
	Init(template gocv.Mat, target tracker.Rect) error
	Infer(search gocv.Mat) ([]Candidate, error)
}
