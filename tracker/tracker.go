package tracker

import (
	"errors"

	"gocv.io/x/gocv"
)

var (
	// ErrImageSizeNotSet is returned when tracking is attempted before the
	// image dimensions are known
	ErrImageSizeNotSet = errors.New("image size not set")
	// ErrNotInitialized is returned when a single object tracker has no target
	ErrNotInitialized = errors.New("tracker not initialized")
	// ErrInvalidConfig is returned for configuration values out of range
	ErrInvalidConfig = errors.New("invalid tracker configuration")
)

// Kind identifies the tracker implementation
type Kind int

const (
	// MultiObject trackers follow every detection of a frame
	MultiObject Kind = 1
	// SingleObject trackers follow one target selected at initialization
	SingleObject Kind = 2
)

// Tracker is the behaviour shared by all tracker implementations
type Tracker interface {
	// Kind returns the tracker implementation type
	Kind() Kind
	// Reset clears all tracking state
	Reset()
}

// MultiTracker assigns identities to the detections of each frame
type MultiTracker interface {
	Tracker
	Track(detections []Detection, frameID uint64) ([]TrackerInfo, error)
}

// SingleTracker follows a single target through image frames
type SingleTracker interface {
	Tracker
	Track(frame gocv.Mat, frameID uint64) (TrackerInfo, error)
}
