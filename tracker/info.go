package tracker

import (
	"fmt"
)

// Status represents the lifecycle state of a track
type Status int

const (
	// New is a track created this frame which is not confirmed yet
	New Status = 0
	// Tracked is a confirmed track matched to a detection
	Tracked Status = 1
	// Lost is a confirmed track which missed its detection
	Lost Status = 2
	// Removed is a track that is terminated and will be erased
	Removed Status = 3
)

// String returns the name of the status
func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case Tracked:
		return "tracked"
	case Lost:
		return "lost"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{New, Tracked, Lost, Removed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

// TrackerInfo is a single tracking result for a frame
type TrackerInfo struct {
	// TrackID is the unique identity assigned to the object
	TrackID uint64 `json:"track_id"`
	// Box is the detection box, or the predicted box when the track was not
	// matched this frame
	Box Rect `json:"box"`
	// Score is the detection score, or the decayed track confidence
	Score float32 `json:"score"`
	// ObjectType of the tracked object
	ObjectType ObjectType `json:"object_type"`
	// ClassID is the model class label of the last matched detection
	ClassID int `json:"class_id"`
	// Status of the track at the end of the frame
	Status Status `json:"status"`
	// ObjIdx is the index of the input detection, or -1 when the track had
	// no detection this frame
	ObjIdx int `json:"obj_idx"`
	// VelocityX and VelocityY are the smoothed velocity in pixels per frame
	VelocityX float32 `json:"velocity_x"`
	VelocityY float32 `json:"velocity_y"`
	// PairIdx is the index of the detection of the paired track in this
	// frame, or -1
	PairIdx int `json:"pair_idx"`
	// PairTrackID is the track id of the paired object, 0 if unpaired
	PairTrackID uint64 `json:"pair_track_id,omitempty"`
}
