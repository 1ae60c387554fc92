package tracker

import (
	"fmt"
	"strings"
)

// ObjectType is the semantic type of a detected object.  Tracks are only
// matched against detections of the same type, and pairs of types can be
// declared to fuse with each other
type ObjectType int

const (
	Undefined ObjectType = iota
	Face
	Head
	Person
	Pedestrian
	Pet
	Car
	Bus
	Truck
	Motorbike
	Bicycle
	LicensePlate
	Hand
)

var objectTypeNames = map[ObjectType]string{
	Undefined:    "undefined",
	Face:         "face",
	Head:         "head",
	Person:       "person",
	Pedestrian:   "pedestrian",
	Pet:          "pet",
	Car:          "car",
	Bus:          "bus",
	Truck:        "truck",
	Motorbike:    "motorbike",
	Bicycle:      "bicycle",
	LicensePlate: "plate",
	Hand:         "hand",
}

// String returns the lower case name of the object type
func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("objecttype(%d)", int(t))
}

// ParseObjectType converts a name as returned by String() back into its
// ObjectType
func ParseObjectType(name string) (ObjectType, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for t, n := range objectTypeNames {
		if n == name {
			return t, nil
		}
	}

	return Undefined, fmt.Errorf("unknown object type %q", name)
}

// MarshalText implements encoding.TextMarshaler so object types are written
// by name in JSON
func (t ObjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ObjectType) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Detection is a single object detected in a frame, supplied by the
// inference pipeline
type Detection struct {
	// ClassID is the model specific class label
	ClassID int `json:"class_id"`
	// ObjectType is the semantic type used for matching and pair fusion
	ObjectType ObjectType `json:"object_type"`
	// Box is the bounding box in pixel coordinates
	Box Rect `json:"box"`
	// Score is the detection confidence in the range [0, 1]
	Score float32 `json:"score"`
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(classID int, objType ObjectType, x1, y1, x2, y2,
	score float32) Detection {

	return Detection{
		ClassID:    classID,
		ObjectType: objType,
		Box:        NewRect(x1, y1, x2, y2),
		Score:      score,
	}
}
