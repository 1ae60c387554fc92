package mot

import (
	"github.com/swdee/go-edgetrack/tracker"
)

// frame holds the association bookkeeping of a single tracking cycle
type frame struct {
	dets []tracker.Detection
	// detTrack is the track slot assigned to each detection or -1
	detTrack []int
	// trackDet is the detection index assigned to each track slot or -1
	trackDet []int
	// detPair is the detection index paired with each detection or -1
	detPair []int
	// pairs lists the paired detections as [priority, secondary]
	pairs [][2]int
}

func newFrame(dets []tracker.Detection, numTracks int) *frame {

	f := &frame{
		dets:     dets,
		detTrack: make([]int, len(dets)),
		trackDet: make([]int, numTracks),
		detPair:  make([]int, len(dets)),
	}

	for i := range f.detTrack {
		f.detTrack[i] = -1
		f.detPair[i] = -1
	}

	for i := range f.trackDet {
		f.trackDet[i] = -1
	}

	return f
}

// match assigns detection i to track slot
func (f *frame) match(i, slot int) {
	f.detTrack[i] = slot
	f.trackDet[slot] = i
}

// addTrack grows the per track bookkeeping for a newly spawned track
func (f *frame) addTrack() {
	f.trackDet = append(f.trackDet, -1)
}

// pair links detections i and j
func (f *frame) pair(prio, sec int) {
	f.detPair[prio] = sec
	f.detPair[sec] = prio
	f.pairs = append(f.pairs, [2]int{prio, sec})
}
