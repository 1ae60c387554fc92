package tracker

import "sync"

// Point represents the center of a tracked box in whole pixels
type Point struct {
	X, Y int
}

// history is the list of recent center points of one track
type history struct {
	points []Point
	// lastFrame is the frame the track was last seen in
	lastFrame uint64
}

// Trail keeps the recent center point history of each track, used for
// drawing motion trails.  It is safe for concurrent use by a tracker
// goroutine and a renderer.
type Trail struct {
	// size is the maximum number of most recent points to keep per track
	size int
	// tracks maps track id to its point history
	tracks map[uint64]*history
	sync.Mutex
}

// NewTrail returns a new trail instance keeping at most size points per
// track
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		tracks: make(map[uint64]*history),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.tracks = make(map[uint64]*history)
}

// Add records the center of every result box for the given frame and drops
// the history of tracks not seen for more than maxAge frames
func (t *Trail) Add(results []TrackerInfo, frameID uint64, maxAge uint64) {
	t.Lock()
	defer t.Unlock()

	for _, res := range results {

		if res.TrackID == 0 || res.Status == Removed {
			continue
		}

		h, exists := t.tracks[res.TrackID]

		if !exists {
			h = &history{}
			t.tracks[res.TrackID] = h
		}

		h.lastFrame = frameID
		h.points = append(h.points, Point{
			X: int(res.Box.CenterX()),
			Y: int(res.Box.CenterY()),
		})

		if len(h.points) > t.size {
			h.points = h.points[1:]
		}
	}

	for id, h := range t.tracks {
		if frameID > h.lastFrame && frameID-h.lastFrame > maxAge {
			delete(t.tracks, id)
		}
	}
}

// GetPoints returns a copy of the point history of a track
func (t *Trail) GetPoints(id uint64) []Point {
	t.Lock()
	defer t.Unlock()

	h, exists := t.tracks[id]

	if !exists {
		return nil
	}

	points := make([]Point, len(h.points))
	copy(points, h.points)

	return points
}

// Len returns the number of tracks with history
func (t *Trail) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.tracks)
}
