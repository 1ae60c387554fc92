package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrail(t *testing.T) {
	trail := NewTrail(3)

	for frame := uint64(1); frame <= 5; frame++ {
		x := float32(frame * 10)
		trail.Add([]TrackerInfo{
			{TrackID: 1, Box: NewRect(x, 0, x+10, 10), Status: Tracked},
		}, frame, 30)
	}

	assert.Equal(t, []Point{{35, 5}, {45, 5}, {55, 5}}, trail.GetPoints(1))
	assert.Nil(t, trail.GetPoints(2))

	// history expires once the track is not seen for maxAge frames
	trail.Add(nil, 40, 30)
	assert.Equal(t, 0, trail.Len())
}

func TestTrailSkipsRemoved(t *testing.T) {
	trail := NewTrail(10)
	trail.Add([]TrackerInfo{
		{TrackID: 7, Box: NewRect(0, 0, 10, 10), Status: Removed},
		{TrackID: 0, Box: NewRect(0, 0, 10, 10), Status: Tracked},
	}, 1, 30)

	assert.Equal(t, 0, trail.Len())

	trail.Add([]TrackerInfo{{TrackID: 3, Box: NewRect(0, 0, 10, 10)}}, 2, 30)
	trail.Reset()
	assert.Equal(t, 0, trail.Len())
}
