package mot

import (
	"github.com/swdee/go-edgetrack/tracker"
)

// PairCorrelation is the learned spatial relationship between a track and
// its partner track of another object type.  Offsets are the distance
// between the box centers and sizes the box dimensions, both relative to the
// partner's box dimensions.
type PairCorrelation struct {
	// PairTrackID is the id of the partner track
	PairTrackID uint64
	// PairType is the object type of the partner track
	PairType tracker.ObjectType
	// OffsetScaleX and OffsetScaleY are the center offsets from the partner
	OffsetScaleX float32
	OffsetScaleY float32
	// SizeScaleX and SizeScaleY are the width and height ratios to the
	// partner
	SizeScaleX float32
	SizeScaleY float32
	// Votes is the number of frames both sides were observed together
	Votes int
	// LastFrame is the frame of the most recent joint observation
	LastFrame uint64
}

// observe smooths a new joint observation of self and partner boxes into
// the correlation.  The first observation is taken as is.
func (c *PairCorrelation) observe(self, partner tracker.Rect, alpha float32,
	frameID uint64) {

	pw := partner.Width()
	ph := partner.Height()

	if pw <= 0 || ph <= 0 {
		return
	}

	ox := (self.CenterX() - partner.CenterX()) / pw
	oy := (self.CenterY() - partner.CenterY()) / ph
	sx := self.Width() / pw
	sy := self.Height() / ph

	if c.Votes == 0 {
		c.OffsetScaleX, c.OffsetScaleY = ox, oy
		c.SizeScaleX, c.SizeScaleY = sx, sy
	} else {
		c.OffsetScaleX = (1-alpha)*c.OffsetScaleX + alpha*ox
		c.OffsetScaleY = (1-alpha)*c.OffsetScaleY + alpha*oy
		c.SizeScaleX = (1-alpha)*c.SizeScaleX + alpha*sx
		c.SizeScaleY = (1-alpha)*c.SizeScaleY + alpha*sy
	}

	c.Votes++
	c.LastFrame = frameID
}

// Impute synthesizes the box of this side from the partner's box
func (c *PairCorrelation) Impute(partner tracker.Rect) tracker.Rect {
	pw := partner.Width()
	ph := partner.Height()

	return tracker.RectFromCenter(
		partner.CenterX()+c.OffsetScaleX*pw,
		partner.CenterY()+c.OffsetScaleY*ph,
		c.SizeScaleX*pw,
		c.SizeScaleY*ph,
	)
}
