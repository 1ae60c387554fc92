package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-edgetrack/tracker"
	"gocv.io/x/gocv"
)

// PairLinks draws a line between the centers of each pair of fused tracks
// in the results, such as a face and the person it belongs to
func PairLinks(img *gocv.Mat, results []tracker.TrackerInfo, clr color.RGBA,
	lineThickness int) {

	byID := make(map[uint64]int, len(results))

	for i, r := range results {
		byID[r.TrackID] = i
	}

	for _, r := range results {
		if r.PairTrackID == 0 || r.TrackID > r.PairTrackID {
			continue
		}

		j, ok := byID[r.PairTrackID]
		if !ok {
			continue
		}

		p := results[j]

		gocv.Line(img,
			image.Pt(int(r.Box.CenterX()), int(r.Box.CenterY())),
			image.Pt(int(p.Box.CenterX()), int(p.Box.CenterY())),
			clr, lineThickness)
	}
}
