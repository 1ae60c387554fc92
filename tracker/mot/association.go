package mot

import (
	"sort"

	"github.com/swdee/go-edgetrack/tracker"
)

// associate matches detections to tracks of the same type.  High score
// detections are matched first with a stricter gate, the tracks left over
// then get a chance at the low score detections.
func (m *MOT) associate(f *frame) {

	for _, typ := range sortedTypes(f.dets) {

		var slots []int

		for slot, t := range m.tracks {
			if t.objType == typ && t.status != tracker.Removed {
				slots = append(slots, slot)
			}
		}

		var high, low []int

		for i, d := range f.dets {
			if d.ObjectType != typ {
				continue
			}

			if d.Score >= m.cfg.HighScoreThresh {
				high = append(high, i)
			} else {
				low = append(low, i)
			}
		}

		remaining := m.matchTier(f, slots, high, func(iou float32) bool {
			return 1-iou < m.cfg.HighScoreIoUDistThresh && iou > m.cfg.MinMatchIoU
		})

		m.matchTier(f, remaining, low, func(iou float32) bool {
			return 1-iou < m.cfg.LowScoreIoUDistThresh
		})
	}
}

// matchTier solves the IoU assignment between the track slots and detection
// indices, returning the slots left unmatched
func (m *MOT) matchTier(f *frame, slots, dets []int,
	accept func(iou float32) bool) []int {

	if len(slots) == 0 || len(dets) == 0 {
		return slots
	}

	trackBoxes := make([]tracker.Rect, len(slots))
	detBoxes := make([]tracker.Rect, len(dets))

	for r, slot := range slots {
		trackBoxes[r] = m.tracks[slot].box
	}

	for c, i := range dets {
		detBoxes[c] = f.dets[i].Box
	}

	ious := tracker.IoUMatrix(trackBoxes, detBoxes)
	cost := make([][]float32, len(slots))

	for r := range ious {
		cost[r] = make([]float32, len(dets))

		for c, iou := range ious[r] {
			cost[r][c] = 1 - iou
		}
	}

	res, err := tracker.LinearAssignment(cost, len(slots), len(dets),
		func(r, c int) bool {
			return accept(ious[r][c])
		})

	if err != nil {
		tracker.Opsf("frame %d association failed: %v", m.frameID, err)
	}

	for _, p := range res.Pairs {
		f.match(dets[p[1]], slots[p[0]])
	}

	remaining := make([]int, 0, len(res.UnmatchedRows))

	for _, r := range res.UnmatchedRows {
		remaining = append(remaining, slots[r])
	}

	return remaining
}

// fusePairs matches detections of each configured type pair one to one,
// then uses the tracks' stored pairs to resolve conflicts and to recall
// detections the per type association missed
func (m *MOT) fusePairs(f *frame) {

	prios := make([]tracker.ObjectType, 0, len(m.pairConfig))

	for prio := range m.pairConfig {
		prios = append(prios, prio)
	}

	sort.Slice(prios, func(i, j int) bool { return prios[i] < prios[j] })

	for _, prio := range prios {
		m.pairDetections(f, prio, m.pairConfig[prio])
	}

	for _, pr := range f.pairs {
		sa, sb := f.detTrack[pr[0]], f.detTrack[pr[1]]

		switch {
		case sa >= 0 && sb >= 0:
			m.resolveConflict(m.tracks[sa], m.tracks[sb])

		case sa < 0 && sb >= 0:
			m.recall(f, pr[0], sb)

		case sa >= 0 && sb < 0:
			m.recall(f, pr[1], sa)
		}
	}
}

// pairDetections pairs the priority and secondary detections of the frame.
// A detection takes part in at most one pair per frame.
func (m *MOT) pairDetections(f *frame, prio, sec tracker.ObjectType) {

	var pIdx, sIdx []int

	for i, d := range f.dets {
		if f.detPair[i] >= 0 {
			continue
		}

		switch d.ObjectType {
		case prio:
			pIdx = append(pIdx, i)
		case sec:
			sIdx = append(sIdx, i)
		}
	}

	if len(pIdx) == 0 || len(sIdx) == 0 {
		return
	}

	pBoxes := make([]tracker.Rect, len(pIdx))
	sBoxes := make([]tracker.Rect, len(sIdx))

	for r, i := range pIdx {
		pBoxes[r] = f.dets[i].Box
	}

	for c, i := range sIdx {
		sBoxes[c] = f.dets[i].Box
	}

	scores := tracker.PairScoreMatrix(prio, pBoxes, sec, sBoxes)
	cost := make([][]float32, len(pIdx))

	for r := range scores {
		cost[r] = make([]float32, len(sIdx))

		for c, s := range scores[r] {
			if s <= m.cfg.PairScoreThresh {
				cost[r][c] = tracker.ForbiddenCost
			} else {
				cost[r][c] = 1 - s
			}
		}
	}

	res, err := tracker.LinearAssignment(cost, len(pIdx), len(sIdx),
		func(r, c int) bool {
			return scores[r][c] > m.cfg.PairScoreThresh
		})

	if err != nil {
		tracker.Opsf("frame %d pairing %s/%s failed: %v", m.frameID, prio, sec, err)
	}

	for _, p := range res.Pairs {
		f.pair(pIdx[p[0]], sIdx[p[1]])
	}
}

// resolveConflict clears the stored pairs of two tracks whose detections
// paired this frame when either track is paired with someone else
func (m *MOT) resolveConflict(a, b *Track) {

	conflict := (a.pair != nil && a.pair.PairTrackID != b.id) ||
		(b.pair != nil && b.pair.PairTrackID != a.id)

	if !conflict {
		return
	}

	tracker.Diagf("frame %d pair conflict between tracks %d and %d",
		m.frameID, a.id, b.id)

	m.unpair(a)
	m.unpair(b)
}

// recall assigns unmatched detection i to the stored pair partner of the
// track at slot, if that partner is still waiting for a detection
func (m *MOT) recall(f *frame, i, slot int) {

	ps := m.partner(m.tracks[slot])

	if ps < 0 || f.trackDet[ps] >= 0 {
		return
	}

	p := m.tracks[ps]

	if p.objType != f.dets[i].ObjectType {
		return
	}

	f.match(i, ps)

	tracker.Diagf("frame %d detection %d recalled to track %d via pair track %d",
		m.frameID, i, p.id, m.tracks[slot].id)
}
