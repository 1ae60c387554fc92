package mot

import (
	"fmt"
	"sort"

	"github.com/swdee/go-edgetrack/tracker"
)

// MOT is a multi object tracker combining per type Kalman/IoU association
// with cross type pair fusion.  A pair of object types such as face and
// person are matched to each other every frame, the learned spatial
// relationship between the two tracks then keeps one side alive while
// the detector misses it.
//
// A MOT is not safe for concurrent use, run one instance per video channel.
type MOT struct {
	cfg   tracker.MOTConfig
	kf    *tracker.KalmanFilter
	idGen *tracker.IDGenerator

	// tracks is the arena of live tracks in creation order
	tracks []*Track
	// slotByID maps a track id to its index in tracks, rebuilt every frame
	slotByID map[uint64]int

	// pairConfig maps a priority type to its secondary type
	pairConfig map[tracker.ObjectType]tracker.ObjectType

	imgWidth  int
	imgHeight int
	frameID   uint64
}

var _ tracker.MultiTracker = (*MOT)(nil)

// New returns a multi object tracker for the given configuration
func New(cfg tracker.MOTConfig) (*MOT, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &MOT{
		cfg:        cfg,
		kf:         tracker.NewKalmanFilter(cfg.StdWeightPosition, cfg.StdWeightVelocity),
		idGen:      tracker.NewIDGenerator(),
		slotByID:   make(map[uint64]int),
		pairConfig: make(map[tracker.ObjectType]tracker.ObjectType),
	}, nil
}

// Kind returns tracker.MultiObject
func (m *MOT) Kind() tracker.Kind {
	return tracker.MultiObject
}

// Reset drops all tracks.  Track ids continue from where they were so an id
// is never handed out twice by the same tracker.
func (m *MOT) Reset() {
	tracker.Diagf("mot reset dropping %d tracks, last id %d", len(m.tracks),
		m.idGen.Last())

	m.tracks = nil
	m.slotByID = make(map[uint64]int)
	m.frameID = 0
}

// SetImgSize sets the dimensions of the frames detections come from
func (m *MOT) SetImgSize(width, height int) {
	m.imgWidth = width
	m.imgHeight = height
}

// SetConfig replaces the tuning parameters, existing tracks are kept
func (m *MOT) SetConfig(cfg tracker.MOTConfig) error {

	if err := cfg.Validate(); err != nil {
		return err
	}

	m.cfg = cfg
	m.kf = tracker.NewKalmanFilter(cfg.StdWeightPosition, cfg.StdWeightVelocity)

	for _, t := range m.tracks {
		t.kf = m.kf
	}

	return nil
}

// SetPairConfig sets which object types are fused, mapping a priority type
// to its secondary type, eg: Face to Person.  Each combination must have a
// pairing rule and may only be configured in one direction.
func (m *MOT) SetPairConfig(pairs map[tracker.ObjectType]tracker.ObjectType) error {

	cfg := make(map[tracker.ObjectType]tracker.ObjectType, len(pairs))

	for prio, sec := range pairs {
		if !tracker.PairAllowed(prio, sec) {
			return fmt.Errorf("%w: no pairing rule for %s and %s",
				tracker.ErrInvalidConfig, prio, sec)
		}

		if back, ok := pairs[sec]; ok && back == prio {
			return fmt.Errorf("%w: pair %s and %s configured in both directions",
				tracker.ErrInvalidConfig, prio, sec)
		}

		cfg[prio] = sec
	}

	m.pairConfig = cfg

	return nil
}

// FrameID returns the id of the last frame processed
func (m *MOT) FrameID() uint64 {
	return m.frameID
}

// Tracks returns a snapshot of all live tracks in creation order
func (m *MOT) Tracks() []TrackState {
	states := make([]TrackState, 0, len(m.tracks))

	for _, t := range m.tracks {
		states = append(states, t.State())
	}

	return states
}

// Track runs one tracking cycle over the detections of a frame.  Results
// hold one entry per detection that was assigned to a track, in detection
// order, followed by the live tracks that got no detection this frame.
func (m *MOT) Track(dets []tracker.Detection,
	frameID uint64) ([]tracker.TrackerInfo, error) {

	if m.imgWidth <= 0 || m.imgHeight <= 0 {
		return nil, tracker.ErrImageSizeNotSet
	}

	m.frameID = frameID
	m.indexTracks()

	f := newFrame(dets, len(m.tracks))

	m.predict()
	m.associate(f)
	m.fusePairs(f)
	m.updateTracks(f)

	results := m.results(f)

	m.eraseRemoved()

	tracker.Tracef("frame %d: %d detections, %d results, %d live tracks",
		frameID, len(dets), len(results), len(m.tracks))

	return results, nil
}

// indexTracks rebuilds the id to slot map
func (m *MOT) indexTracks() {
	m.slotByID = make(map[uint64]int, len(m.tracks))

	for slot, t := range m.tracks {
		m.slotByID[t.id] = slot
	}
}

// predict advances every track and removes those that left the image
func (m *MOT) predict() {

	img := tracker.NewRect(0, 0, float32(m.imgWidth), float32(m.imgHeight))

	for _, t := range m.tracks {
		t.predict(m.cfg.ConfidenceDecay)

		if tracker.IoUOnFirst(t.box, img) < m.cfg.BoundaryOverlapThresh {
			tracker.Diagf("track %d left the image at %v", t.id, t.box)
			t.status = tracker.Removed
		}
	}
}

// partner returns the slot of the track's active pair partner or -1 if it
// has none or the partner is gone
func (m *MOT) partner(t *Track) int {

	if t.pair == nil {
		return -1
	}

	slot, ok := m.slotByID[t.pair.PairTrackID]

	if !ok {
		tracker.Diagf("track %d refers to unknown pair track %d",
			t.id, t.pair.PairTrackID)
		return -1
	}

	if m.tracks[slot].status == tracker.Removed {
		return -1
	}

	return slot
}

// unpair clears the track's pair and the partner's back reference
func (m *MOT) unpair(t *Track) {

	if t.pair == nil {
		return
	}

	if slot, ok := m.slotByID[t.pair.PairTrackID]; ok {
		p := m.tracks[slot]

		if p.pair != nil && p.pair.PairTrackID == t.id {
			p.pair = nil
		}
	}

	t.pair = nil
}

// updateTracks applies real updates, spawns new tracks, learns pair
// correlations, imputes missed tracks from their partner and ages the rest
func (m *MOT) updateTracks(f *frame) {

	for i, slot := range f.detTrack {
		if slot >= 0 {
			m.tracks[slot].update(f.dets[i], m.frameID, m.cfg)
		}
	}

	m.spawnTracks(f)
	m.learnCorrelations(f)

	for slot, t := range m.tracks {
		if f.trackDet[slot] >= 0 || t.status == tracker.Removed {
			continue
		}

		if m.rescueFromPair(f, t) {
			continue
		}

		t.markMissed(m.cfg.MaxUnmatchedTimes)
	}
}

// spawnTracks starts tracks for unmatched detections with a high enough
// score
func (m *MOT) spawnTracks(f *frame) {

	for i, det := range f.dets {
		if f.detTrack[i] >= 0 || det.ObjectType == tracker.Undefined ||
			det.Score < m.cfg.TrackInitScoreThresh {
			continue
		}

		t := newTrack(m.idGen.GetNext(), det, m.frameID, m.kf)

		// a partner that is already tracked vouches for the new track
		if j := f.detPair[i]; j >= 0 && f.detTrack[j] >= 0 {
			p := m.tracks[f.detTrack[j]]

			if p.status == tracker.Tracked &&
				f.dets[j].Score > m.cfg.FastConfirmPairScore {
				t.status = tracker.Tracked
			}
		}

		m.tracks = append(m.tracks, t)
		slot := len(m.tracks) - 1
		m.slotByID[t.id] = slot

		f.addTrack()
		f.match(i, slot)

		tracker.Diagf("frame %d new %s track %d status %s", m.frameID,
			t.objType, t.id, t.status)
	}
}

// learnCorrelations links the tracks of every detection pair and folds the
// observed geometry into their correlations
func (m *MOT) learnCorrelations(f *frame) {

	for _, pr := range f.pairs {
		sa, sb := f.detTrack[pr[0]], f.detTrack[pr[1]]

		if sa < 0 || sb < 0 {
			continue
		}

		a, b := m.tracks[sa], m.tracks[sb]

		if a.status == tracker.Removed || b.status == tracker.Removed {
			continue
		}

		m.link(a, b)
		m.link(b, a)

		a.pair.observe(a.detBox, b.detBox, m.cfg.PairCorrelationAlpha, m.frameID)
		b.pair.observe(b.detBox, a.detBox, m.cfg.PairCorrelationAlpha, m.frameID)
	}
}

// link makes b the active partner of a, evicting any previous partner
func (m *MOT) link(a, b *Track) {

	if a.pair != nil && a.pair.PairTrackID == b.id {
		return
	}

	m.unpair(a)

	a.pair = &PairCorrelation{
		PairTrackID: b.id,
		PairType:    b.objType,
	}
}

// rescueFromPair imputes the box of an unmatched track from its partner's
// detection this frame.  Returns true if the track was updated.
func (m *MOT) rescueFromPair(f *frame, t *Track) bool {

	if t.status != tracker.Tracked && t.status != tracker.Lost {
		return false
	}

	if t.pair == nil || t.pair.Votes < m.cfg.MinPairVotes {
		return false
	}

	ps := m.partner(t)

	if ps < 0 {
		return false
	}

	di := f.trackDet[ps]

	if di < 0 {
		return false
	}

	box := t.pair.Impute(f.dets[di].Box)

	if !box.Valid() {
		return false
	}

	t.falseUpdate(box, m.cfg)

	tracker.Diagf("frame %d track %d rescued from pair track %d",
		m.frameID, t.id, m.tracks[ps].id)

	return true
}

// results builds the output records for the frame
func (m *MOT) results(f *frame) []tracker.TrackerInfo {

	results := make([]tracker.TrackerInfo, 0, len(m.tracks))

	for i, det := range f.dets {
		slot := f.detTrack[i]

		if slot < 0 {
			continue
		}

		t := m.tracks[slot]
		info := m.info(f, t)
		info.Box = det.Box
		info.Score = det.Score
		info.ClassID = det.ClassID
		info.ObjIdx = i

		results = append(results, info)
	}

	for slot, t := range m.tracks {
		if f.trackDet[slot] >= 0 || t.status == tracker.Removed {
			continue
		}

		results = append(results, m.info(f, t))
	}

	return results
}

// info returns the output record of a track from its state estimate
func (m *MOT) info(f *frame, t *Track) tracker.TrackerInfo {

	info := tracker.TrackerInfo{
		TrackID:    t.id,
		Box:        t.box,
		Score:      t.confidence,
		ObjectType: t.objType,
		ClassID:    t.classID,
		Status:     t.status,
		ObjIdx:     -1,
		VelocityX:  t.velX,
		VelocityY:  t.velY,
		PairIdx:    -1,
	}

	if ps := m.partner(t); ps >= 0 {
		info.PairTrackID = t.pair.PairTrackID
		info.PairIdx = f.trackDet[ps]
	}

	return info
}

// eraseRemoved drops removed tracks from the arena and clears pair
// references to them
func (m *MOT) eraseRemoved() {

	removed := make(map[uint64]struct{})
	live := m.tracks[:0]

	for _, t := range m.tracks {
		if t.status == tracker.Removed {
			removed[t.id] = struct{}{}
			continue
		}

		live = append(live, t)
	}

	// release pointers held past the new length
	for i := len(live); i < len(m.tracks); i++ {
		m.tracks[i] = nil
	}

	m.tracks = live

	if len(removed) == 0 {
		return
	}

	for _, t := range m.tracks {
		if t.pair == nil {
			continue
		}

		if _, ok := removed[t.pair.PairTrackID]; ok {
			t.pair = nil
		}
	}

	m.indexTracks()
}

// sortedTypes returns the distinct object types of the detections in
// ascending order, Undefined is skipped
func sortedTypes(dets []tracker.Detection) []tracker.ObjectType {

	seen := make(map[tracker.ObjectType]struct{})
	var types []tracker.ObjectType

	for _, d := range dets {
		if d.ObjectType == tracker.Undefined {
			continue
		}

		if _, ok := seen[d.ObjectType]; !ok {
			seen[d.ObjectType] = struct{}{}
			types = append(types, d.ObjectType)
		}
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
