package tracker

// verticalZone is the part of a whole object's box where the center of its
// paired part is expected
type verticalZone int

const (
	zoneTop    verticalZone = 1
	zoneBottom verticalZone = 2
)

// pairRule describes the expected geometry of a part object (face, head,
// plate) inside its whole object (person, vehicle)
type pairRule struct {
	part  ObjectType
	whole ObjectType
	zone  verticalZone
	// zoneHeight is the fraction of the whole's height, measured from the
	// zone edge, the part center must lie within
	zoneHeight float32
	// xTolerance is the maximum horizontal center offset as a fraction of
	// the whole's width
	xTolerance float32
	// minWidthRatio and maxWidthRatio bound part width / whole width
	minWidthRatio float32
	maxWidthRatio float32
}

// minPartInside is the minimum fraction of the part's area that must lie
// inside the whole's box
const minPartInside = 0.7

var pairRules = []pairRule{
	{Face, Person, zoneTop, 0.35, 0.35, 0.05, 0.8},
	{Head, Person, zoneTop, 0.35, 0.35, 0.05, 0.9},
	{Face, Pedestrian, zoneTop, 0.35, 0.35, 0.05, 0.8},
	{Head, Pedestrian, zoneTop, 0.35, 0.35, 0.05, 0.9},
	{LicensePlate, Car, zoneBottom, 0.5, 0.45, 0.05, 0.6},
	{LicensePlate, Bus, zoneBottom, 0.5, 0.45, 0.03, 0.5},
	{LicensePlate, Truck, zoneBottom, 0.5, 0.45, 0.03, 0.5},
}

// findPairRule returns the rule for the two types in either order and
// whether a is the part
func findPairRule(a, b ObjectType) (pairRule, bool, bool) {
	for _, rule := range pairRules {
		if rule.part == a && rule.whole == b {
			return rule, true, true
		}
		if rule.part == b && rule.whole == a {
			return rule, false, true
		}
	}
	return pairRule{}, false, false
}

// PairAllowed reports whether detections of the two object types can be
// fused as a pair
func PairAllowed(a, b ObjectType) bool {
	_, _, ok := findPairRule(a, b)
	return ok
}

// PairScore returns a score in [0, 1] of how likely the two boxes belong to
// the same physical object, such as a face and the person it belongs to.
// Type combinations not on the allow list and implausible geometry score 0.
func PairScore(aType ObjectType, a Rect, bType ObjectType, b Rect) float32 {

	rule, aIsPart, ok := findPairRule(aType, bType)

	if !ok || !a.Valid() || !b.Valid() {
		return 0
	}

	part, whole := a, b

	if !aIsPart {
		part, whole = b, a
	}

	inside := IoUOnFirst(part, whole)

	if inside < minPartInside {
		return 0
	}

	widthRatio := part.Width() / whole.Width()

	if widthRatio < rule.minWidthRatio || widthRatio > rule.maxWidthRatio {
		return 0
	}

	dx := part.CenterX() - whole.CenterX()
	if dx < 0 {
		dx = -dx
	}
	dx /= whole.Width()

	if dx > rule.xTolerance {
		return 0
	}

	var dy float32

	switch rule.zone {
	case zoneTop:
		dy = (part.CenterY() - whole.Y1) / whole.Height()
	case zoneBottom:
		dy = (whole.Y2 - part.CenterY()) / whole.Height()
	}

	if dy < 0 || dy > rule.zoneHeight {
		return 0
	}

	score := 0.5*(1-dx/rule.xTolerance) + 0.5*(1-dy/rule.zoneHeight)

	return inside * score
}

// PairScoreMatrix calculates the pair score between every box of two object
// types, rows indexed by aRects and columns by bRects
func PairScoreMatrix(aType ObjectType, aRects []Rect, bType ObjectType,
	bRects []Rect) [][]float32 {

	var scores [][]float32

	if len(aRects)*len(bRects) == 0 {
		return scores
	}

	scores = make([][]float32, len(aRects))

	for ai := range aRects {
		scores[ai] = make([]float32, len(bRects))

		for bi := range bRects {
			scores[ai][bi] = PairScore(aType, aRects[ai], bType, bRects[bi])
		}
	}

	return scores
}
