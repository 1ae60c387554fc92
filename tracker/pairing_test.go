package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairScore_FaceInPerson(t *testing.T) {
	face := NewRect(40, 10, 60, 40)
	person := NewRect(0, 0, 100, 200)

	score := PairScore(Face, face, Person, person)
	assert.Greater(t, score, float32(0.5))

	// argument order does not matter
	assert.InDelta(t, score, PairScore(Person, person, Face, face), 1e-6)
}

func TestPairScore_HardRejects(t *testing.T) {
	person := NewRect(0, 0, 100, 200)

	tests := []struct {
		name     string
		partType ObjectType
		part     Rect
		whole    ObjectType
	}{
		{"type pair not allowed", Face, NewRect(40, 10, 60, 40), Car},
		{"same type", Person, NewRect(0, 0, 100, 200), Person},
		{"face outside person", Face, NewRect(140, 10, 160, 40), Person},
		{"face at feet", Face, NewRect(40, 160, 60, 190), Person},
		{"face too wide", Face, NewRect(0, 0, 95, 60), Person},
		{"face off center", Face, NewRect(88, 10, 98, 30), Person},
		{"undefined", Undefined, NewRect(40, 10, 60, 40), Person},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Zero(t, PairScore(tc.partType, tc.part, tc.whole, person))
		})
	}
}

func TestPairScore_PlateInCar(t *testing.T) {
	car := NewRect(100, 100, 300, 250)
	plate := NewRect(180, 220, 220, 235)

	assert.Greater(t, PairScore(LicensePlate, plate, Car, car), float32(0.5))

	// plate on the roof is rejected
	roof := NewRect(180, 105, 220, 120)
	assert.Zero(t, PairScore(LicensePlate, roof, Car, car))
}

func TestPairScore_PrefersCenteredFace(t *testing.T) {
	person := NewRect(0, 0, 100, 200)

	centered := PairScore(Face, NewRect(40, 10, 60, 40), Person, person)
	shifted := PairScore(Face, NewRect(55, 10, 75, 40), Person, person)

	assert.Greater(t, centered, shifted)
}

func TestPairAllowed(t *testing.T) {
	assert.True(t, PairAllowed(Face, Person))
	assert.True(t, PairAllowed(Person, Head))
	assert.True(t, PairAllowed(Car, LicensePlate))
	assert.False(t, PairAllowed(Face, Head))
	assert.False(t, PairAllowed(Person, Car))
}

func TestPairScoreMatrix(t *testing.T) {
	faces := []Rect{NewRect(40, 10, 60, 40), NewRect(240, 10, 260, 40)}
	persons := []Rect{NewRect(200, 0, 300, 200), NewRect(0, 0, 100, 200)}

	scores := PairScoreMatrix(Face, faces, Person, persons)

	assert.Zero(t, scores[0][0])
	assert.Greater(t, scores[0][1], float32(0.5))
	assert.Greater(t, scores[1][0], float32(0.5))
	assert.Zero(t, scores[1][1])
}
