package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-edgetrack/tracker"
)

func decodeResults(t *testing.T, out []byte) []resultRecord {
	t.Helper()

	var recs []resultRecord
	scanner := newLineScanner(bytes.NewReader(out))

	for scanner.Scan() {
		var rec resultRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		recs = append(recs, rec)
	}

	require.NoError(t, scanner.Err())

	return recs
}

func TestRunMOTChannels(t *testing.T) {
	input := strings.Join([]string{
		`{"channel":"cam1","frame_id":0,"width":640,"height":480,"detections":[{"class_id":0,"object_type":"person","box":{"x1":100,"y1":100,"x2":150,"y2":200},"score":0.9}]}`,
		`{"channel":"cam2","frame_id":0,"detections":[{"class_id":2,"object_type":"car","box":{"x1":10,"y1":10,"x2":110,"y2":90},"score":0.8}]}`,
		``,
		`{"channel":"cam1","frame_id":1,"width":640,"height":480,"detections":[{"class_id":0,"object_type":"person","box":{"x1":102,"y1":100,"x2":152,"y2":200},"score":0.9}]}`,
		`{"channel":"cam2","frame_id":1,"detections":[]}`,
	}, "\n")

	var out bytes.Buffer
	frames := 0

	opts := motOptions{Width: 320, Height: 240, Queue: 2}

	err := runMOT(context.Background(), strings.NewReader(input), &out, opts,
		tracker.DefaultMOTConfig(), nil, func() { frames++ })
	require.NoError(t, err)
	assert.Equal(t, 4, frames)

	byChannel := make(map[string][]resultRecord)

	for _, rec := range decodeResults(t, out.Bytes()) {
		byChannel[rec.Channel] = append(byChannel[rec.Channel], rec)
	}

	require.Len(t, byChannel["cam1"], 2)
	require.Len(t, byChannel["cam2"], 2)

	cam1 := byChannel["cam1"]
	assert.EqualValues(t, 0, cam1[0].FrameID)
	assert.EqualValues(t, 1, cam1[1].FrameID)
	require.Len(t, cam1[1].Results, 1)
	assert.Equal(t, tracker.Tracked, cam1[1].Results[0].Status)
	assert.EqualValues(t, 1, cam1[1].Results[0].TrackID)

	// each channel has its own id sequence
	want := []tracker.TrackerInfo{{
		TrackID:    1,
		Box:        tracker.NewRect(10, 10, 110, 90),
		Score:      0.8,
		ObjectType: tracker.Car,
		ClassID:    2,
		Status:     tracker.New,
		ObjIdx:     0,
		PairIdx:    -1,
	}}

	if diff := cmp.Diff(want, byChannel["cam2"][0].Results); diff != "" {
		t.Errorf("cam2 results mismatch (-want +got):\n%s", diff)
	}

	// the unconfirmed car is removed without a detection
	assert.Empty(t, byChannel["cam2"][1].Results)
}

func TestRunMOTMissingImageSize(t *testing.T) {
	input := `{"frame_id":0,"detections":[]}`

	var out bytes.Buffer

	err := runMOT(context.Background(), strings.NewReader(input), &out,
		motOptions{}, tracker.DefaultMOTConfig(), nil, nil)
	assert.ErrorIs(t, err, tracker.ErrImageSizeNotSet)
}

func TestRunMOTBadInput(t *testing.T) {
	var out bytes.Buffer

	err := runMOT(context.Background(), strings.NewReader("{not json"), &out,
		motOptions{Width: 640, Height: 480}, tracker.DefaultMOTConfig(), nil, nil)
	assert.ErrorContains(t, err, "line 1")

	err = runMOT(context.Background(), strings.NewReader(""), &out,
		motOptions{Pairs: "face:car"}, tracker.DefaultMOTConfig(), nil, nil)
	assert.NoError(t, err)

	err = runMOT(context.Background(), strings.NewReader(`{"frame_id":0,"detections":[]}`), &out,
		motOptions{Width: 640, Height: 480, Pairs: "face:car"}, tracker.DefaultMOTConfig(), nil, nil)
	assert.ErrorIs(t, err, tracker.ErrInvalidConfig)
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs("face:person, plate:car")
	require.NoError(t, err)
	assert.Equal(t, map[tracker.ObjectType]tracker.ObjectType{
		tracker.Face:         tracker.Person,
		tracker.LicensePlate: tracker.Car,
	}, pairs)

	pairs, err = parsePairs("")
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = parsePairs("face")
	assert.Error(t, err)

	_, err = parsePairs("face:alien")
	assert.Error(t, err)
}

func TestParseBox(t *testing.T) {
	box, err := parseBox("10, 20, 110, 220")
	require.NoError(t, err)
	assert.Equal(t, tracker.NewRect(10, 20, 110, 220), box)

	_, err = parseBox("10,20,110")
	assert.Error(t, err)

	_, err = parseBox("110,20,10,220")
	assert.Error(t, err)

	_, err = parseBox("a,b,c,d")
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("ops,diag"))
	assert.NoError(t, setupLogging(""))
	assert.Error(t, setupLogging("verbose"))
}
