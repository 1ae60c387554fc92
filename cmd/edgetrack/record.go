package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/swdee/go-edgetrack/tracker"
)

const maxLineSize = 16 * 1024 * 1024

// frameRecord is one line of the detection input
type frameRecord struct {
	Channel    string              `json:"channel,omitempty"`
	FrameID    uint64              `json:"frame_id"`
	Width      int                 `json:"width,omitempty"`
	Height     int                 `json:"height,omitempty"`
	Detections []tracker.Detection `json:"detections"`
}

// resultRecord is one line of the tracking output
type resultRecord struct {
	Channel string                `json:"channel,omitempty"`
	FrameID uint64                `json:"frame_id"`
	Results []tracker.TrackerInfo `json:"results"`
}

// newLineScanner returns a scanner for JSON lines allowing large frames
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return scanner
}

// decodeFrame parses one input line
func decodeFrame(line []byte) (frameRecord, error) {
	var rec frameRecord

	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, fmt.Errorf("invalid frame record: %w", err)
	}

	return rec, nil
}

// parsePairs parses "face:person,plate:car" into a pair configuration
func parsePairs(s string) (map[tracker.ObjectType]tracker.ObjectType, error) {

	pairs := make(map[tracker.ObjectType]tracker.ObjectType)

	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)

		if p == "" {
			continue
		}

		parts := strings.Split(p, ":")

		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pair %q, expected priority:secondary", p)
		}

		prio, err := tracker.ParseObjectType(parts[0])
		if err != nil {
			return nil, err
		}

		sec, err := tracker.ParseObjectType(parts[1])
		if err != nil {
			return nil, err
		}

		pairs[prio] = sec
	}

	return pairs, nil
}

// parseBox parses "x1,y1,x2,y2" into a rectangle
func parseBox(s string) (tracker.Rect, error) {

	parts := strings.Split(s, ",")

	if len(parts) != 4 {
		return tracker.Rect{}, fmt.Errorf("invalid box %q, expected x1,y1,x2,y2", s)
	}

	var v [4]float32

	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return tracker.Rect{}, fmt.Errorf("invalid box %q: %w", s, err)
		}
		v[i] = float32(f)
	}

	box := tracker.NewRect(v[0], v[1], v[2], v[3])

	if !box.Valid() {
		return tracker.Rect{}, fmt.Errorf("invalid box %q, x2,y2 must exceed x1,y1", s)
	}

	return box, nil
}
