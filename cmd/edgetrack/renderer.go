package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/swdee/go-edgetrack/render"
	"github.com/swdee/go-edgetrack/tracker"
)

// trailMaxAge is the number of frames a trail survives without its track
const trailMaxAge = 30

// renderer draws tracker results over the frames of a source video
type renderer struct {
	vc   *gocv.VideoCapture
	vw   *gocv.VideoWriter
	out  string
	fps  float64
	img  gocv.Mat
	next uint64

	trail *tracker.Trail
	font  render.Font
	style render.BoxStyle
}

// newRenderer opens the source video, the output is created on the first
// frame once its size is known
func newRenderer(videoPath, outPath string) (*renderer, error) {

	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		fps = 25
	}

	return &renderer{
		vc:    vc,
		out:   outPath,
		fps:   fps,
		img:   gocv.NewMat(),
		trail: tracker.NewTrail(50),
		font:  render.DefaultFont(),
		style: render.DefaultBoxStyle(),
	}, nil
}

// Size returns the source video frame dimensions
func (r *renderer) Size() (int, int) {
	return int(r.vc.Get(gocv.VideoCaptureFrameWidth)),
		int(r.vc.Get(gocv.VideoCaptureFrameHeight))
}

// FrameCount returns the number of frames reported by the source video
func (r *renderer) FrameCount() int {
	return int(r.vc.Get(gocv.VideoCaptureFrameCount))
}

// read advances the source video to the frame id
func (r *renderer) read(frameID uint64) error {

	if frameID < r.next {
		return fmt.Errorf("frame %d out of order, video at frame %d", frameID, r.next)
	}

	for r.next <= frameID {
		if ok := r.vc.Read(&r.img); !ok || r.img.Empty() {
			return fmt.Errorf("video ended before frame %d", frameID)
		}
		r.next++
	}

	return nil
}

// write saves the current frame to the output video
func (r *renderer) write() error {

	if r.vw == nil {
		vw, err := gocv.VideoWriterFile(r.out, "MJPG", r.fps, r.img.Cols(),
			r.img.Rows(), true)

		if err != nil {
			return fmt.Errorf("failed to create render video: %w", err)
		}

		r.vw = vw
	}

	return r.vw.Write(r.img)
}

// Draw renders the multi object tracker results of a frame
func (r *renderer) Draw(frameID uint64, results []tracker.TrackerInfo) error {

	if err := r.read(frameID); err != nil {
		return err
	}

	r.trail.Add(results, frameID, trailMaxAge)

	render.Trail(&r.img, results, r.trail, render.DefaultTrailStyle())
	render.PairLinks(&r.img, results, render.Yellow, 1)
	render.TrackerBoxes(&r.img, results, r.font, r.style)

	return r.write()
}

// Close releases the video files
func (r *renderer) Close() error {
	if r.vw != nil {
		r.vw.Close()
	}

	r.img.Close()

	return r.vc.Close()
}
