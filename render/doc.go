// Package render draws detections and tracker results onto GoCV images for
// visual inspection of tracking output.
package render
