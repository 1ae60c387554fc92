// Package sot implements single object tracking with a template/search
// similarity model, such as a siamese network, fused with a Kalman box
// tracker.  Occlusion and reappearance are judged per frame from the model
// score, its ratio to recent scores, agreement with the Kalman prediction
// and aspect ratio drift.
package sot
