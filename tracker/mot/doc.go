// Package mot implements multi object tracking of detector output.
//
// Detections of each object type are associated to Kalman predicted tracks
// by IoU in two tiers, high score detections first.  Configured pairs of
// object types, such as a face and the person it belongs to, are then matched
// to each other by geometry.  The learned offset and scale between the two
// tracks lets a paired track recover a detection the IoU gate missed, and
// keeps it alive with an imputed box while the detector misses it entirely.
package mot
