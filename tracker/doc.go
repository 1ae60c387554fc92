/*
Package tracker holds the building blocks shared by the multi object (mot)
and single object (sot) trackers: bounding box geometry, the cross type
pairing heuristic, the Munkres assignment solver, the Xyah Kalman filter,
configuration and the logging streams.

Detections are supplied once per frame by the inference pipeline and results
are returned as a list of TrackerInfo.  A tracker instance is not safe for
concurrent use, run one instance per video channel.
*/
package tracker
