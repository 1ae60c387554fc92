// Command edgetrack runs the multi and single object trackers offline over
// recorded detections and video files.
package main

func main() {
	Execute()
}
