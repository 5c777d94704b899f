package sim

// Input is the latest-wins input record for one participant. Every received
// input message replaces the whole record; nothing is queued or replayed, so
// only the most recent input is honored on the next tick.
type Input struct {
	Forward   bool
	Backward  bool
	Left      bool
	Right     bool
	Jump      bool
	Dash      bool
	CameraYaw float64
}
