package frontend

// Detection is a positive wake-word result.
type Detection struct {
	WakeWordIndex int
	VolumeDB      float32
}

// Detector is a wake-word engine fed one processed frame at a time. Detect
// runs on the capture goroutine and must not block.
type Detector interface {
	Detect(frame []int16) (Detection, bool)
}

// ReconfigurableDetector is an optional detector capability for applying a
// new wake-word configuration without recreating the engine.
type ReconfigurableDetector interface {
	Detector
	Reconfigure(cfg WakeupConfig) error
}
