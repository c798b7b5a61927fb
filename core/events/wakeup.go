package events

// KindWakeupDetected identifies a wake-word detection.
const KindWakeupDetected Kind = "wake.detected"

// WakeupDetected carries a wake-word detection with the payload reported by
// the acoustic front end.
type WakeupDetected struct {
	Base
	// WakeWordIndex is the index of the detected word in the enrolled model.
	WakeWordIndex int
	// VolumeDB is the estimated signal volume at detection time, in dB.
	VolumeDB float32
}

// NewWakeupDetected creates a wake-word detection event.
func NewWakeupDetected(wakeWordIndex int, volumeDB float32) WakeupDetected {
	return WakeupDetected{
		Base:          NewBase(KindWakeupDetected),
		WakeWordIndex: wakeWordIndex,
		VolumeDB:      volumeDB,
	}
}
