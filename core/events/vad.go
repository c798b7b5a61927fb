package events

const (
	// KindVadStarted identifies the start of voice activity.
	KindVadStarted Kind = "vad.started"
	// KindVadEnded identifies the end of voice activity.
	KindVadEnded Kind = "vad.ended"
)

// VadStarted marks when voice activity starts.
type VadStarted struct{ Base }

// NewVadStarted creates a voice activity started event.
func NewVadStarted() VadStarted {
	return VadStarted{Base: NewBase(KindVadStarted)}
}

// VadEnded marks when voice activity ends.
type VadEnded struct{ Base }

// NewVadEnded creates a voice activity ended event.
func NewVadEnded() VadEnded {
	return VadEnded{Base: NewBase(KindVadEnded)}
}
