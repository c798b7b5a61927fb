package events

const (
	// KindButtonTrigger identifies a button press or programmatic trigger.
	KindButtonTrigger Kind = "button.trigger"
	// KindButtonRelease identifies a button release.
	KindButtonRelease Kind = "button.release"
)

// ButtonTrigger marks a button press or a programmatic conversation trigger.
type ButtonTrigger struct{ Base }

// NewButtonTrigger creates a button trigger event.
func NewButtonTrigger() ButtonTrigger {
	return ButtonTrigger{Base: NewBase(KindButtonTrigger)}
}

// ButtonRelease marks a button release.
type ButtonRelease struct{ Base }

// NewButtonRelease creates a button release event.
func NewButtonRelease() ButtonRelease {
	return ButtonRelease{Base: NewBase(KindButtonRelease)}
}
