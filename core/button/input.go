// Package button turns a raw GPIO level into debounced press and release
// events.
//
// The line itself is read through an injected Sampler so the detector stays
// independent of any particular GPIO driver; on a device the sampler wraps
// the pin read, in tests it is scripted.
package button

import (
	"fmt"
	"sync"
	"time"
)

// EventType discriminates button edges.
type EventType int

const (
	// EventPress reports a debounced press edge.
	EventPress EventType = iota
	// EventRelease reports a debounced release edge.
	EventRelease
)

// Sampler reads the raw electrical level of the line: true means high.
type Sampler func() bool

// Config wires an input to its line and event callback.
type Config struct {
	// Pin is the line number, kept for diagnostics only.
	Pin int
	// ActiveLow inverts the electrical level: a low line means pressed.
	ActiveLow bool
	// Debounce is how long a level must hold before an edge is reported.
	Debounce time.Duration
	// PollInterval is how often the line is sampled. Defaults to a quarter
	// of the debounce window.
	PollInterval time.Duration
	// Sample reads the line level.
	Sample Sampler
	// OnEvent receives debounced edges on the poller goroutine.
	OnEvent func(event EventType)
}

// Input polls a line and emits debounced press/release edges.
type Input struct {
	cfg Config

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the input and starts its poller.
func New(cfg Config) (*Input, error) {
	if cfg.Sample == nil {
		return nil, fmt.Errorf("button: line sampler is required")
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("button: debounce window must be positive")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = cfg.Debounce / 4
	}

	input := &Input{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go input.poll()

	return input, nil
}

// Close stops the poller and waits for it to exit. Safe to call more than
// once.
func (i *Input) Close() error {
	i.closeOnce.Do(func() {
		close(i.stop)
		<-i.done
	})
	return nil
}

func (i *Input) poll() {
	defer close(i.done)

	ticker := time.NewTicker(i.cfg.PollInterval)
	defer ticker.Stop()

	stable := i.pressed()
	candidate := stable
	var candidateSince time.Time

	for {
		select {
		case <-i.stop:
			return
		case now := <-ticker.C:
			level := i.pressed()

			if level != candidate {
				candidate = level
				candidateSince = now
				continue
			}

			if candidate == stable || now.Sub(candidateSince) < i.cfg.Debounce {
				continue
			}

			stable = candidate
			if i.cfg.OnEvent == nil {
				continue
			}
			if stable {
				i.cfg.OnEvent(EventPress)
			} else {
				i.cfg.OnEvent(EventRelease)
			}
		}
	}
}

// pressed translates the electrical level into the logical button state.
func (i *Input) pressed() bool {
	level := i.cfg.Sample()
	if i.cfg.ActiveLow {
		return !level
	}
	return level
}
