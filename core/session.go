package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voicerig/session-core/core/button"
	"github.com/voicerig/session-core/core/events"
	"github.com/voicerig/session-core/core/frontend"
	"github.com/voicerig/session-core/core/playback"
)

// Session is the orchestrator for one voice-interaction device: it owns the
// lifecycle of the hardware transport, playback controller, acoustic front
// end and button input, and presents their activity as one event stream and
// one control surface.
//
// Init and Deinit must be serialized by a single control goroutine. All other
// control operations are safe to call from that goroutine while the capture,
// playback and button goroutines run concurrently; the shared running,
// recording and volume fields are atomics read at frame granularity, so a
// reader observing a one-frame-stale value is expected and harmless.
type Session struct {
	// mu guards the lifecycle transition and the stored config.
	mu sync.Mutex

	config Config

	hardware     HardwareIO
	playbackCtrl PlaybackController
	frontEnd     FrontEnd
	buttonInput  ButtonInput

	initialized atomic.Bool
	running     atomic.Bool
	recording   atomic.Bool
	volume      atomic.Uint32

	eventSink  atomic.Value // eventSinkHolder
	recordSink atomic.Value // recordSinkHolder

	hardwareFactory  HardwareFactory
	referenceFactory ReferenceFactory
	playbackFactory  PlaybackFactory
	frontEndFactory  FrontEndFactory
	buttonFactory    ButtonFactory

	buttonSampler button.Sampler
	detector      frontend.Detector
}

type eventSinkHolder struct{ sink EventSink }

type recordSinkHolder struct{ sink RecordSink }

// New creates an uninitialized session. Call Init to bring the collaborators
// up.
func New(opts ...Option) *Session {
	s := &Session{
		hardwareFactory:  defaultHardwareFactory,
		referenceFactory: defaultReferenceFactory,
		playbackFactory:  defaultPlaybackFactory,
		frontEndFactory:  defaultFrontEndFactory,
		buttonFactory:    defaultButtonFactory,
		buttonSampler:    idleLine,
	}
	s.eventSink.Store(eventSinkHolder{})
	s.recordSink.Store(recordSinkHolder{})

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init brings up the collaborators in fixed order: hardware transport,
// reference buffer, playback controller, front end, button. On any failure
// everything created so far is torn down in reverse order and the session is
// left exactly as if Init had never been called. Calling Init on an already
// initialized session is a no-op returning nil.
func (s *Session) Init(cfg *Config, sink EventSink) error {
	if cfg == nil || sink == nil {
		return fmt.Errorf("%w: config and event sink are required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized.Load() {
		return nil
	}

	ctx, span := tracer.Start(context.Background(), "session init")
	defer span.End()

	var snapshot Config
	if err := copier.CopyWithOption(&snapshot, cfg, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("%w: failed to snapshot config: %v", ErrInvalidArgument, err)
	}

	s.config = snapshot
	s.volume.Store(defaultVolume)
	s.eventSink.Store(eventSinkHolder{sink: sink})
	span.SetAttributes(
		attribute.Bool("session.wakeup_enabled", snapshot.Wakeup.Enabled),
		attribute.Bool("session.vad_enabled", snapshot.VAD.Enabled),
	)

	var created []func()
	fail := func(step string, err error) error {
		for i := len(created) - 1; i >= 0; i-- {
			created[i]()
		}
		s.resetLocked()
		span.AddEvent("rolled back", trace.WithAttributes(attribute.String("session.failed_step", step)))

		wrapped := fmt.Errorf("%w: failed to create %s: %v", ErrResourceExhausted, step, err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return wrapped
	}

	hardware, err := s.hardwareFactory(snapshot.Hardware)
	if err != nil {
		return fail("hardware transport", err)
	}
	s.hardware = hardware
	created = append(created, func() { hardware.Close() })

	// The placeholder is superseded below: the playback controller creates
	// and owns its own reference tap, which is the one actually wired into
	// the front end.
	reference, err := s.referenceFactory(referenceBufferSamples, true)
	if err != nil {
		return fail("reference buffer", err)
	}

	playbackCtrl, err := s.playbackFactory(playback.Config{
		Hardware:         hardware,
		BufferSamples:    playbackBufferSamples,
		ReferenceSamples: referenceBufferSamples,
		FrameSamples:     playbackFrameSamples,
		Volume:           &s.volume,
	})
	if err != nil {
		return fail("playback controller", err)
	}
	s.playbackCtrl = playbackCtrl
	created = append(created, func() { playbackCtrl.Close() })
	reference = playbackCtrl.ReferenceBuffer()

	frontEnd, err := s.frontEndFactory(frontend.Config{
		Hardware:   hardware,
		Reference:  reference,
		SampleRate: snapshot.Hardware.Mic.SampleRate,
		Wakeup:     frontendWakeup(snapshot.Wakeup),
		VAD:        frontendVAD(snapshot.VAD),
		Features:   frontendFeatures(snapshot.FrontEnd),
		Detector:   s.detector,
		Running:    &s.running,
		Recording:  &s.recording,
		OnEvent:    s.handleFrontEndEvent,
		OnRecord:   s.handleRecordedAudio,
	})
	if err != nil {
		return fail("front end", err)
	}
	s.frontEnd = frontEnd
	created = append(created, func() { frontEnd.Close() })

	buttonInput, err := s.buttonFactory(button.Config{
		Pin:       snapshot.Hardware.Button.Pin,
		ActiveLow: snapshot.Hardware.Button.ActiveLow,
		Debounce:  buttonDebounce,
		Sample:    s.buttonSampler,
		OnEvent:   s.handleButtonEvent,
	})
	if err != nil {
		return fail("button input", err)
	}
	s.buttonInput = buttonInput

	s.initialized.Store(true)
	logger.InfoContext(ctx, "session initialized",
		"wakeWord", snapshot.Wakeup.WakeWord,
		"vadEnabled", snapshot.VAD.Enabled,
	)

	return nil
}

// Deinit stops all activity and destroys the collaborators in reverse
// creation order, leaving the session ready for a fresh Init. Calling it on
// an uninitialized session is a no-op.
func (s *Session) Deinit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized.Load() {
		return
	}

	ctx, span := tracer.Start(context.Background(), "session deinit")
	defer span.End()

	s.running.Store(false)
	s.recording.Store(false)
	if err := s.playbackCtrl.Stop(); err != nil {
		recordedErr := fmt.Errorf("failed to stop playback: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	closers := []struct {
		name  string
		close func() error
	}{
		{"button input", s.buttonInput.Close},
		{"front end", s.frontEnd.Close},
		{"playback controller", s.playbackCtrl.Close},
		{"hardware transport", s.hardware.Close},
	}
	for _, closer := range closers {
		if err := closer.close(); err != nil {
			recordedErr := fmt.Errorf("failed to close %s: %w", closer.name, err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	}

	// The reference tap is owned by the playback controller and goes down
	// with it; it is never destroyed here directly.

	s.resetLocked()
	logger.InfoContext(ctx, "session deinitialized")
}

// resetLocked zeroes the session so a later Init behaves like a first-time
// initialization. Callers must hold mu.
func (s *Session) resetLocked() {
	s.config = Config{}
	s.hardware = nil
	s.playbackCtrl = nil
	s.frontEnd = nil
	s.buttonInput = nil
	s.initialized.Store(false)
	s.running.Store(false)
	s.recording.Store(false)
	s.volume.Store(0)
	s.eventSink.Store(eventSinkHolder{})
}

// handleButtonEvent translates debounced button edges into session events.
// Runs on the button poller goroutine.
func (s *Session) handleButtonEvent(event button.EventType) {
	switch event {
	case button.EventPress:
		s.dispatch(events.NewButtonTrigger())
	case button.EventRelease:
		s.dispatch(events.NewButtonRelease())
	}
}

// handleFrontEndEvent translates front-end detections into session events.
// Runs on the capture goroutine.
func (s *Session) handleFrontEndEvent(event frontend.Event) {
	switch event.Type {
	case frontend.EventWakeupDetected:
		s.dispatch(events.NewWakeupDetected(event.WakeWordIndex, event.VolumeDB))
	case frontend.EventVadStart:
		s.dispatch(events.NewVadStarted())
	case frontend.EventVadEnd:
		s.dispatch(events.NewVadEnded())
	}
}

// handleRecordedAudio relays processed PCM to the record sink. The recording
// gate lives upstream in the front end, which reads the shared flag.
func (s *Session) handleRecordedAudio(pcm []int16) {
	if holder, ok := s.recordSink.Load().(recordSinkHolder); ok && holder.sink != nil {
		holder.sink.OnRecordedAudio(pcm)
	}
}

// dispatch forwards an event to the sink, synchronously on the calling
// goroutine. Events are dropped when no sink is registered.
func (s *Session) dispatch(event events.Event) {
	if holder, ok := s.eventSink.Load().(eventSinkHolder); ok && holder.sink != nil {
		holder.sink.OnSessionEvent(event)
	}
}
