package session

import (
	"context"

	"github.com/voicerig/session-core/core/audio/ringbuffer"
	"github.com/voicerig/session-core/core/button"
	"github.com/voicerig/session-core/core/events"
	"github.com/voicerig/session-core/core/frontend"
	"github.com/voicerig/session-core/core/hardware/miniaudio"
	"github.com/voicerig/session-core/core/playback"
)

// EventSink receives the session's unified event stream. OnSessionEvent runs
// synchronously on the goroutine of the producing collaborator and must not
// block.
type EventSink interface {
	OnSessionEvent(event events.Event)
}

// RecordSink receives processed PCM frames. OnRecordedAudio runs on the
// capture goroutine; the slice is only valid for the duration of the call.
type RecordSink interface {
	OnRecordedAudio(pcm []int16)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(event events.Event)

func (f EventSinkFunc) OnSessionEvent(event events.Event) { f(event) }

// RecordSinkFunc adapts a function to the RecordSink interface.
type RecordSinkFunc func(pcm []int16)

func (f RecordSinkFunc) OnRecordedAudio(pcm []int16) { f(pcm) }

// HardwareIO is the duplex audio transport: a capture side feeding the front
// end and a render side drained by the playback controller.
type HardwareIO interface {
	StartCapture(ctx context.Context, onFrame func(pcm []int16)) error
	StopCapture() error
	StartRender(source func(out []int16) int) error
	StopRender() error
	Close() error
}

// PlaybackController owns the outbound audio buffer and the echo reference
// tap.
type PlaybackController interface {
	Write(samples []int16) error
	Start() error
	Stop() error
	Clear()
	FreeSpace() int
	IsRunning() bool
	ReferenceBuffer() *ringbuffer.Buffer
	Close() error
}

// FrontEnd is the acoustic front end consuming capture frames.
type FrontEnd interface {
	UpdateWakeupConfig(cfg frontend.WakeupConfig) error
	Close() error
}

// ButtonInput is the debounced physical button.
type ButtonInput interface {
	Close() error
}

// Collaborator factories, invoked in creation order during Init. Each one
// maps to a teardown in strict reverse order on rollback and Deinit.
type (
	HardwareFactory  func(cfg HardwareConfig) (HardwareIO, error)
	ReferenceFactory func(samples int, overwrite bool) (*ringbuffer.Buffer, error)
	PlaybackFactory  func(cfg playback.Config) (PlaybackController, error)
	FrontEndFactory  func(cfg frontend.Config) (FrontEnd, error)
	ButtonFactory    func(cfg button.Config) (ButtonInput, error)
)

// Option configures a Session at construction time.
type Option func(*Session)

// WithHardwareFactory replaces the default miniaudio hardware transport.
func WithHardwareFactory(factory HardwareFactory) Option {
	return func(s *Session) {
		if factory != nil {
			s.hardwareFactory = factory
		}
	}
}

// WithReferenceFactory replaces the placeholder reference-buffer creation.
func WithReferenceFactory(factory ReferenceFactory) Option {
	return func(s *Session) {
		if factory != nil {
			s.referenceFactory = factory
		}
	}
}

// WithPlaybackFactory replaces the default playback controller.
func WithPlaybackFactory(factory PlaybackFactory) Option {
	return func(s *Session) {
		if factory != nil {
			s.playbackFactory = factory
		}
	}
}

// WithFrontEndFactory replaces the default acoustic front end.
func WithFrontEndFactory(factory FrontEndFactory) Option {
	return func(s *Session) {
		if factory != nil {
			s.frontEndFactory = factory
		}
	}
}

// WithButtonFactory replaces the default button input.
func WithButtonFactory(factory ButtonFactory) Option {
	return func(s *Session) {
		if factory != nil {
			s.buttonFactory = factory
		}
	}
}

// WithButtonSampler supplies the GPIO level read used by the default button
// factory. Without one the button line reads as permanently idle.
func WithButtonSampler(sample button.Sampler) Option {
	return func(s *Session) {
		if sample != nil {
			s.buttonSampler = sample
		}
	}
}

// WithWakeDetector supplies the wake-word engine handed to the front end.
func WithWakeDetector(detector frontend.Detector) Option {
	return func(s *Session) { s.detector = detector }
}

// WithRecordSink registers the processed-PCM sink at construction. It can be
// replaced at any time with SetRecordSink.
func WithRecordSink(sink RecordSink) Option {
	return func(s *Session) { s.recordSink.Store(recordSinkHolder{sink: sink}) }
}

func defaultHardwareFactory(cfg HardwareConfig) (HardwareIO, error) {
	return miniaudio.NewClient(miniaudio.Config{
		MicSampleRate:       cfg.Mic.SampleRate,
		MicBits:             cfg.Mic.Bits,
		MicBitShift:         micBitShift,
		MicFrameSamples:     micFrameSamples,
		SpeakerSampleRate:   cfg.Speaker.SampleRate,
		SpeakerBits:         cfg.Speaker.Bits,
		SpeakerFrameSamples: playbackFrameSamples,
	})
}

func defaultReferenceFactory(samples int, overwrite bool) (*ringbuffer.Buffer, error) {
	return ringbuffer.New(samples, overwrite), nil
}

func defaultPlaybackFactory(cfg playback.Config) (PlaybackController, error) {
	return playback.New(cfg)
}

func defaultFrontEndFactory(cfg frontend.Config) (FrontEnd, error) {
	return frontend.New(cfg)
}

func defaultButtonFactory(cfg button.Config) (ButtonInput, error) {
	return button.New(cfg)
}

// idleLine is the default sampler when no GPIO read is wired in.
func idleLine() bool { return true }
