package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/voicerig/session-core/core/audio/ringbuffer"
	"github.com/voicerig/session-core/core/button"
	"github.com/voicerig/session-core/core/events"
	"github.com/voicerig/session-core/core/frontend"
	"github.com/voicerig/session-core/core/playback"
)

type fakeHardware struct {
	fixture *sessionFixture
}

func (f *fakeHardware) StartCapture(_ context.Context, onFrame func(pcm []int16)) error {
	return nil
}
func (f *fakeHardware) StopCapture() error { return nil }
func (f *fakeHardware) StartRender(source func(out []int16) int) error {
	return nil
}
func (f *fakeHardware) StopRender() error { return nil }
func (f *fakeHardware) Close() error {
	f.fixture.destroyed = append(f.fixture.destroyed, "hardware")
	return nil
}

type fakePlayback struct {
	fixture *sessionFixture

	wrote     [][]int16
	writeErr  error
	started   int
	stopped   int
	cleared   int
	running   bool
	freeSpace int
	reference *ringbuffer.Buffer
}

func (f *fakePlayback) Write(samples []int16) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.wrote = append(f.wrote, append([]int16(nil), samples...))
	return nil
}
func (f *fakePlayback) Start() error {
	f.started++
	f.running = true
	return nil
}
func (f *fakePlayback) Stop() error {
	f.stopped++
	f.running = false
	return nil
}
func (f *fakePlayback) Clear()          { f.cleared++ }
func (f *fakePlayback) FreeSpace() int  { return f.freeSpace }
func (f *fakePlayback) IsRunning() bool { return f.running }
func (f *fakePlayback) ReferenceBuffer() *ringbuffer.Buffer {
	return f.reference
}
func (f *fakePlayback) Close() error {
	f.fixture.destroyed = append(f.fixture.destroyed, "playback")
	return nil
}

type fakeFrontEnd struct {
	fixture *sessionFixture

	wakeupUpdates []frontend.WakeupConfig
}

func (f *fakeFrontEnd) UpdateWakeupConfig(cfg frontend.WakeupConfig) error {
	f.wakeupUpdates = append(f.wakeupUpdates, cfg)
	return nil
}
func (f *fakeFrontEnd) Close() error {
	f.fixture.destroyed = append(f.fixture.destroyed, "frontEnd")
	return nil
}

type fakeButton struct {
	fixture *sessionFixture
}

func (f *fakeButton) Close() error {
	f.fixture.destroyed = append(f.fixture.destroyed, "button")
	return nil
}

// sessionFixture tracks collaborator creation and destruction and captures
// the wiring handed to the front end and button factories so tests can drive
// their callbacks.
type sessionFixture struct {
	created   map[string]int
	destroyed []string
	failAt    string

	hardware *fakeHardware
	playback *fakePlayback
	frontEnd *fakeFrontEnd
	button   *fakeButton

	frontEndConfig frontend.Config
	buttonConfig   button.Config

	events   []events.Event
	recorded [][]int16
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{created: map[string]int{}}
}

func (f *sessionFixture) options() []Option {
	return []Option{
		WithHardwareFactory(func(cfg HardwareConfig) (HardwareIO, error) {
			f.created["hardware"]++
			if f.failAt == "hardware" {
				return nil, fmt.Errorf("scripted hardware failure")
			}
			f.hardware = &fakeHardware{fixture: f}
			return f.hardware, nil
		}),
		WithReferenceFactory(func(samples int, overwrite bool) (*ringbuffer.Buffer, error) {
			f.created["reference"]++
			if f.failAt == "reference" {
				return nil, fmt.Errorf("scripted reference failure")
			}
			return ringbuffer.New(samples, overwrite), nil
		}),
		WithPlaybackFactory(func(cfg playback.Config) (PlaybackController, error) {
			f.created["playback"]++
			if f.failAt == "playback" {
				return nil, fmt.Errorf("scripted playback failure")
			}
			f.playback = &fakePlayback{
				fixture:   f,
				freeSpace: cfg.BufferSamples,
				reference: ringbuffer.New(cfg.ReferenceSamples, true),
			}
			return f.playback, nil
		}),
		WithFrontEndFactory(func(cfg frontend.Config) (FrontEnd, error) {
			f.created["frontEnd"]++
			if f.failAt == "frontEnd" {
				return nil, fmt.Errorf("scripted front end failure")
			}
			f.frontEndConfig = cfg
			f.frontEnd = &fakeFrontEnd{fixture: f}
			return f.frontEnd, nil
		}),
		WithButtonFactory(func(cfg button.Config) (ButtonInput, error) {
			f.created["button"]++
			if f.failAt == "button" {
				return nil, fmt.Errorf("scripted button failure")
			}
			f.buttonConfig = cfg
			f.button = &fakeButton{fixture: f}
			return f.button, nil
		}),
		WithRecordSink(RecordSinkFunc(func(pcm []int16) {
			f.recorded = append(f.recorded, append([]int16(nil), pcm...))
		})),
	}
}

func (f *sessionFixture) sink() EventSink {
	return EventSinkFunc(func(event events.Event) { f.events = append(f.events, event) })
}

func newInitializedSession(t *testing.T) (*Session, *sessionFixture) {
	t.Helper()

	fixture := newSessionFixture()
	s := New(fixture.options()...)
	if err := s.Init(DefaultConfig(), fixture.sink()); err != nil {
		t.Fatalf("expected init to succeed, got %v", err)
	}
	return s, fixture
}

func TestInitRequiresConfigAndSink(t *testing.T) {
	fixture := newSessionFixture()
	s := New(fixture.options()...)

	if err := s.Init(nil, fixture.sink()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for nil config, got %v", err)
	}
	if err := s.Init(DefaultConfig(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for nil sink, got %v", err)
	}

	if len(fixture.created) != 0 {
		t.Fatalf("expected no collaborators created, got %v", fixture.created)
	}
	if err := s.TriggerConversation(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected session to remain uninitialized, got %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s, fixture := newInitializedSession(t)

	if err := s.Init(DefaultConfig(), fixture.sink()); err != nil {
		t.Fatalf("expected repeated init to succeed, got %v", err)
	}

	for _, name := range []string{"hardware", "reference", "playback", "frontEnd", "button"} {
		if got := fixture.created[name]; got != 1 {
			t.Fatalf("expected %s created exactly once, got %d", name, got)
		}
	}
}

func TestInitDefaults(t *testing.T) {
	s, _ := newInitializedSession(t)

	if s.IsRunning() {
		t.Fatalf("expected running to default to false")
	}
	if s.IsRecording() {
		t.Fatalf("expected recording to default to false")
	}
	if s.IsPlaying() {
		t.Fatalf("expected playing to default to false")
	}
	if got := s.Volume(); got != 80 {
		t.Fatalf("expected default volume 80, got %d", got)
	}
}

func TestInitRollsBackInReverseOrderOnFailure(t *testing.T) {
	testCases := []struct {
		failAt            string
		expectedDestroyed []string
	}{
		{failAt: "hardware", expectedDestroyed: nil},
		{failAt: "reference", expectedDestroyed: []string{"hardware"}},
		{failAt: "playback", expectedDestroyed: []string{"hardware"}},
		{failAt: "frontEnd", expectedDestroyed: []string{"playback", "hardware"}},
		{failAt: "button", expectedDestroyed: []string{"frontEnd", "playback", "hardware"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.failAt, func(t *testing.T) {
			fixture := newSessionFixture()
			fixture.failAt = testCase.failAt
			s := New(fixture.options()...)

			err := s.Init(DefaultConfig(), fixture.sink())
			if !errors.Is(err, ErrResourceExhausted) {
				t.Fatalf("expected ErrResourceExhausted, got %v", err)
			}

			if len(fixture.destroyed) != len(testCase.expectedDestroyed) {
				t.Fatalf("expected destruction %v, got %v", testCase.expectedDestroyed, fixture.destroyed)
			}
			for i, name := range testCase.expectedDestroyed {
				if fixture.destroyed[i] != name {
					t.Fatalf("expected destruction %v, got %v", testCase.expectedDestroyed, fixture.destroyed)
				}
			}

			// The session must be as if Init had never been called.
			if s.Volume() != 0 {
				t.Fatalf("expected volume reset after rollback, got %d", s.Volume())
			}
			fixture.failAt = ""
			fixture.destroyed = nil
			if err := s.Init(DefaultConfig(), fixture.sink()); err != nil {
				t.Fatalf("expected init after rollback to succeed, got %v", err)
			}
		})
	}
}

func TestDeinitDestroysCollaboratorsInReverseCreationOrder(t *testing.T) {
	s, fixture := newInitializedSession(t)

	s.Deinit()

	expected := []string{"button", "frontEnd", "playback", "hardware"}
	if len(fixture.destroyed) != len(expected) {
		t.Fatalf("expected destruction %v, got %v", expected, fixture.destroyed)
	}
	for i, name := range expected {
		if fixture.destroyed[i] != name {
			t.Fatalf("expected destruction %v, got %v", expected, fixture.destroyed)
		}
	}
}

func TestDeinitForcesAllActivityOff(t *testing.T) {
	s, fixture := newInitializedSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := s.StartRecording(); err != nil {
		t.Fatalf("expected start recording to succeed, got %v", err)
	}
	if err := s.StartPlayback(); err != nil {
		t.Fatalf("expected start playback to succeed, got %v", err)
	}

	s.Deinit()

	if s.IsRunning() || s.IsRecording() {
		t.Fatalf("expected running and recording forced off after deinit")
	}
	if fixture.playback.stopped == 0 {
		t.Fatalf("expected playback stopped during deinit")
	}
	if s.Volume() != 0 {
		t.Fatalf("expected volume reset after deinit, got %d", s.Volume())
	}
}

func TestDeinitWithoutInitIsNoop(t *testing.T) {
	fixture := newSessionFixture()
	s := New(fixture.options()...)

	s.Deinit()

	if len(fixture.destroyed) != 0 {
		t.Fatalf("expected nothing destroyed, got %v", fixture.destroyed)
	}
}

func TestInitAfterDeinitBehavesLikeFirstInit(t *testing.T) {
	s, fixture := newInitializedSession(t)

	s.Deinit()
	if err := s.Init(DefaultConfig(), fixture.sink()); err != nil {
		t.Fatalf("expected init after deinit to succeed, got %v", err)
	}

	for _, name := range []string{"hardware", "reference", "playback", "frontEnd", "button"} {
		if got := fixture.created[name]; got != 2 {
			t.Fatalf("expected %s created twice across both inits, got %d", name, got)
		}
	}
	if s.Volume() != 80 {
		t.Fatalf("expected default volume restored, got %d", s.Volume())
	}
}

func TestFrontEndReceivesSharedStateWiring(t *testing.T) {
	s, fixture := newInitializedSession(t)

	cfg := fixture.frontEndConfig
	if cfg.Running == nil || cfg.Recording == nil {
		t.Fatalf("expected shared flags wired into the front end")
	}
	if cfg.Reference == nil {
		t.Fatalf("expected reference buffer wired into the front end")
	}
	if cfg.Reference != fixture.playback.reference {
		t.Fatalf("expected the playback controller's reference tap, not the placeholder")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if !cfg.Running.Load() {
		t.Fatalf("expected front end to observe running through the shared flag")
	}
}
