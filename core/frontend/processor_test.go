package frontend

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voicerig/session-core/core/audio/ringbuffer"
)

// fakeCaptureSource captures the frame handler so tests can drive frames
// synchronously.
type fakeCaptureSource struct {
	onFrame func(pcm []int16)
	stopped int
}

func (f *fakeCaptureSource) StartCapture(_ context.Context, onFrame func(pcm []int16)) error {
	f.onFrame = onFrame
	return nil
}

func (f *fakeCaptureSource) StopCapture() error {
	f.stopped++
	return nil
}

// scriptedDetector fires on every frame once armed.
type scriptedDetector struct {
	detection    Detection
	armed        bool
	reconfigured []WakeupConfig
}

func (d *scriptedDetector) Detect([]int16) (Detection, bool) {
	return d.detection, d.armed
}

func (d *scriptedDetector) Reconfigure(cfg WakeupConfig) error {
	d.reconfigured = append(d.reconfigured, cfg)
	return nil
}

type processorFixture struct {
	hardware  *fakeCaptureSource
	reference *ringbuffer.Buffer
	running   *atomic.Bool
	recording *atomic.Bool
	events    []Event
	recorded  [][]int16
}

func newProcessorFixture(t *testing.T, mutate func(*Config)) (*Processor, *processorFixture) {
	t.Helper()

	fixture := &processorFixture{
		hardware:  &fakeCaptureSource{},
		reference: ringbuffer.New(1024, true),
		running:   &atomic.Bool{},
		recording: &atomic.Bool{},
	}
	fixture.running.Store(true)

	cfg := Config{
		Hardware:   fixture.hardware,
		Reference:  fixture.reference,
		SampleRate: 16000,
		VAD: VADConfig{
			Enabled:    true,
			Mode:       2,
			MinSpeech:  20 * time.Millisecond,
			MinSilence: 40 * time.Millisecond,
		},
		Running:   fixture.running,
		Recording: fixture.recording,
		OnEvent:   func(event Event) { fixture.events = append(fixture.events, event) },
		OnRecord: func(pcm []int16) {
			copied := append([]int16(nil), pcm...)
			fixture.recorded = append(fixture.recorded, copied)
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("expected processor creation to succeed, got %v", err)
	}
	t.Cleanup(func() { p.Close() })

	return p, fixture
}

// loudFrame returns 10ms of full-ish scale audio at 16kHz.
func loudFrame() []int16 {
	frame := make([]int16, 160)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 20000
		} else {
			frame[i] = -20000
		}
	}
	return frame
}

func quietFrame() []int16 {
	return make([]int16, 160)
}

func TestNewRequiresCollaborators(t *testing.T) {
	running := &atomic.Bool{}
	recording := &atomic.Bool{}

	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "missing hardware", cfg: Config{Reference: ringbuffer.New(16, true), SampleRate: 16000, Running: running, Recording: recording}},
		{name: "missing reference", cfg: Config{Hardware: &fakeCaptureSource{}, SampleRate: 16000, Running: running, Recording: recording}},
		{name: "missing flags", cfg: Config{Hardware: &fakeCaptureSource{}, Reference: ringbuffer.New(16, true), SampleRate: 16000}},
		{name: "missing sample rate", cfg: Config{Hardware: &fakeCaptureSource{}, Reference: ringbuffer.New(16, true), Running: running, Recording: recording}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := New(testCase.cfg); err == nil {
				t.Fatalf("expected creation to fail")
			}
		})
	}
}

func TestFramesAreIgnoredWhileNotRunning(t *testing.T) {
	_, fixture := newProcessorFixture(t, nil)
	fixture.running.Store(false)
	fixture.recording.Store(true)

	for i := 0; i < 10; i++ {
		fixture.hardware.onFrame(loudFrame())
	}

	if len(fixture.events) != 0 {
		t.Fatalf("expected no events while not running, got %d", len(fixture.events))
	}
	if len(fixture.recorded) != 0 {
		t.Fatalf("expected no recorded frames while not running, got %d", len(fixture.recorded))
	}
}

func TestVadEmitsStartAfterMinSpeechAndEndAfterMinSilence(t *testing.T) {
	_, fixture := newProcessorFixture(t, nil)

	// One 10ms loud frame is below the 20ms minimum.
	fixture.hardware.onFrame(loudFrame())
	if len(fixture.events) != 0 {
		t.Fatalf("expected no event before min speech, got %d", len(fixture.events))
	}

	fixture.hardware.onFrame(loudFrame())
	if len(fixture.events) != 1 || fixture.events[0].Type != EventVadStart {
		t.Fatalf("expected a single vad start event, got %v", fixture.events)
	}

	for i := 0; i < 3; i++ {
		fixture.hardware.onFrame(quietFrame())
	}
	if len(fixture.events) != 1 {
		t.Fatalf("expected no event before min silence, got %d", len(fixture.events))
	}

	fixture.hardware.onFrame(quietFrame())
	if len(fixture.events) != 2 || fixture.events[1].Type != EventVadEnd {
		t.Fatalf("expected a vad end event, got %v", fixture.events)
	}
}

func TestRecordingFlagGatesPCMForwarding(t *testing.T) {
	_, fixture := newProcessorFixture(t, nil)

	fixture.hardware.onFrame(quietFrame())
	if len(fixture.recorded) != 0 {
		t.Fatalf("expected no forwarded frames while not recording, got %d", len(fixture.recorded))
	}

	fixture.recording.Store(true)
	fixture.hardware.onFrame(quietFrame())
	if len(fixture.recorded) != 1 {
		t.Fatalf("expected one forwarded frame while recording, got %d", len(fixture.recorded))
	}
}

func TestEchoCancellationSubtractsReferenceSignal(t *testing.T) {
	_, fixture := newProcessorFixture(t, func(cfg *Config) {
		cfg.Features.EchoCancellation = true
	})
	fixture.recording.Store(true)

	frame := loudFrame()
	fixture.reference.Write(frame)
	fixture.hardware.onFrame(frame)

	if len(fixture.recorded) != 1 {
		t.Fatalf("expected one forwarded frame, got %d", len(fixture.recorded))
	}
	for i, sample := range fixture.recorded[0] {
		if sample != 0 {
			t.Fatalf("expected echo-cancelled sample %d to be 0, got %d", i, sample)
		}
	}
}

func TestWakeDetectionRequiresEnabledConfig(t *testing.T) {
	detector := &scriptedDetector{detection: Detection{WakeWordIndex: 2, VolumeDB: -12}, armed: true}
	p, fixture := newProcessorFixture(t, func(cfg *Config) {
		cfg.Detector = detector
		cfg.Wakeup = WakeupConfig{Enabled: false, WakeWord: "hey duck"}
	})

	fixture.hardware.onFrame(quietFrame())
	if len(fixture.events) != 0 {
		t.Fatalf("expected no wake event while disabled, got %d", len(fixture.events))
	}

	if err := p.UpdateWakeupConfig(WakeupConfig{Enabled: true, WakeWord: "hey duck"}); err != nil {
		t.Fatalf("expected wake config update to succeed, got %v", err)
	}
	if len(detector.reconfigured) != 1 {
		t.Fatalf("expected detector reconfiguration, got %d", len(detector.reconfigured))
	}

	fixture.hardware.onFrame(quietFrame())
	if len(fixture.events) != 1 {
		t.Fatalf("expected one wake event, got %d", len(fixture.events))
	}
	event := fixture.events[0]
	if event.Type != EventWakeupDetected || event.WakeWordIndex != 2 || event.VolumeDB != -12 {
		t.Fatalf("expected wake payload to pass through verbatim, got %+v", event)
	}
}

func TestCloseStopsCaptureOnce(t *testing.T) {
	p, fixture := newProcessorFixture(t, nil)

	if err := p.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("expected repeated close to succeed, got %v", err)
	}
	if fixture.hardware.stopped != 1 {
		t.Fatalf("expected capture stopped exactly once, got %d", fixture.hardware.stopped)
	}
}
