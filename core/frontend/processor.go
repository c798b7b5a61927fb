// Package frontend hosts the acoustic front end: it consumes raw capture
// frames, subtracts the echo reference, classifies voice activity, spots the
// wake word through a pluggable detector and forwards processed PCM.
//
// The processor never owns session state. It is gated by the shared running
// and recording flags, which are written by the session control plane and
// read here once per frame; a stale value for a single frame is acceptable.
package frontend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicerig/session-core/core/audio/ringbuffer"
)

// EventType discriminates front-end events.
type EventType int

const (
	// EventWakeupDetected reports a wake-word detection.
	EventWakeupDetected EventType = iota
	// EventVadStart reports the start of voice activity.
	EventVadStart
	// EventVadEnd reports the end of voice activity.
	EventVadEnd
)

// Event is a front-end detection delivered on the capture goroutine.
type Event struct {
	Type          EventType
	WakeWordIndex int
	VolumeDB      float32
}

// CaptureSource is the slice of the hardware transport the processor reads.
type CaptureSource interface {
	StartCapture(ctx context.Context, onFrame func(pcm []int16)) error
	StopCapture() error
}

// WakeupConfig controls wake-word detection.
type WakeupConfig struct {
	Enabled        bool
	WakeWord       string
	ModelPartition string
	Sensitivity    int
}

// VADConfig controls voice-activity classification.
type VADConfig struct {
	Enabled    bool
	Mode       int
	MinSpeech  time.Duration
	MinSilence time.Duration
}

// FeatureConfig toggles the signal-conditioning stages.
type FeatureConfig struct {
	EchoCancellation bool
	NoiseSuppression bool
	GainControl      bool
	Mode             int
}

// Config wires a processor to its capture source and shared session state.
type Config struct {
	Hardware   CaptureSource
	Reference  *ringbuffer.Buffer
	SampleRate int

	Wakeup   WakeupConfig
	VAD      VADConfig
	Features FeatureConfig

	// Detector is the wake-word engine. Nil disables wake detection even
	// when Wakeup.Enabled is set.
	Detector Detector

	// Running gates all frame processing; Recording gates PCM forwarding.
	// Both are owned and written by the session control plane.
	Running   *atomic.Bool
	Recording *atomic.Bool

	// OnEvent and OnRecord run inline on the capture goroutine and must not
	// block.
	OnEvent  func(Event)
	OnRecord func(pcm []int16)
}

// Processor is the acoustic front end. Create it with New; it starts its
// capture loop immediately and runs until Close.
type Processor struct {
	hardware  CaptureSource
	reference *ringbuffer.Buffer

	running   *atomic.Bool
	recording *atomic.Bool

	onEvent  func(Event)
	onRecord func(pcm []int16)

	features FeatureConfig
	detector Detector
	vad      *voiceActivity

	mu     sync.RWMutex
	wakeup WakeupConfig

	cancel    context.CancelFunc
	closeOnce sync.Once

	echoScratch []int16
}

// New creates the processor and starts consuming capture frames.
func New(cfg Config) (*Processor, error) {
	if cfg.Hardware == nil {
		return nil, fmt.Errorf("frontend: capture source is required")
	}
	if cfg.Reference == nil {
		return nil, fmt.Errorf("frontend: reference buffer is required")
	}
	if cfg.Running == nil || cfg.Recording == nil {
		return nil, fmt.Errorf("frontend: shared running and recording flags are required")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("frontend: sample rate must be positive")
	}

	p := &Processor{
		hardware:  cfg.Hardware,
		reference: cfg.Reference,
		running:   cfg.Running,
		recording: cfg.Recording,
		onEvent:   cfg.OnEvent,
		onRecord:  cfg.OnRecord,
		features:  cfg.Features,
		detector:  cfg.Detector,
		vad:       newVoiceActivity(cfg.VAD, cfg.SampleRate),
		wakeup:    cfg.Wakeup,
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	if err := p.hardware.StartCapture(ctx, p.processFrame); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	logger.Info("front end started",
		"wakeWord", cfg.Wakeup.WakeWord,
		"wakeEnabled", cfg.Wakeup.Enabled,
		"vadEnabled", cfg.VAD.Enabled,
	)

	return p, nil
}

// UpdateWakeupConfig replaces the wake-word configuration at runtime. When
// the detector supports live reconfiguration it is updated too.
func (p *Processor) UpdateWakeupConfig(cfg WakeupConfig) error {
	p.mu.Lock()
	p.wakeup = cfg
	p.mu.Unlock()

	if reconfigurable, ok := p.detector.(ReconfigurableDetector); ok {
		if err := reconfigurable.Reconfigure(cfg); err != nil {
			return fmt.Errorf("failed to reconfigure wake detector: %w", err)
		}
	}

	return nil
}

// Close stops the capture loop. Safe to call more than once.
func (p *Processor) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.cancel()
		err = p.hardware.StopCapture()
	})
	return err
}

// processFrame runs on the capture goroutine, once per hardware frame.
func (p *Processor) processFrame(pcm []int16) {
	if !p.running.Load() {
		return
	}

	processed := make([]int16, len(pcm))
	copy(processed, pcm)

	if p.features.EchoCancellation {
		p.cancelEcho(processed)
	}

	if started, ended := p.vad.Process(processed); started {
		p.emit(Event{Type: EventVadStart})
	} else if ended {
		p.emit(Event{Type: EventVadEnd})
	}

	p.detectWakeWord(processed)

	if p.recording.Load() && p.onRecord != nil {
		p.onRecord(processed)
	}
}

// cancelEcho subtracts the most recent reference samples from the frame.
// The real echo path involves room acoustics; plain subtraction against the
// rendered signal is the reference-consumption contract this layer keeps.
func (p *Processor) cancelEcho(frame []int16) {
	if cap(p.echoScratch) < len(frame) {
		p.echoScratch = make([]int16, len(frame))
	}
	echo := p.echoScratch[:len(frame)]

	read := p.reference.Read(echo)
	for i := 0; i < read; i++ {
		difference := int32(frame[i]) - int32(echo[i])
		if difference > 32767 {
			difference = 32767
		} else if difference < -32768 {
			difference = -32768
		}
		frame[i] = int16(difference)
	}
}

func (p *Processor) detectWakeWord(frame []int16) {
	if p.detector == nil {
		return
	}

	p.mu.RLock()
	enabled := p.wakeup.Enabled
	p.mu.RUnlock()
	if !enabled {
		return
	}

	detection, ok := p.detector.Detect(frame)
	if !ok {
		return
	}

	logger.Info("wake word detected",
		"wakeWordIndex", detection.WakeWordIndex,
		"volumeDB", detection.VolumeDB,
	)
	p.emit(Event{
		Type:          EventWakeupDetected,
		WakeWordIndex: detection.WakeWordIndex,
		VolumeDB:      detection.VolumeDB,
	})
}

func (p *Processor) emit(event Event) {
	if p.onEvent != nil {
		p.onEvent(event)
	}
}
