package session

import (
	"time"

	"github.com/voicerig/session-core/core/audio"
	"github.com/voicerig/session-core/core/frontend"
)

// Sizing of the audio path, inherited from the device the defaults target:
// the playback buffer holds roughly sixteen seconds of 16 kHz/16-bit audio and
// the reference tap roughly half a second.
const (
	playbackFrameSamples   = 1024
	playbackBufferSamples  = 512 * 1024 / 2
	referenceBufferSamples = 16 * 1024 / 2

	micFrameSamples = 512
	micBitShift     = 14

	buttonDebounce = 50 * time.Millisecond

	defaultVolume = 80
)

// Config is the immutable wiring and feature snapshot taken at Init. Only the
// wake-word section can change afterwards, through UpdateWakeupConfig.
type Config struct {
	Hardware HardwareConfig
	Wakeup   WakeupConfig
	VAD      VADConfig
	FrontEnd FeatureConfig
}

// HardwareConfig describes the physical wiring of the audio transport and the
// button.
type HardwareConfig struct {
	Mic     MicConfig
	Speaker SpeakerConfig
	Button  ButtonConfig
}

// MicConfig is the capture side of the serial audio bus.
type MicConfig struct {
	Port       int
	BCLKPin    int
	LRCKPin    int
	DataInPin  int
	SampleRate int
	Bits       int
}

// SpeakerConfig is the render side of the serial audio bus.
type SpeakerConfig struct {
	Port       int
	BCLKPin    int
	LRCKPin    int
	DataOutPin int
	SampleRate int
	Bits       int
}

// ButtonConfig is the physical button wiring.
type ButtonConfig struct {
	Pin       int
	ActiveLow bool
}

// WakeupConfig controls wake-word detection.
type WakeupConfig struct {
	Enabled          bool
	WakeWord         string
	ModelPartition   string
	Sensitivity      int
	DetectionTimeout time.Duration
	EndDelay         time.Duration
}

// VADConfig controls voice-activity detection.
type VADConfig struct {
	Enabled    bool
	Mode       int
	MinSpeech  time.Duration
	MinSilence time.Duration
}

// FeatureConfig toggles the acoustic front end's conditioning stages.
type FeatureConfig struct {
	EchoCancellation bool
	NoiseSuppression bool
	GainControl      bool
	Mode             int
}

// DefaultConfig returns the wiring and feature defaults for the reference
// device: 16 kHz capture at 32 bits on port 1, 16 kHz render at 16 bits on
// port 0, an active-low button on pin 0, wake-word detection disabled with
// the preset phrase enrolled, and voice activity plus all conditioning
// stages enabled.
func DefaultConfig() *Config {
	return &Config{
		Hardware: HardwareConfig{
			Mic: MicConfig{
				Port:       1,
				BCLKPin:    15,
				LRCKPin:    2,
				DataInPin:  39,
				SampleRate: audio.DefaultSampleRate,
				Bits:       32,
			},
			Speaker: SpeakerConfig{
				Port:       0,
				BCLKPin:    48,
				LRCKPin:    38,
				DataOutPin: 47,
				SampleRate: audio.DefaultSampleRate,
				Bits:       audio.DefaultBitDepth,
			},
			Button: ButtonConfig{
				Pin:       0,
				ActiveLow: true,
			},
		},
		Wakeup: WakeupConfig{
			Enabled:          false,
			WakeWord:         "小鸭小鸭",
			ModelPartition:   "model",
			Sensitivity:      2,
			DetectionTimeout: 8000 * time.Millisecond,
			EndDelay:         1200 * time.Millisecond,
		},
		VAD: VADConfig{
			Enabled:    true,
			Mode:       2,
			MinSpeech:  200 * time.Millisecond,
			MinSilence: 400 * time.Millisecond,
		},
		FrontEnd: FeatureConfig{
			EchoCancellation: true,
			NoiseSuppression: true,
			GainControl:      true,
			Mode:             1,
		},
	}
}

// frontendWakeup maps to the front end's own wake-word record.
func frontendWakeup(cfg WakeupConfig) frontend.WakeupConfig {
	return frontend.WakeupConfig{
		Enabled:        cfg.Enabled,
		WakeWord:       cfg.WakeWord,
		ModelPartition: cfg.ModelPartition,
		Sensitivity:    cfg.Sensitivity,
	}
}

// frontendVAD maps to the front end's own VAD record.
func frontendVAD(cfg VADConfig) frontend.VADConfig {
	return frontend.VADConfig{
		Enabled:    cfg.Enabled,
		Mode:       cfg.Mode,
		MinSpeech:  cfg.MinSpeech,
		MinSilence: cfg.MinSilence,
	}
}

// frontendFeatures maps to the front end's own feature record.
func frontendFeatures(cfg FeatureConfig) frontend.FeatureConfig {
	return frontend.FeatureConfig{
		EchoCancellation: cfg.EchoCancellation,
		NoiseSuppression: cfg.NoiseSuppression,
		GainControl:      cfg.GainControl,
		Mode:             cfg.Mode,
	}
}
