package frontend

import (
	"math"
	"time"
)

// vadThresholdsDB maps VAD mode (0-3, least to most aggressive) to the
// frame-energy threshold that counts as speech.
var vadThresholdsDB = [4]float64{-54, -48, -42, -36}

// voiceActivity is an energy classifier with min-speech and min-silence
// hangover, tracked in audio time derived from frame lengths.
type voiceActivity struct {
	enabled     bool
	thresholdDB float64
	minSpeech   time.Duration
	minSilence  time.Duration
	sampleRate  int

	active  bool
	speech  time.Duration
	silence time.Duration
}

func newVoiceActivity(cfg VADConfig, sampleRate int) *voiceActivity {
	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	} else if mode >= len(vadThresholdsDB) {
		mode = len(vadThresholdsDB) - 1
	}

	return &voiceActivity{
		enabled:     cfg.Enabled,
		thresholdDB: vadThresholdsDB[mode],
		minSpeech:   cfg.MinSpeech,
		minSilence:  cfg.MinSilence,
		sampleRate:  sampleRate,
	}
}

// Process classifies one frame and reports activity transitions. At most one
// of started/ended is true per call.
func (v *voiceActivity) Process(frame []int16) (started, ended bool) {
	if !v.enabled || len(frame) == 0 {
		return false, false
	}

	frameDuration := time.Duration(len(frame)) * time.Second / time.Duration(v.sampleRate)
	loud := frameEnergyDB(frame) >= v.thresholdDB

	if !v.active {
		if !loud {
			v.speech = 0
			return false, false
		}

		v.speech += frameDuration
		if v.speech >= v.minSpeech {
			v.active = true
			v.silence = 0
			return true, false
		}
		return false, false
	}

	if loud {
		v.silence = 0
		return false, false
	}

	v.silence += frameDuration
	if v.silence >= v.minSilence {
		v.active = false
		v.speech = 0
		return false, true
	}
	return false, false
}

// frameEnergyDB returns the RMS energy of a frame relative to full scale.
func frameEnergyDB(frame []int16) float64 {
	var sum float64
	for _, sample := range frame {
		value := float64(sample)
		sum += value * value
	}

	rms := math.Sqrt(sum / float64(len(frame)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/math.MaxInt16)
}
