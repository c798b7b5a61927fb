package miniaudio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type renderClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	scratch []int16
	source  func(out []int16) int

	mu sync.Mutex
}

func (c *renderClient) Init(audioContext *malgo.AllocatedContext, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	channels := 1
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = uint32(cfg.SpeakerSampleRate)
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = uint32(cfg.SpeakerFrameSamples)
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *renderClient) Start(source func(out []int16) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.source = source
	if err := c.device.Start(); err != nil {
		c.source = nil
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *renderClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.source = nil
	return nil
}

func (c *renderClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.source = nil
	return nil
}

func (c *renderClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount)
		if need == 0 || len(pOutput) < need*bytesPerFrame {
			return
		}

		if cap(c.scratch) < need {
			c.scratch = make([]int16, need)
		}
		pcm := c.scratch[:need]

		filled := 0
		if c.source != nil {
			filled = c.source(pcm)
		}
		for i := filled; i < need; i++ {
			pcm[i] = 0
		}

		for i, sample := range pcm {
			binary.LittleEndian.PutUint16(pOutput[i*2:], uint16(sample))
		}
	}
}
