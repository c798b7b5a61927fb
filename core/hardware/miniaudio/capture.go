package miniaudio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	bits     int
	bitShift uint
	scratch  []int16

	onFrame func(pcm []int16)

	mu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	if cfg.MicBits == 32 {
		format = malgo.FormatS32
	}
	channels := 1
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = uint32(cfg.MicSampleRate)
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = uint32(cfg.MicFrameSamples)
	c.config.Periods = 3

	c.audioContext = audioContext
	c.bits = cfg.MicBits
	c.bitShift = cfg.MicBitShift

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			if c.onFrame != nil {
				c.onFrame(c.decode(pInput[:n], int(frameCount)))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

// decode converts raw device bytes to 16-bit PCM, shifting 32-bit samples
// down by the configured amount.
func (c *captureClient) decode(raw []byte, frameCount int) []int16 {
	if cap(c.scratch) < frameCount {
		c.scratch = make([]int16, frameCount)
	}
	pcm := c.scratch[:frameCount]

	if c.bits == 32 {
		for i := 0; i < frameCount; i++ {
			sample := int32(binary.LittleEndian.Uint32(raw[i*4:]))
			pcm[i] = int16(sample >> c.bitShift)
		}
		return pcm
	}

	for i := 0; i < frameCount; i++ {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return pcm
}

func (c *captureClient) Start(onFrame func(pcm []int16)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.onFrame = onFrame
	if err := c.device.Start(); err != nil {
		c.onFrame = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}

	c.onFrame = nil
	return nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.onFrame = nil
	return nil
}
