//go:build cgo

// Package portaudio backs the hardware audio transport with PortAudio. It is
// the fallback for hosts where miniaudio is unavailable; both backends expose
// the same capture/render surface.
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Config mirrors the miniaudio backend configuration.
type Config struct {
	MicSampleRate   int
	MicBits         int
	MicBitShift     uint
	MicFrameSamples int

	SpeakerSampleRate   int
	SpeakerBits         int
	SpeakerFrameSamples int
}

// Client is a duplex hardware transport over PortAudio's blocking API. The
// capture and render sides run their own goroutines pumping the streams.
type Client struct {
	cfg Config

	mu sync.Mutex

	captureStream *portaudio.Stream
	captureIn32   []int32
	captureIn16   []int16
	captureStop   chan struct{}
	captureDone   chan struct{}

	renderStream *portaudio.Stream
	renderOut    []int16
	renderStop   chan struct{}
	renderDone   chan struct{}
}

// NewClient initializes PortAudio and opens both streams.
func NewClient(cfg Config) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	client := &Client{cfg: cfg}

	var err error
	if cfg.MicBits == 32 {
		client.captureIn32 = make([]int32, cfg.MicFrameSamples)
		client.captureStream, err = portaudio.OpenDefaultStream(
			1, 0, float64(cfg.MicSampleRate), cfg.MicFrameSamples, client.captureIn32)
	} else {
		client.captureIn16 = make([]int16, cfg.MicFrameSamples)
		client.captureStream, err = portaudio.OpenDefaultStream(
			1, 0, float64(cfg.MicSampleRate), cfg.MicFrameSamples, client.captureIn16)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}

	client.renderOut = make([]int16, cfg.SpeakerFrameSamples)
	client.renderStream, err = portaudio.OpenDefaultStream(
		0, 1, float64(cfg.SpeakerSampleRate), cfg.SpeakerFrameSamples, client.renderOut)
	if err != nil {
		client.captureStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open render stream: %w", err)
	}

	return client, nil
}

// StartCapture starts the capture pump. Frames are delivered to onFrame on
// the pump goroutine until StopCapture, Close or context cancellation.
func (c *Client) StartCapture(ctx context.Context, onFrame func(pcm []int16)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.captureStop != nil {
		return nil
	}
	if err := c.captureStream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.captureStop = stop
	c.captureDone = done

	go c.pumpCapture(ctx, onFrame, stop, done)
	return nil
}

// StopCapture stops the capture pump and the stream.
func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.captureStop == nil {
		return nil
	}
	close(c.captureStop)
	<-c.captureDone
	c.captureStop = nil
	c.captureDone = nil

	if err := c.captureStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture stream: %w", err)
	}
	return nil
}

// StartRender starts the render pump, pulling frames from source.
func (c *Client) StartRender(source func(out []int16) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.renderStop != nil {
		return nil
	}
	if err := c.renderStream.Start(); err != nil {
		return fmt.Errorf("failed to start render stream: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.renderStop = stop
	c.renderDone = done

	go c.pumpRender(source, stop, done)
	return nil
}

// StopRender stops the render pump and the stream.
func (c *Client) StopRender() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.renderStop == nil {
		return nil
	}
	close(c.renderStop)
	<-c.renderDone
	c.renderStop = nil
	c.renderDone = nil

	if err := c.renderStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop render stream: %w", err)
	}
	return nil
}

// Close stops both pumps, closes the streams and terminates PortAudio.
func (c *Client) Close() error {
	_ = c.StopCapture()
	_ = c.StopRender()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.captureStream.Close()
	c.renderStream.Close()
	return portaudio.Terminate()
}

func (c *Client) pumpCapture(ctx context.Context, onFrame func(pcm []int16), stop, done chan struct{}) {
	defer close(done)

	pcm := make([]int16, c.cfg.MicFrameSamples)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := c.captureStream.Read(); err != nil {
			continue
		}

		if c.captureIn32 != nil {
			for i, sample := range c.captureIn32 {
				pcm[i] = int16(sample >> c.cfg.MicBitShift)
			}
		} else {
			copy(pcm, c.captureIn16)
		}
		onFrame(pcm)
	}
}

func (c *Client) pumpRender(source func(out []int16) int, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		filled := source(c.renderOut)
		for i := filled; i < len(c.renderOut); i++ {
			c.renderOut[i] = 0
		}

		if err := c.renderStream.Write(); err != nil {
			continue
		}
	}
}
