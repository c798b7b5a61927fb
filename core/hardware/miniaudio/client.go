// Package miniaudio backs the hardware audio transport with malgo
// (miniaudio): one capture device for the microphone and one playback device
// for the speaker.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
)

// Config describes both sides of the transport. Pin and port numbers from the
// device wiring do not apply here; the host audio stack picks the devices.
type Config struct {
	MicSampleRate int
	MicBits       int
	// MicBitShift is the right shift applied when converting 32-bit capture
	// samples down to 16-bit PCM.
	MicBitShift     uint
	MicFrameSamples int

	SpeakerSampleRate   int
	SpeakerBits         int
	SpeakerFrameSamples int
}

// Client is a duplex hardware transport over the host audio stack.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	captureClient
	renderClient
}

// NewClient initializes the malgo context and both devices. The devices stay
// stopped until StartCapture/StartRender.
func NewClient(cfg Config) (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.captureClient.Init(audioCtx, cfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := client.renderClient.Init(audioCtx, cfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return &client, nil
}

// StartCapture begins delivering microphone frames to onFrame on the capture
// device's own goroutine.
func (c *Client) StartCapture(_ context.Context, onFrame func(pcm []int16)) error {
	return c.captureClient.Start(onFrame)
}

// StopCapture stops the capture device.
func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// StartRender begins pulling speaker frames from source on the playback
// device's own goroutine.
func (c *Client) StartRender(source func(out []int16) int) error {
	return c.renderClient.Start(source)
}

// StopRender stops the playback device.
func (c *Client) StopRender() error {
	return c.renderClient.Stop()
}

// Close tears down both devices and the malgo context.
func (c *Client) Close() error {
	_ = c.captureClient.Uninit()
	_ = c.renderClient.Uninit()
	if err := c.audioContext.Uninit(); err != nil {
		return err
	}
	c.audioContext.Free()
	return nil
}
