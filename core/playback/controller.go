// Package playback owns the outbound audio path: a bounded playback buffer
// drained by the hardware render callback, plus the echo reference tap that
// mirrors every rendered frame for the acoustic front end.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/voicerig/session-core/core/audio/ringbuffer"
)

// ErrBufferFull is returned by Write when the playback buffer cannot hold the
// whole chunk. Nothing is written in that case; callers can poll FreeSpace
// and retry.
var ErrBufferFull = errors.New("playback buffer full")

// RenderTarget is the slice of the hardware transport the controller drives.
type RenderTarget interface {
	StartRender(source func(out []int16) int) error
	StopRender() error
}

// Config wires a controller to its hardware and shared session state.
type Config struct {
	// Hardware is the render side of the audio transport.
	Hardware RenderTarget
	// BufferSamples is the playback buffer capacity.
	BufferSamples int
	// ReferenceSamples is the echo reference tap capacity.
	ReferenceSamples int
	// FrameSamples is the fixed render frame size.
	FrameSamples int
	// Volume is the shared session volume (0-100). The controller only reads
	// it; the session control plane is the single writer.
	Volume *atomic.Uint32
}

// Controller buffers outbound PCM and feeds it to the hardware render
// callback at a fixed frame size, scaled by the shared volume. Rendered
// samples are copied into the reference tap so the echo canceller always sees
// what the speaker just played.
type Controller struct {
	mu sync.Mutex

	hardware  RenderTarget
	buffer    *ringbuffer.Buffer
	reference *ringbuffer.Buffer

	frameSamples int
	volume       *atomic.Uint32

	running atomic.Bool
}

// New creates a controller and its buffers. The reference buffer is created
// here and owned by the controller for its whole lifetime.
func New(cfg Config) (*Controller, error) {
	if cfg.Hardware == nil {
		return nil, fmt.Errorf("playback: hardware render target is required")
	}
	if cfg.BufferSamples <= 0 || cfg.ReferenceSamples <= 0 || cfg.FrameSamples <= 0 {
		return nil, fmt.Errorf("playback: buffer, reference and frame sizes must be positive")
	}
	if cfg.Volume == nil {
		return nil, fmt.Errorf("playback: shared volume is required")
	}

	return &Controller{
		hardware:     cfg.Hardware,
		buffer:       ringbuffer.New(cfg.BufferSamples, false),
		reference:    ringbuffer.New(cfg.ReferenceSamples, true),
		frameSamples: cfg.FrameSamples,
		volume:       cfg.Volume,
	}, nil
}

// Write queues samples for playback. The write is all-or-nothing.
func (c *Controller) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if c.buffer.Free() < len(samples) {
		return ErrBufferFull
	}

	c.buffer.Write(samples)
	return nil
}

// Start begins draining the playback buffer through the hardware.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return nil
	}

	if err := c.hardware.StartRender(c.fillFrame); err != nil {
		return fmt.Errorf("failed to start render: %w", err)
	}

	c.running.Store(true)
	return nil
}

// Stop halts rendering. Buffered audio is kept; use Clear to discard it.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return nil
	}

	if err := c.hardware.StopRender(); err != nil {
		return fmt.Errorf("failed to stop render: %w", err)
	}

	c.running.Store(false)
	return nil
}

// Clear discards buffered-but-unplayed audio.
func (c *Controller) Clear() {
	c.buffer.Clear()
}

// FreeSpace returns how many samples Write can currently accept.
func (c *Controller) FreeSpace() int {
	return c.buffer.Free()
}

// IsRunning reports whether the render path is active.
func (c *Controller) IsRunning() bool {
	return c.running.Load()
}

// ReferenceBuffer exposes the echo reference tap. The controller keeps
// ownership; consumers only read from it.
func (c *Controller) ReferenceBuffer() *ringbuffer.Buffer {
	return c.reference
}

// Close stops rendering and releases the controller.
func (c *Controller) Close() error {
	return c.Stop()
}

// fillFrame runs on the hardware render goroutine. It pulls buffered samples,
// pads the remainder with silence, applies the shared volume and mirrors the
// rendered frame into the reference tap.
func (c *Controller) fillFrame(out []int16) int {
	read := c.buffer.Read(out)
	for i := read; i < len(out); i++ {
		out[i] = 0
	}

	volume := c.volume.Load()
	if volume > 100 {
		volume = 100
	}
	if volume < 100 {
		for i := range out {
			out[i] = int16(int32(out[i]) * int32(volume) / 100)
		}
	}

	c.reference.Write(out)
	return len(out)
}
