// Package ringbuffer implements a fixed-capacity circular buffer of audio
// samples.
//
// It backs two distinct flows in the session pipeline: the playback buffer
// (producer: the application, consumer: the render callback) and the echo
// reference tap (producer: the render callback, consumer: the front end).
// Both flows are single-producer/single-consumer; the internal mutex makes
// each operation atomic across the two goroutines involved.
package ringbuffer

import "sync"

// Buffer is a bounded circular buffer of int16 PCM samples.
type Buffer struct {
	mu sync.Mutex

	data      []int16
	readPos   int
	writePos  int
	size      int
	overwrite bool
}

// New creates a buffer holding up to capacity samples. When overwrite is set,
// writes that exceed the free space evict the oldest samples instead of being
// truncated; the reference tap uses this mode so it always holds the most
// recently rendered audio.
func New(capacity int, overwrite bool) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}

	return &Buffer{
		data:      make([]int16, capacity),
		overwrite: overwrite,
	}
}

// Write appends samples and returns how many were stored. Without overwrite
// mode the write is truncated to the free space; with it, the oldest samples
// are evicted to make room.
func (b *Buffer) Write(samples []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(samples) == 0 {
		return 0
	}

	if len(samples) > len(b.data) {
		if !b.overwrite {
			samples = samples[:len(b.data)-b.size]
		} else {
			samples = samples[len(samples)-len(b.data):]
		}
	}

	free := len(b.data) - b.size
	if len(samples) > free {
		if !b.overwrite {
			samples = samples[:free]
		} else {
			b.dropLocked(len(samples) - free)
		}
	}

	for _, sample := range samples {
		b.data[b.writePos] = sample
		b.writePos = (b.writePos + 1) % len(b.data)
	}
	b.size += len(samples)

	return len(samples)
}

// Read fills out with buffered samples and returns how many were copied.
func (b *Buffer) Read(out []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := min(len(out), b.size)
	for i := 0; i < count; i++ {
		out[i] = b.data[b.readPos]
		b.readPos = (b.readPos + 1) % len(b.data)
	}
	b.size -= count

	return count
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Free returns the number of samples that can be written without eviction.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) - b.size
}

// Capacity returns the total sample capacity.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Clear discards all buffered samples.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readPos = 0
	b.writePos = 0
	b.size = 0
}

// dropLocked evicts the oldest count samples. Callers must hold mu.
func (b *Buffer) dropLocked(count int) {
	if count > b.size {
		count = b.size
	}
	b.readPos = (b.readPos + count) % len(b.data)
	b.size -= count
}
