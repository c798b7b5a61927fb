package session

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/voicerig/session-core/core/events"
)

// Start enables listening: capture frames begin flowing through the front
// end. The flag flip is immediate; the capture goroutine observes it on its
// next frame.
func (s *Session) Start() error {
	if !s.initialized.Load() {
		return fmt.Errorf("%w: session not initialized", ErrInvalidState)
	}
	if s.running.Load() {
		return nil
	}

	s.running.Store(true)
	logger.Info("listening started", "wakeWord", s.wakeupSnapshot().WakeWord)
	return nil
}

// Stop disables listening and forces recording off. It never waits for the
// capture goroutine to observe the change.
func (s *Session) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.recording.Store(false)
	logger.Info("listening stopped")
	return nil
}

// TriggerConversation dispatches a button-trigger event to the application,
// independent of the physical button and of the running state.
func (s *Session) TriggerConversation() error {
	if !s.initialized.Load() {
		return fmt.Errorf("%w: session not initialized", ErrInvalidState)
	}

	s.dispatch(events.NewButtonTrigger())
	return nil
}

// StartRecording makes the front end forward processed PCM to the record
// sink.
func (s *Session) StartRecording() error {
	if !s.initialized.Load() {
		return fmt.Errorf("%w: session not initialized", ErrInvalidState)
	}

	s.recording.Store(true)
	return nil
}

// StopRecording stops PCM forwarding. No-op when not recording.
func (s *Session) StopRecording() error {
	if !s.recording.Load() {
		return nil
	}

	s.recording.Store(false)
	return nil
}

// PlayAudio queues PCM samples for playback.
func (s *Session) PlayAudio(samples []int16) error {
	if !s.initialized.Load() || len(samples) == 0 {
		return fmt.Errorf("%w: initialized session and non-empty samples are required", ErrInvalidArgument)
	}

	return s.playbackCtrl.Write(samples)
}

// PlaybackFreeSpace returns how many samples PlayAudio can accept right now,
// or 0 when the session is uninitialized.
func (s *Session) PlaybackFreeSpace() int {
	if !s.initialized.Load() {
		return 0
	}

	return s.playbackCtrl.FreeSpace()
}

// StartPlayback starts draining the playback buffer to the speaker.
func (s *Session) StartPlayback() error {
	if !s.initialized.Load() {
		return fmt.Errorf("%w: session not initialized", ErrInvalidState)
	}

	return s.playbackCtrl.Start()
}

// StopPlayback stops the speaker. Tolerant of an uninitialized session so it
// can be called during teardown.
func (s *Session) StopPlayback() error {
	if !s.initialized.Load() {
		return nil
	}

	return s.playbackCtrl.Stop()
}

// ClearPlaybackBuffer discards buffered-but-unplayed audio. This is the
// explicit drop operation; StopPlayback alone keeps the buffer.
func (s *Session) ClearPlaybackBuffer() error {
	if !s.initialized.Load() {
		return fmt.Errorf("%w: session not initialized", ErrInvalidState)
	}

	s.playbackCtrl.Clear()
	return nil
}

// SetVolume stores the playback volume, clamped to at most 100. The playback
// goroutine picks it up on its next frame.
func (s *Session) SetVolume(volume uint8) {
	if volume > 100 {
		volume = 100
	}

	s.volume.Store(uint32(volume))
	logger.Info("volume changed", "volume", volume)
}

// Volume returns the current playback volume.
func (s *Session) Volume() uint8 {
	return uint8(s.volume.Load())
}

// UpdateWakeupConfig replaces the stored wake-word configuration and pushes
// it to the front end.
func (s *Session) UpdateWakeupConfig(cfg *WakeupConfig) error {
	if !s.initialized.Load() || cfg == nil {
		return fmt.Errorf("%w: initialized session and config are required", ErrInvalidArgument)
	}

	s.mu.Lock()
	if err := copier.Copy(&s.config.Wakeup, cfg); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: failed to copy wakeup config: %v", ErrInvalidArgument, err)
	}
	s.mu.Unlock()

	return s.frontEnd.UpdateWakeupConfig(frontendWakeup(*cfg))
}

// WakeupConfig returns a copy of the stored wake-word configuration.
func (s *Session) WakeupConfig() (WakeupConfig, error) {
	if !s.initialized.Load() {
		return WakeupConfig{}, fmt.Errorf("%w: session not initialized", ErrInvalidArgument)
	}

	return s.wakeupSnapshot(), nil
}

// IsRunning reports whether listening is enabled.
func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// IsRecording reports whether PCM forwarding is enabled.
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// IsPlaying reports whether the speaker path is active.
func (s *Session) IsPlaying() bool {
	if !s.initialized.Load() {
		return false
	}

	return s.playbackCtrl.IsRunning()
}

// SetRecordSink replaces the processed-PCM sink. Allowed at any time,
// initialized or not; a nil sink drops frames.
func (s *Session) SetRecordSink(sink RecordSink) {
	s.recordSink.Store(recordSinkHolder{sink: sink})
}

func (s *Session) wakeupSnapshot() WakeupConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Wakeup
}
