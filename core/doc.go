// Package session orchestrates one embedded voice-interaction session: it
// wires microphone capture, acoustic front-end processing, speaker playback
// and a physical button behind a single control surface and a unified typed
// event stream.
//
// The package sequences collaborator lifecycles and relays events and state;
// it does not implement DSP, codecs or transports itself. Collaborators are
// created through factories in a fixed order during Init and destroyed in
// strict reverse order, both on Deinit and when a mid-Init failure rolls the
// session back.
//
// Concurrency contract: capture, playback and button input each run on their
// own goroutine owned by the respective collaborator. Control operations flip
// atomic flags and return immediately; they never wait for an audio goroutine
// to observe the change. Event and record sinks are invoked synchronously on
// the producing goroutine and must be fast and non-blocking. Init and Deinit
// are not safe to call concurrently; a single control goroutine is expected
// to serialize lifecycle transitions.
package session
