// Package events defines the typed session event contract.
//
// Event kinds are grouped by producer-facing namespaces:
//
//   - button.*
//   - wake.*
//   - vad.*
//
// button events
//
//   - ButtonTrigger (button.trigger): the physical button was pressed, or a
//     conversation was triggered programmatically.
//   - ButtonRelease (button.release): the physical button was released.
//
// wake events
//
//   - WakeupDetected (wake.detected): the front end spotted the enrolled wake
//     word; carries the detected word index and the estimated signal volume.
//
// vad events
//
//   - VadStarted (vad.started): voice activity began.
//   - VadEnded (vad.ended): voice activity ended.
//
// Events are dispatched synchronously on the goroutine of the producing
// collaborator (button poller, capture/processing loop, or the caller's own
// goroutine for programmatic triggers). Sinks must be fast and must not block.
package events
