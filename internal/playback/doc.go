// Package playback implements the speech playback cursor state machine.
//
// On Play the machine computes a deterministic segment plan (text split at
// sentence-terminating characters) and a deterministic duration estimate per
// segment. Progress ticks advance played time; the reported byte cursor only
// snaps to completed segment boundaries, never a mid-segment position, so a
// consumer using it as an interruption or resume point cannot split a
// sentence. Completion is forced once played time reaches the estimate,
// regardless of wall-clock time.
//
// Pause, Resume and Cancel are no-ops unless the caller names the in-flight
// answer, so a stale controller cannot disturb a newer playback.
package playback
