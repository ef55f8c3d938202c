// Package device implements the audio device selection and degradation
// state machine.
//
// The machine is an explicit state value plus a transition function: Handle
// applies one event, mutates exclusively-owned state, and returns the output
// events the transition produced. No goroutines, no queue; callers serialize
// access.
//
// Selection is deterministic. When the active device disappears the
// replacement is chosen by a fixed preference order, with a lexicographic
// tie-break at the end, never randomness.
//
// Degradation flags are independent. Each fault event raises its own flag and
// each recovery event clears only its own; the machine returns to full-duplex
// operation only when every flag is clear. Permission loss is terminal.
package device
