package playback

import (
	"errors"
	"fmt"
)

// State is the cursor's resting state.
type State string

const (
	StateIdle    State = "Idle"
	StatePlaying State = "Playing"
	StatePaused  State = "Paused"
)

// Output is the sealed union of transition outputs.
type Output interface {
	playbackOutput() // sealed
}

// Started reports a playback start with its deterministic estimate.
type Started struct {
	AnswerID         string
	EstimatedTotalMs int64
}

// Progress reports advanced playback. ByteOffset is always a completed
// segment boundary (or zero).
type Progress struct {
	MsPlayed   int64
	ByteOffset int
}

// Paused, Resumed and Cancelled report control transitions.
type Paused struct{ AnswerID string }
type Resumed struct{ AnswerID string }
type Cancelled struct{ AnswerID string }

// Completed reports playback finishing, forced once played time reaches the
// estimate.
type Completed struct{ AnswerID string }

func (Started) playbackOutput()   {}
func (Progress) playbackOutput()  {}
func (Paused) playbackOutput()    {}
func (Resumed) playbackOutput()   {}
func (Cancelled) playbackOutput() {}
func (Completed) playbackOutput() {}

// CursorError represents a caller error against the cursor machine.
type CursorError struct {
	Code    CursorErrorCode
	Message string
	State   State
}

// CursorErrorCode categorizes cursor errors.
type CursorErrorCode string

const (
	// ErrCodeBusy indicates Play while an answer is in flight.
	ErrCodeBusy CursorErrorCode = "BUSY"

	// ErrCodeEmptyPlayback indicates Play with no answer ID or no text.
	ErrCodeEmptyPlayback CursorErrorCode = "EMPTY_PLAYBACK"

	// ErrCodeBadTick indicates a negative tick delta.
	ErrCodeBadTick CursorErrorCode = "BAD_TICK"
)

// Error implements the error interface.
func (e *CursorError) Error() string {
	return fmt.Sprintf("%s: %s (state=%s)", e.Code, e.Message, e.State)
}

// IsBusy returns true if the error is a busy error.
// Uses errors.As to handle wrapped errors.
func IsBusy(err error) bool {
	var ce *CursorError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeBusy
	}
	return false
}

// Machine is the playback cursor. Single-owner mutable state; callers
// serialize calls.
type Machine struct {
	state        State
	maxSegmentMs int64

	answerID   string
	plan       Plan
	msPlayed   int64
	byteOffset int
}

// NewMachine creates an idle cursor. maxSegmentMs caps any single segment's
// duration estimate; zero means DefaultMaxSegMs.
func NewMachine(maxSegmentMs int64) *Machine {
	return &Machine{state: StateIdle, maxSegmentMs: maxSegmentMs}
}

// State returns the current resting state.
func (m *Machine) State() State { return m.state }

// AnswerID returns the in-flight answer, or "" when idle.
func (m *Machine) AnswerID() string { return m.answerID }

// MsPlayed returns accumulated played time for the in-flight answer.
func (m *Machine) MsPlayed() int64 { return m.msPlayed }

// ByteOffset returns the spoken cursor. It is always zero or the end offset
// of a completed segment.
func (m *Machine) ByteOffset() int { return m.byteOffset }

// PlanSnapshot returns the in-flight segment plan.
func (m *Machine) PlanSnapshot() Plan { return m.plan }

// Play starts playback of text for an answer. Legal only when idle.
func (m *Machine) Play(answerID, text string) ([]Output, error) {
	if m.state != StateIdle {
		return nil, &CursorError{Code: ErrCodeBusy, Message: fmt.Sprintf("answer %q in flight", m.answerID), State: m.state}
	}
	if answerID == "" || text == "" {
		return nil, &CursorError{Code: ErrCodeEmptyPlayback, Message: "answer id and text must be non-empty", State: m.state}
	}

	m.state = StatePlaying
	m.answerID = answerID
	m.plan = BuildPlan(text, m.maxSegmentMs)
	m.msPlayed = 0
	m.byteOffset = 0
	return []Output{Started{AnswerID: answerID, EstimatedTotalMs: m.plan.EstimatedTotalMs}}, nil
}

// Tick advances played time by deltaMs. Time only moves while playing; a tick
// while paused or idle reports nothing. Completion is forced once played time
// reaches the estimate.
func (m *Machine) Tick(deltaMs int64) ([]Output, error) {
	if deltaMs < 0 {
		return nil, &CursorError{Code: ErrCodeBadTick, Message: fmt.Sprintf("delta must be non-negative, got %d", deltaMs), State: m.state}
	}
	if m.state != StatePlaying {
		return nil, nil
	}

	m.msPlayed += deltaMs
	m.byteOffset = m.completedBoundary()

	if m.msPlayed >= m.plan.EstimatedTotalMs {
		answerID := m.answerID
		total := m.plan.EstimatedTotalMs
		final := m.plan.Segments[len(m.plan.Segments)-1].EndByte
		m.reset()
		return []Output{
			Progress{MsPlayed: total, ByteOffset: final},
			Completed{AnswerID: answerID},
		}, nil
	}

	return []Output{Progress{MsPlayed: m.msPlayed, ByteOffset: m.byteOffset}}, nil
}

// Pause suspends playback. No-op unless answerID names the in-flight answer
// and the machine is playing.
func (m *Machine) Pause(answerID string) []Output {
	if m.state != StatePlaying || answerID != m.answerID {
		return nil
	}
	m.state = StatePaused
	return []Output{Paused{AnswerID: answerID}}
}

// Resume continues a paused playback. No-op on answer mismatch.
func (m *Machine) Resume(answerID string) []Output {
	if m.state != StatePaused || answerID != m.answerID {
		return nil
	}
	m.state = StatePlaying
	return []Output{Resumed{AnswerID: answerID}}
}

// Cancel abandons the in-flight answer from either active state. No-op on
// answer mismatch.
func (m *Machine) Cancel(answerID string) []Output {
	if m.state == StateIdle || answerID != m.answerID {
		return nil
	}
	m.reset()
	return []Output{Cancelled{AnswerID: answerID}}
}

// completedBoundary returns the end offset of the last segment whose
// cumulative duration fits within played time. The cursor never reports a
// position inside a segment.
func (m *Machine) completedBoundary() int {
	var (
		elapsed  int64
		boundary int
	)
	for _, seg := range m.plan.Segments {
		elapsed += seg.DurationMs
		if m.msPlayed < elapsed {
			break
		}
		boundary = seg.EndByte
	}
	return boundary
}

func (m *Machine) reset() {
	m.state = StateIdle
	m.answerID = ""
	m.plan = Plan{}
	m.msPlayed = 0
	m.byteOffset = 0
}
