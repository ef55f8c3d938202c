package playback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan_SplitsAtSentenceTerminators(t *testing.T) {
	plan := BuildPlan("Hello. World!", 0)

	require.Len(t, plan.Segments, 2)
	assert.Equal(t, Segment{StartByte: 0, EndByte: 6, DurationMs: 200 + 12*6}, plan.Segments[0])
	assert.Equal(t, Segment{StartByte: 6, EndByte: 13, DurationMs: 200 + 12*7}, plan.Segments[1])
	assert.Equal(t, int64(272+284), plan.EstimatedTotalMs)
}

func TestBuildPlan_NoTrailingTerminator(t *testing.T) {
	plan := BuildPlan("no punctuation here", 0)
	require.Len(t, plan.Segments, 1)
	assert.Equal(t, 19, plan.Segments[0].EndByte)
}

func TestBuildPlan_QuestionAndExclamation(t *testing.T) {
	plan := BuildPlan("Really? Yes! Done.", 0)
	require.Len(t, plan.Segments, 3)
	assert.Equal(t, 7, plan.Segments[0].EndByte)
	assert.Equal(t, 12, plan.Segments[1].EndByte)
	assert.Equal(t, 18, plan.Segments[2].EndByte)
}

func TestBuildPlan_CapsSegmentDuration(t *testing.T) {
	long := strings.Repeat("a", 10_000) + "."
	plan := BuildPlan(long, 5_000)
	require.Len(t, plan.Segments, 1)
	assert.Equal(t, int64(5_000), plan.Segments[0].DurationMs)
}

func TestPlay_StartsWithEstimate(t *testing.T) {
	m := NewMachine(0)
	out, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, Started{AnswerID: "ans-1", EstimatedTotalMs: 556}, out[0])
	assert.Equal(t, StatePlaying, m.State())
}

func TestPlay_WhileBusy(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hi.")
	require.NoError(t, err)

	_, err = m.Play("ans-2", "Hi again.")
	require.Error(t, err)
	assert.True(t, IsBusy(err))
}

func TestPlay_EmptyInputs(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("", "text.")
	require.Error(t, err)
	_, err = m.Play("ans-1", "")
	require.Error(t, err)
}

func TestTick_CursorSnapsToCompletedBoundariesOnly(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)

	// Segment ends are 6 and 13; any reported offset must be one of
	// {0, 6, 13} no matter how ticks land.
	allowed := map[int]bool{0: true, 6: true, 13: true}
	for m.State() == StatePlaying {
		out, err := m.Tick(50)
		require.NoError(t, err)
		for _, o := range out {
			if p, ok := o.(Progress); ok {
				assert.True(t, allowed[p.ByteOffset], "offset %d is inside a segment", p.ByteOffset)
			}
		}
	}
}

func TestTick_MidSegmentReportsPriorBoundary(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)

	out, err := m.Tick(100) // inside segment one
	require.NoError(t, err)
	assert.Equal(t, []Output{Progress{MsPlayed: 100, ByteOffset: 0}}, out)

	out, err = m.Tick(172) // exactly at segment one's end (272ms)
	require.NoError(t, err)
	assert.Equal(t, []Output{Progress{MsPlayed: 272, ByteOffset: 6}}, out)

	out, err = m.Tick(100) // inside segment two
	require.NoError(t, err)
	assert.Equal(t, []Output{Progress{MsPlayed: 372, ByteOffset: 6}}, out)
}

func TestTick_ForcesCompletionAtEstimate(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)

	out, err := m.Tick(10_000)
	require.NoError(t, err)
	assert.Equal(t, []Output{
		Progress{MsPlayed: 556, ByteOffset: 13},
		Completed{AnswerID: "ans-1"},
	}, out)
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.AnswerID())
}

func TestTick_NegativeDelta(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Tick(-1)
	require.Error(t, err)
}

func TestPauseResumeCancel_AnswerMismatchIsNoOp(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)

	assert.Empty(t, m.Pause("ans-9"))
	assert.Equal(t, StatePlaying, m.State())

	require.NotEmpty(t, m.Pause("ans-1"))
	assert.Equal(t, StatePaused, m.State())

	assert.Empty(t, m.Resume("ans-9"))
	assert.Equal(t, StatePaused, m.State())

	assert.Empty(t, m.Cancel("ans-9"))
	assert.Equal(t, StatePaused, m.State())

	require.NotEmpty(t, m.Resume("ans-1"))
	assert.Equal(t, StatePlaying, m.State())

	require.NotEmpty(t, m.Cancel("ans-1"))
	assert.Equal(t, StateIdle, m.State())
}

func TestTick_WhilePausedHoldsTime(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "Hello. World!")
	require.NoError(t, err)

	_, err = m.Tick(100)
	require.NoError(t, err)
	m.Pause("ans-1")

	out, err := m.Tick(10_000)
	require.NoError(t, err)
	assert.Empty(t, out, "time does not advance while paused")
	assert.Equal(t, int64(100), m.MsPlayed())
}

func TestCancel_AllowsImmediateReplay(t *testing.T) {
	m := NewMachine(0)
	_, err := m.Play("ans-1", "First.")
	require.NoError(t, err)
	m.Cancel("ans-1")

	out, err := m.Play("ans-2", "Second.")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ans-2", m.AnswerID())
	assert.Equal(t, int64(0), m.MsPlayed())
}
