package playback

// Duration model constants. Tuned against observed speech synthesis rates;
// the base covers per-utterance latency, the per-byte slope approximates
// speaking speed.
const (
	BaseSegmentMs   int64 = 200
	PerByteMs       int64 = 12
	DefaultMaxSegMs int64 = 30_000
)

// Segment is one sentence-aligned slice of the playback text.
type Segment struct {
	StartByte  int   `json:"start_byte"`
	EndByte    int   `json:"end_byte"` // exclusive
	DurationMs int64 `json:"duration_ms"`
}

// Plan is the deterministic segment plan for one answer.
type Plan struct {
	Segments         []Segment `json:"segments"`
	EstimatedTotalMs int64     `json:"estimated_total_ms"`
}

// sentenceTerminator reports whether b ends a sentence.
func sentenceTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// BuildPlan splits text at sentence-terminating characters and estimates each
// segment's duration as BaseSegmentMs + PerByteMs per byte, capped at
// maxSegmentMs. Text without a trailing terminator still ends its final
// segment at the end of the text.
func BuildPlan(text string, maxSegmentMs int64) Plan {
	if maxSegmentMs <= 0 {
		maxSegmentMs = DefaultMaxSegMs
	}

	var plan Plan
	start := 0
	for i := 0; i < len(text); i++ {
		if sentenceTerminator(text[i]) {
			plan.Segments = append(plan.Segments, newSegment(start, i+1, maxSegmentMs))
			start = i + 1
		}
	}
	if start < len(text) {
		plan.Segments = append(plan.Segments, newSegment(start, len(text), maxSegmentMs))
	}

	for _, seg := range plan.Segments {
		plan.EstimatedTotalMs += seg.DurationMs
	}
	return plan
}

func newSegment(start, end int, maxSegmentMs int64) Segment {
	d := BaseSegmentMs + PerByteMs*int64(end-start)
	if d > maxSegmentMs {
		d = maxSegmentMs
	}
	return Segment{StartByte: start, EndByte: end, DurationMs: d}
}
