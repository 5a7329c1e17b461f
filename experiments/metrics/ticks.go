package metrics

import (
	"busters/game"
	"busters/sensor"
)

// TickRecord is one line of the per-tick game trace. NextScore is only known once the
// following tick has been played.
type TickRecord struct {
	Tick      int
	Tracker   game.Position
	Direction game.Direction
	Living    []bool
	Readings  []sensor.Reading
	Estimates []game.Position // Most likely position per adversary
	Score     int
	NextScore int
}

// TickRecorder holds back each tick until the next one arrives to fill in its NextScore.
type TickRecorder struct {
	pending *TickRecord
	records []TickRecord
}

func NewTickRecorder() *TickRecorder {
	return &TickRecorder{}
}

// Record stores tick and completes the previous one with tick's score.
func (r *TickRecorder) Record(tick TickRecord) {
	if r.pending != nil {
		r.pending.NextScore = tick.Score
		r.records = append(r.records, *r.pending)
	}
	r.pending = &tick
}

// Flush completes the pending tick with the final score of the episode.
func (r *TickRecorder) Flush(finalScore int) {
	if r.pending == nil {
		return
	}
	r.pending.NextScore = finalScore
	r.records = append(r.records, *r.pending)
	r.pending = nil
}

// Records returns the completed ticks.
func (r *TickRecorder) Records() []TickRecord {
	records := make([]TickRecord, len(r.records))
	copy(records, r.records)
	return records
}
