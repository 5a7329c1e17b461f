package metrics

import (
	"sync/atomic"
	"time"
)

type TurnMetric struct {
	Turn         int
	Duration     time.Duration
	Tracked      int // Adversaries updated this turn
	Elapses      int
	Observations int
	Impossible   int // Observations no position was consistent with
}

type EpisodeMetric struct {
	Layout    string
	Ghosts    int
	Captured  int
	Score     int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Turns     int
}

// Collector gathers the metrics of one belief update sweep. Counters may be
// incremented from several goroutines.
type Collector interface {
	Start(turn, tracked int)
	AddElapse()
	AddObservation()
	AddImpossible()
	Complete() TurnMetric
}

type collector struct {
	turn         int
	tracked      int
	startTime    time.Time
	elapses      atomic.Int32
	observations atomic.Int32
	impossible   atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(turn, tracked int) {
	m.startTime = time.Now()
	m.turn = turn
	m.tracked = tracked
	m.elapses.Store(0)
	m.observations.Store(0)
	m.impossible.Store(0)
}

func (m *collector) AddElapse() {
	m.elapses.Add(1)
}

func (m *collector) AddObservation() {
	m.observations.Add(1)
}

func (m *collector) AddImpossible() {
	m.impossible.Add(1)
}

func (m *collector) Complete() TurnMetric {
	return TurnMetric{
		Turn:         m.turn,
		Duration:     time.Since(m.startTime),
		Tracked:      m.tracked,
		Elapses:      int(m.elapses.Load()),
		Observations: int(m.observations.Load()),
		Impossible:   int(m.impossible.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(turn, tracked int) {}
func (m *dummyCollector) AddElapse()              {}
func (m *dummyCollector) AddObservation()         {}
func (m *dummyCollector) AddImpossible()          {}
func (m *dummyCollector) Complete() TurnMetric    { return TurnMetric{} }
