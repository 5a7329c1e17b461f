package tracker

import (
	"errors"
	"fmt"
	"sync"

	"busters/experiments/metrics"
	"busters/game"
	"busters/inference"
	"busters/sensor"
	"busters/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMalformedTurn    = errors.New("malformed turn")
	ErrUnknownAdversary = errors.New("unknown adversary")
	ErrInvalidAdversary = errors.New("invalid adversary")
)

// Order is the sequence in which a turn applies the two belief updates.
type Order int

const (
	ElapseThenObserve Order = iota
	ObserveThenElapse
)

func (o Order) String() string {
	if o == ObserveThenElapse {
		return "observe-elapse"
	}
	return "elapse-observe"
}

func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "elapse-observe":
		return ElapseThenObserve, nil
	case "observe-elapse":
		return ObserveThenElapse, nil
	}
	return ElapseThenObserve, fmt.Errorf("unknown update order %q", s)
}

// Factory builds the filter tracking one adversary.
type Factory func(id string) inference.Filter

// Turn is the input of one belief update sweep.
type Turn struct {
	Tracker  game.Position
	Readings []sensor.Reading // Index-aligned with the registered adversaries
	Living   []bool           // Index-aligned; nil means every adversary is alive
}

type adversary struct {
	id       string
	filter   inference.Filter
	captured bool
	belief   inference.Distribution
	err      error // Last observation failure
}

type Option func(m *Manager)

func WithObserve(enabled bool) Option {
	return func(m *Manager) {
		m.observe = enabled
	}
}

func WithElapse(enabled bool) Option {
	return func(m *Manager) {
		m.elapse = enabled
	}
}

func WithOrder(order Order) Option {
	return func(m *Manager) {
		m.order = order
	}
}

// WithSkipFirstElapse skips the time update on the first turn, when the uniform prior
// has not been observed yet.
func WithSkipFirstElapse(skip bool) Option {
	return func(m *Manager) {
		m.skipFirstElapse = skip
	}
}

func WithGoroutines(goroutines int) Option {
	return func(m *Manager) {
		if goroutines > 0 {
			m.goroutines = goroutines
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(m *Manager) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

// Manager owns one filter per adversary and drives the per-turn updates.
type Manager struct {
	grid            game.Grid
	factory         Factory
	observe         bool
	elapse          bool
	order           Order
	skipFirstElapse bool
	goroutines      int
	metrics         metrics.Collector

	mu          sync.RWMutex // Guards adversaries' snapshots and turns
	adversaries []*adversary
	turns       int
	last        metrics.TurnMetric
}

func NewManager(grid game.Grid, factory Factory, options ...Option) *Manager {
	if grid == nil || factory == nil {
		panic("manager needs a grid and a filter factory")
	}
	m := &Manager{ // Default values
		grid:       grid,
		factory:    factory,
		observe:    true,
		elapse:     true,
		order:      ElapseThenObserve,
		goroutines: 1,
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Register creates and uniformly initializes a filter for each adversary, replacing any
// previously registered ones.
func (m *Manager) Register(ids []string) error {
	adversaries := make([]*adversary, 0, len(ids))
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: adversary %d has an empty id", ErrInvalidAdversary, i)
		}
		if utils.FindIndex(ids, id) != i {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidAdversary, id)
		}
		filter := m.factory(id)
		filter.InitializeUniformly()
		adversaries = append(adversaries, &adversary{
			id:     id,
			filter: filter,
			belief: filter.BeliefDistribution(),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.adversaries = adversaries
	m.turns = 0
	m.last = metrics.TurnMetric{}
	return nil
}

// Update runs one sweep over the living adversaries and returns every adversary's
// belief, index-aligned with the registration order. Boundary errors are returned
// before any filter is touched; per-filter observation failures are logged and
// recovered by the filter's own policy.
func (m *Manager) Update(turn Turn) ([]inference.Distribution, error) {
	if err := m.validate(turn); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.adversaries {
		if turn.Living != nil && !turn.Living[i] && !a.captured {
			a.captured = true
			log.Debug().Msgf("adversary %s captured before turn %d", a.id, m.turns+1)
		}
	}
	active := make([]*adversary, 0, len(m.adversaries))
	readings := make([]sensor.Reading, 0, len(m.adversaries))
	for i, a := range m.adversaries {
		if !a.captured {
			active = append(active, a)
			readings = append(readings, turn.Readings[i])
		}
	}

	m.turns++
	m.metrics.Start(m.turns, len(active))
	elapse := m.elapse && !(m.skipFirstElapse && m.turns == 1)

	var group errgroup.Group
	group.SetLimit(m.goroutines)
	for i, a := range active {
		reading := readings[i]
		group.Go(func() error {
			m.step(a, reading, turn.Tracker, elapse)
			return nil
		})
	}
	_ = group.Wait()

	for _, a := range active {
		if a.err != nil {
			m.metrics.AddImpossible()
			log.Warn().Err(a.err).Msgf("adversary %s: observation recovered on turn %d", a.id, m.turns)
		}
		if a.filter.Removed() {
			a.captured = true
			log.Debug().Msgf("adversary %s removed on turn %d", a.id, m.turns)
		}
	}
	m.last = m.metrics.Complete()

	return m.snapshots(), nil
}

func (m *Manager) step(a *adversary, reading sensor.Reading, tracker game.Position, elapse bool) {
	a.err = nil
	if m.order == ElapseThenObserve && elapse {
		a.filter.ElapseTime(tracker)
		m.metrics.AddElapse()
	}
	if m.observe {
		a.err = a.filter.Observe(reading, tracker)
		m.metrics.AddObservation()
	}
	if m.order == ObserveThenElapse && elapse {
		a.filter.ElapseTime(tracker)
		m.metrics.AddElapse()
	}
	a.belief = a.filter.BeliefDistribution()
}

func (m *Manager) validate(turn Turn) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.grid.IsLegal(turn.Tracker) {
		return fmt.Errorf("%w: tracker: %w: %v", ErrMalformedTurn, inference.ErrInvalidPosition, turn.Tracker)
	}
	if len(turn.Readings) != len(m.adversaries) {
		return fmt.Errorf("%w: %d readings for %d adversaries", ErrMalformedTurn, len(turn.Readings), len(m.adversaries))
	}
	if turn.Living != nil && len(turn.Living) != len(m.adversaries) {
		return fmt.Errorf("%w: %d living flags for %d adversaries", ErrMalformedTurn, len(turn.Living), len(m.adversaries))
	}
	for i, r := range turn.Readings {
		if !r.Valid() {
			return fmt.Errorf("%w: reading %d for adversary %s", ErrMalformedTurn, r, m.adversaries[i].id)
		}
	}
	return nil
}

// Capture excludes an adversary from later updates; its last belief stays queryable.
func (m *Manager) Capture(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := utils.FindIndex(m.ids(), id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAdversary, id)
	}
	m.adversaries[i].captured = true
	return nil
}

// Beliefs returns the latest belief of every adversary, captured ones included.
func (m *Manager) Beliefs() []inference.Distribution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots()
}

// Belief returns the latest belief of one adversary.
func (m *Manager) Belief(id string) (inference.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := utils.FindIndex(m.ids(), id)
	if i < 0 {
		return inference.Distribution{}, fmt.Errorf("%w: %s", ErrUnknownAdversary, id)
	}
	return m.adversaries[i].belief, nil
}

func (m *Manager) Living() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	living := make([]bool, len(m.adversaries))
	for i, a := range m.adversaries {
		living[i] = !a.captured
	}
	return living
}

func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids()
}

// Turns returns the number of completed updates since registration.
func (m *Manager) Turns() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turns
}

// LastMetric returns the metrics of the latest update, empty unless a collector is set.
func (m *Manager) LastMetric() metrics.TurnMetric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Manager) ids() []string {
	ids := make([]string, len(m.adversaries))
	for i, a := range m.adversaries {
		ids[i] = a.id
	}
	return ids
}

func (m *Manager) snapshots() []inference.Distribution {
	beliefs := make([]inference.Distribution, len(m.adversaries))
	for i, a := range m.adversaries {
		beliefs[i] = a.belief
	}
	return beliefs
}
