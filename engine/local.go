package engine

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"busters/experiments/metrics"
	"busters/game"
	"busters/inference"
	"busters/meta"
	"busters/motion"
	"busters/sensor"
	"busters/tracker"
	"busters/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Ghost is a hidden adversary of the simulation.
type Ghost struct {
	ID    string
	Start game.Position
	Model motion.Model
}

type ghost struct {
	Ghost
	position game.Position
	alive    bool
}

type Option func(e *LocalEngine)

func WithPolicy(policy Policy) Option {
	return func(e *LocalEngine) {
		if policy != nil {
			e.policy = policy
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(e *LocalEngine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

func WithMaxTurns(turns int) Option {
	return func(e *LocalEngine) {
		if turns > 0 {
			e.maxTurns = turns
		}
	}
}

func WithLayoutName(name string) Option {
	return func(e *LocalEngine) {
		e.layoutName = name
	}
}

// WithTurnHook is called after every belief update, e.g. to publish the beliefs.
func WithTurnHook(hook func(turn int, beliefs []inference.Distribution)) Option {
	return func(e *LocalEngine) {
		e.hook = hook
	}
}

var _ Engine = (*LocalEngine)(nil)

// LocalEngine simulates an episode: ghosts move by their own model, the sensor
// reports noisy distances and the manager tracks the ghosts from those readings.
type LocalEngine struct {
	grid       game.Grid
	sensor     sensor.Model
	manager    *tracker.Manager
	policy     Policy
	rng        *rand.Rand
	maxTurns   int
	layoutName string
	hook       func(int, []inference.Distribution)

	tracker game.Position
	ghosts  []*ghost
	score   int
}

func NewLocalEngine(
	grid game.Grid,
	emission sensor.Model,
	manager *tracker.Manager,
	start game.Position,
	ghosts []Ghost,
	options ...Option,
) (*LocalEngine, error) {
	if !grid.IsLegal(start) {
		return nil, fmt.Errorf("tracker start %v: %w", start, inference.ErrInvalidPosition)
	}
	if len(ghosts) == 0 {
		return nil, fmt.Errorf("need at least one ghost")
	}

	e := &LocalEngine{ // Default values
		grid:     grid,
		sensor:   emission,
		manager:  manager,
		policy:   NewStayPolicy(),
		rng:      rand.New(rand.NewSource(meta.Seed)),
		maxTurns: meta.MaxTurns,
		tracker:  start,
	}
	for _, option := range options {
		option(e)
	}

	for _, g := range ghosts {
		if !grid.IsLegal(g.Start) {
			return nil, fmt.Errorf("ghost %s start %v: %w", g.ID, g.Start, inference.ErrInvalidPosition)
		}
		e.ghosts = append(e.ghosts, &ghost{Ghost: g, position: g.Start, alive: true})
	}
	return e, nil
}

// Run executes the episode loop until every ghost is captured or the turn limit is hit.
func (e *LocalEngine) Run() (Result, error) {
	ids := make([]string, len(e.ghosts))
	for i, g := range e.ghosts {
		ids[i] = g.ID
	}
	if err := e.manager.Register(ids); err != nil {
		return Result{}, err
	}

	result := Result{IDs: ids}
	result.StartTime = time.Now()
	ticks := metrics.NewTickRecorder()

	log.Info().Msgf("tracker starts at %v hunting %d ghosts", e.tracker, len(e.ghosts))

	turn := 1
	for ; turn <= e.maxTurns && e.living() > 0; turn++ {
		readings := e.sense()
		living := e.livingFlags()
		beliefs, err := e.manager.Update(tracker.Turn{
			Tracker:  e.tracker,
			Readings: readings,
			Living:   living,
		})
		if err != nil {
			return result, fmt.Errorf("turn %d: %w", turn, err)
		}
		result.TurnMetrics = append(result.TurnMetrics, e.manager.LastMetric())
		if e.hook != nil {
			e.hook(turn, beliefs)
		}

		// Record the state the action is chosen from
		tick := metrics.TickRecord{
			Tick:      turn,
			Tracker:   e.tracker,
			Living:    living,
			Readings:  readings,
			Estimates: estimates(beliefs),
			Score:     e.score,
		}

		action := e.act(beliefs)
		tick.Direction = action
		ticks.Record(tick)

		e.tracker = e.tracker.Add(action)
		e.score -= meta.TimePenalty
		e.capture(turn)
		e.moveGhosts()
		e.capture(turn)
	}
	ticks.Flush(e.score)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Layout = e.layoutName
	result.Ghosts = len(e.ghosts)
	result.Captured = len(e.ghosts) - e.living()
	result.Score = e.score
	result.Turns = turn - 1
	result.Ticks = ticks.Records()
	result.Beliefs = e.manager.Beliefs()

	log.Info().Msgf("episode over after %d turns: captured %d of %d ghosts, score %d",
		turn-1, result.Captured, result.Ghosts, result.Score)
	return result, nil
}

func (e *LocalEngine) act(beliefs []inference.Distribution) game.Direction {
	legal := e.grid.LegalActions(e.tracker)
	action := e.policy.Act(e.tracker, legal, beliefs)
	if utils.FindIndex(legal, action) < 0 {
		log.Warn().Msgf("policy chose illegal action %s at %v, stopping instead", action, e.tracker)
		return game.Stop
	}
	return action
}

// sense samples a reading for every living ghost.
func (e *LocalEngine) sense() []sensor.Reading {
	readings := make([]sensor.Reading, len(e.ghosts))
	for i, g := range e.ghosts {
		if !g.alive {
			readings[i] = sensor.NoReading
			continue
		}
		dist := e.sensor.Distribution(game.ManhattanDistance(g.position, e.tracker))
		readings[i] = sample(dist, cmp.Compare[sensor.Reading], e.rng)
	}
	return readings
}

func (e *LocalEngine) moveGhosts() {
	for _, g := range e.ghosts {
		if !g.alive {
			continue
		}
		g.position = sample(g.Model.Transitions(g.position, e.tracker), comparePositions, e.rng)
	}
}

func (e *LocalEngine) capture(turn int) {
	for _, g := range e.ghosts {
		if g.alive && g.position == e.tracker {
			g.alive = false
			e.score += meta.CaptureReward
			log.Info().Msgf("captured ghost %s at %v on turn %d", g.ID, g.position, turn)
		}
	}
}

func (e *LocalEngine) living() int {
	return utils.Count(e.ghosts, func(g *ghost) bool { return g.alive })
}

func (e *LocalEngine) livingFlags() []bool {
	living := make([]bool, len(e.ghosts))
	for i, g := range e.ghosts {
		living[i] = g.alive
	}
	return living
}

func estimates(beliefs []inference.Distribution) []game.Position {
	positions := make([]game.Position, len(beliefs))
	for i, b := range beliefs {
		positions[i], _ = b.MostLikely()
	}
	return positions
}

func comparePositions(a, b game.Position) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

// sample draws from dist; keys are visited in sorted order so a seed replays an episode.
func sample[K comparable](dist map[K]float64, compare func(a, b K) int, rng *rand.Rand) K {
	keys := make([]K, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		panic("cannot sample from an empty distribution")
	}
	slices.SortFunc(keys, compare)

	r := rng.Float64()
	for _, k := range keys {
		r -= dist[k]
		if r < 0 {
			return k
		}
	}
	return keys[len(keys)-1]
}
