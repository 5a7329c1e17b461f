package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"busters/engine"
	"busters/game"
	"busters/inference"
	"busters/meta"
	"busters/motion"
	"busters/sensor"
	"busters/tracker"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Sensor struct {
	Spread   *int   `yaml:"spread"` // Unset means sensor.DefaultSpread
	Kernel   string `yaml:"kernel"`
	MaxRange int    `yaml:"maxRange"`
}

type Ghost struct {
	ID       string        `yaml:"id"`
	Start    game.Position `yaml:"start"`
	Movement string        `yaml:"movement"` // uniform, toward or away
	Bias     float64       `yaml:"bias"`
	Stay     bool          `yaml:"stay"`
}

type Tracker struct {
	Start  game.Position `yaml:"start"`
	Policy string        `yaml:"policy"` // stay or random
}

type Server struct {
	Addr string `yaml:"addr"` // Empty disables the belief server
}

// Config describes a hunt: the map, the sensor, the ghosts and how beliefs are updated.
type Config struct {
	Filter          string   `yaml:"filter"` // exact or keyboard
	Observe         bool     `yaml:"observe"`
	Elapse          bool     `yaml:"elapse"`
	Order           string   `yaml:"order"`
	Goroutines      int      `yaml:"goroutines"`
	SkipFirstElapse bool     `yaml:"skipFirstElapse"`
	Recovery        string   `yaml:"recovery"`
	NoReading       string   `yaml:"noReading"`
	Sensor          Sensor   `yaml:"sensor"`
	Ghosts          []Ghost  `yaml:"ghosts"`
	Tracker         Tracker  `yaml:"tracker"`
	Layout          string   `yaml:"layout"`
	Rows            []string `yaml:"rows"` // Takes precedence over Layout
	Turns           int      `yaml:"turns"`
	Episodes        int      `yaml:"episodes"`
	Seed            uint64   `yaml:"seed"`
	Output          string   `yaml:"output"`
	Server          Server   `yaml:"server"`
}

// Default hunts two ghosts on the small built-in layout.
func Default() Config {
	return Config{
		Filter:     "exact",
		Observe:    true,
		Elapse:     true,
		Order:      tracker.ElapseThenObserve.String(),
		Goroutines: meta.Goroutines,
		Recovery:   inference.ResetUniform.String(),
		NoReading:  inference.IgnoreNoReading.String(),
		Ghosts: []Ghost{
			{ID: "blinky", Start: game.Position{X: 18, Y: 5}, Movement: "uniform"},
			{ID: "pinky", Start: game.Position{X: 9, Y: 1}, Movement: "away", Bias: 0.8},
		},
		Tracker:  Tracker{Start: game.Position{X: 1, Y: 1}, Policy: "random"},
		Layout:   "smallHunt",
		Turns:    meta.MaxTurns,
		Episodes: meta.Episodes,
		Seed:     meta.Seed,
		Output:   meta.OutputDir,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// A document that sets ghosts replaces the default ones
		cfg.Ghosts = nil
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if cfg.Ghosts == nil {
			cfg.Ghosts = Default().Ghosts
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field, including that the start positions are open cells.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	grid, err := c.Grid()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Filter != "exact" && c.Filter != "keyboard" {
		return invalid("unknown filter %q", c.Filter)
	}
	if _, err := c.managerOptions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.filterOptions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.SensorModel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Goroutines <= 0 {
		return invalid("goroutines must be positive, got %d", c.Goroutines)
	}
	if c.Turns <= 0 {
		return invalid("turns must be positive, got %d", c.Turns)
	}
	if c.Episodes <= 0 {
		return invalid("episodes must be positive, got %d", c.Episodes)
	}
	if c.Tracker.Policy != "stay" && c.Tracker.Policy != "random" {
		return invalid("unknown tracker policy %q", c.Tracker.Policy)
	}
	if !grid.IsLegal(c.Tracker.Start) {
		return invalid("tracker start %v is not an open cell", c.Tracker.Start)
	}

	if len(c.Ghosts) == 0 {
		return invalid("no ghosts")
	}
	seen := make(map[string]bool, len(c.Ghosts))
	for i, g := range c.Ghosts {
		if g.ID == "" {
			return invalid("ghost %d has no id", i)
		}
		if seen[g.ID] {
			return invalid("duplicate ghost id %s", g.ID)
		}
		seen[g.ID] = true
		if !grid.IsLegal(g.Start) {
			return invalid("ghost %s start %v is not an open cell", g.ID, g.Start)
		}
		switch g.Movement {
		case "", "uniform", "toward", "away":
		default:
			return invalid("ghost %s: unknown movement %q", g.ID, g.Movement)
		}
		if g.Bias < 0 || g.Bias > 1 {
			return invalid("ghost %s: bias %v outside [0, 1]", g.ID, g.Bias)
		}
	}
	return nil
}

// Grid parses the inline rows, or loads the named built-in layout.
func (c Config) Grid() (*game.Layout, error) {
	if len(c.Rows) > 0 {
		return game.ParseLayout(c.Rows)
	}
	return game.LoadLayout(c.Layout)
}

// LayoutName names the map in experiment records.
func (c Config) LayoutName() string {
	if len(c.Rows) > 0 {
		return "custom"
	}
	return c.Layout
}

func (c Config) SensorModel() (*sensor.Noisy, error) {
	kernel, err := sensor.ParseKernel(c.Sensor.Kernel)
	if err != nil {
		return nil, err
	}
	spread := sensor.DefaultSpread
	if c.Sensor.Spread != nil {
		spread = *c.Sensor.Spread
	}
	if spread < 0 {
		return nil, fmt.Errorf("negative sensor spread %d", spread)
	}
	if c.Sensor.MaxRange < 0 {
		return nil, fmt.Errorf("negative sensor range %d", c.Sensor.MaxRange)
	}
	return sensor.NewNoisy(
		sensor.WithSpread(spread),
		sensor.WithKernel(kernel),
		sensor.WithMaxRange(c.Sensor.MaxRange),
	), nil
}

// MotionModel builds the movement model of a ghost, shared by the simulation and its filter.
func (g Ghost) MotionModel(grid game.Grid) motion.Model {
	switch g.Movement {
	case "toward":
		return motion.NewDirected(grid, g.Bias, true, g.Stay)
	case "away":
		return motion.NewDirected(grid, g.Bias, false, g.Stay)
	default:
		return motion.NewUniform(grid, g.Stay)
	}
}

func (c Config) managerOptions() ([]tracker.Option, error) {
	order, err := tracker.ParseOrder(c.Order)
	if err != nil {
		return nil, err
	}
	return []tracker.Option{
		tracker.WithObserve(c.Observe),
		tracker.WithElapse(c.Elapse),
		tracker.WithOrder(order),
		tracker.WithSkipFirstElapse(c.SkipFirstElapse),
		tracker.WithGoroutines(c.Goroutines),
	}, nil
}

func (c Config) filterOptions() ([]inference.Option, error) {
	recovery, err := inference.ParseRecovery(c.Recovery)
	if err != nil {
		return nil, err
	}
	noReading, err := inference.ParseNoReadingPolicy(c.NoReading)
	if err != nil {
		return nil, err
	}
	return []inference.Option{
		inference.WithRecovery(recovery),
		inference.WithNoReadingPolicy(noReading),
	}, nil
}

// Hunt holds everything needed to run the episodes of a config.
type Hunt struct {
	Grid       *game.Layout
	Sensor     *sensor.Noisy
	Ghosts     []engine.Ghost
	Start      game.Position
	LayoutName string

	factory        tracker.Factory
	managerOptions []tracker.Option
	policy         string
	turns          int
	seed           uint64
}

// Build validates the config and assembles its collaborators.
func (c Config) Build() (*Hunt, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	grid, _ := c.Grid()
	emission, _ := c.SensorModel()
	managerOptions, _ := c.managerOptions()
	filterOptions, _ := c.filterOptions()

	h := &Hunt{
		Grid:           grid,
		Sensor:         emission,
		Start:          c.Tracker.Start,
		LayoutName:     c.LayoutName(),
		managerOptions: managerOptions,
		policy:         c.Tracker.Policy,
		turns:          c.Turns,
		seed:           c.Seed,
	}

	models := make(map[string]motion.Model, len(c.Ghosts))
	for _, g := range c.Ghosts {
		model := g.MotionModel(grid)
		models[g.ID] = model
		h.Ghosts = append(h.Ghosts, engine.Ghost{ID: g.ID, Start: g.Start, Model: model})
	}

	keyboard := c.Filter == "keyboard"
	h.factory = func(id string) inference.Filter {
		if keyboard {
			return inference.NewKeyboard(grid, emission, filterOptions...)
		}
		model, ok := models[id]
		if !ok {
			model = motion.NewUniform(grid, false)
		}
		return inference.NewExact(grid, emission, model, filterOptions...)
	}
	return h, nil
}

// NewManager creates a manager for one episode; extra options are applied last.
func (h *Hunt) NewManager(options ...tracker.Option) *tracker.Manager {
	return tracker.NewManager(h.Grid, h.factory, slices.Concat(h.managerOptions, options)...)
}

// NewEngine creates the engine of the given episode, which offsets the seed.
func (h *Hunt) NewEngine(manager *tracker.Manager, episode int, options ...engine.Option) (*engine.LocalEngine, error) {
	seed := h.seed + uint64(episode)
	policy := engine.NewStayPolicy()
	if h.policy == "random" {
		policy = engine.NewRandomPolicy(seed)
	}
	defaults := []engine.Option{
		engine.WithPolicy(policy),
		engine.WithSeed(seed),
		engine.WithMaxTurns(h.turns),
		engine.WithLayoutName(h.LayoutName),
	}
	return engine.NewLocalEngine(h.Grid, h.Sensor, manager, h.Start, h.Ghosts, slices.Concat(defaults, options)...)
}
