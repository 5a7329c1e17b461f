package inference

import (
	"errors"
	"fmt"

	"busters/game"
	"busters/sensor"
)

var (
	// ErrImpossibleObservation means no legal position is consistent with a reading.
	ErrImpossibleObservation = errors.New("impossible observation")
	ErrInvalidPosition       = errors.New("invalid position")
	ErrUninitialized         = errors.New("filter not initialized")
)

// Filter tracks one adversary's position.
type Filter interface {
	// InitializeUniformly must be called before any other operation.
	InitializeUniformly()
	// Observe folds a reading taken from the tracker position into the belief.
	Observe(reading sensor.Reading, tracker game.Position) error
	// ElapseTime advances the belief by one move of the adversary.
	ElapseTime(tracker game.Position)
	BeliefDistribution() Distribution
	Removed() bool
}

// Recovery decides the belief left behind by an impossible observation.
type Recovery int

const (
	// ResetUniform restarts from the uniform distribution.
	ResetUniform Recovery = iota
	// RejectObservation discards the reading and keeps the prior.
	RejectObservation
)

func (r Recovery) String() string {
	if r == RejectObservation {
		return "reject"
	}
	return "reset"
}

func ParseRecovery(s string) (Recovery, error) {
	switch s {
	case "", "reset":
		return ResetUniform, nil
	case "reject":
		return RejectObservation, nil
	}
	return ResetUniform, fmt.Errorf("unknown recovery policy %q", s)
}

// NoReadingPolicy decides what a NoReading observation does.
type NoReadingPolicy int

const (
	// IgnoreNoReading leaves the belief unchanged.
	IgnoreNoReading NoReadingPolicy = iota
	// RemoveOnNoReading freezes the belief and marks the adversary removed.
	RemoveOnNoReading
	// ObserveNoReading weighs positions by the emission likelihood of NoReading.
	ObserveNoReading
)

func (p NoReadingPolicy) String() string {
	switch p {
	case RemoveOnNoReading:
		return "remove"
	case ObserveNoReading:
		return "observe"
	default:
		return "ignore"
	}
}

func ParseNoReadingPolicy(s string) (NoReadingPolicy, error) {
	switch s {
	case "", "ignore":
		return IgnoreNoReading, nil
	case "remove":
		return RemoveOnNoReading, nil
	case "observe":
		return ObserveNoReading, nil
	}
	return IgnoreNoReading, fmt.Errorf("unknown no-reading policy %q", s)
}

type Option func(b *base)

func WithRecovery(recovery Recovery) Option {
	return func(b *base) {
		b.recovery = recovery
	}
}

func WithNoReadingPolicy(policy NoReadingPolicy) Option {
	return func(b *base) {
		b.noReading = policy
	}
}
