package effect

import (
	"errors"
	"fmt"
)

// Factory builds one Runtime instance for a node.
type Factory func(ctx Context) (Runtime, error)

// Registry maps effect type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateEffect = errors.New("effect: duplicate effect type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given effect type.
func (r *Registry) Register(effectType string, factory Factory) error {
	if effectType == "" {
		return errors.New("effect: empty effect type")
	}

	if factory == nil {
		return errors.New("effect: nil factory")
	}

	if _, exists := r.factories[effectType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, effectType)
	}

	r.factories[effectType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(effectType string, factory Factory) {
	err := r.Register(effectType, factory)
	if err != nil {
		panic("effect registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect type, or nil.
func (r *Registry) Lookup(effectType string) Factory {
	return r.factories[effectType]
}

// DefaultRegistry returns a Registry pre-populated with the built-in
// effect runtimes.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("passthrough", func(_ Context) (Runtime, error) {
		return &passthroughRuntime{}, nil
	})
	r.MustRegister("gain", func(_ Context) (Runtime, error) {
		return &gainRuntime{gain: 1}, nil
	})
	r.MustRegister("detune", func(_ Context) (Runtime, error) {
		return &detuneRuntime{ratio: 1}, nil
	})
	r.MustRegister("harmonics", func(_ Context) (Runtime, error) {
		return &harmonicsRuntime{count: 1, rolloff: defaultRolloff}, nil
	})
	r.MustRegister("envelope", func(_ Context) (Runtime, error) {
		return &envelopeRuntime{level: 1}, nil
	})
	r.MustRegister("delay", func(_ Context) (Runtime, error) {
		return &delayRuntime{}, nil
	})
	r.MustRegister("mix", func(_ Context) (Runtime, error) {
		return &mixRuntime{policy: MergeError}, nil
	})

	return r
}
