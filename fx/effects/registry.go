package effects

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
)

// Factory builds one detached effect from patch parameters.
type Factory func(p Params) (canvas.Unit, error)

// Registry maps effect type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var (
	errDuplicateEffect = errors.New("duplicate effect type")

	// ErrUnknownType is returned by Build for unregistered type names.
	ErrUnknownType = errors.New("effects: unknown effect type")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given effect type.
func (r *Registry) Register(effectType string, factory Factory) error {
	if effectType == "" {
		return errors.New("empty effect type")
	}

	if factory == nil {
		return errors.New("nil factory")
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
		panic("effects registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect type, or nil.
func (r *Registry) Lookup(effectType string) Factory {
	return r.factories[effectType]
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// Build runs the factory registered for p.Type.
func (r *Registry) Build(p Params) (canvas.Unit, error) {
	f := r.Lookup(p.Type)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}

	u, err := f(p)
	if err != nil {
		return nil, fmt.Errorf("effects: build %s %q: %w", p.Type, p.ID, err)
	}

	return u, nil
}

// DefaultRegistry returns a Registry with every built-in effect type.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(NamePitchShift, func(p Params) (canvas.Unit, error) {
		fx, err := NewPitchShift(p.ID, float32(p.GetNum("freq_shift", defaultFreqShift)))
		if err != nil {
			return nil, err
		}

		return fx, p.Apply(fx.Effect)
	})
	r.MustRegister(NameGain, func(p Params) (canvas.Unit, error) {
		fx, err := NewGain(p.ID)
		if err != nil {
			return nil, err
		}

		return fx, p.Apply(fx.Effect)
	})
	r.MustRegister(NameRingMod, func(p Params) (canvas.Unit, error) {
		fx, err := NewRingMod(p.ID)
		if err != nil {
			return nil, err
		}

		return fx, p.Apply(fx.Effect)
	})
	r.MustRegister(NameOscillator, func(p Params) (canvas.Unit, error) {
		fx, err := NewOscillator(p.ID)
		if err != nil {
			return nil, err
		}

		return fx, p.Apply(fx.Effect)
	})

	return r
}
