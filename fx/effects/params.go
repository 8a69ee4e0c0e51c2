package effects

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Params holds the parsed settings for one effect of a patch.
type Params struct {
	ID       string
	Type     string
	Bypassed bool
	Num      map[string]float64
	Str      map[string]string
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// Apply presets every named parameter of e from p. Numbers are converted to
// the parameter's declared type; strings are accepted for the oscillator
// shape. Keys are applied in sorted order so errors are deterministic.
func (p Params) Apply(e *canvas.Effect) error {
	for _, key := range sortedKeys(p.Num) {
		param := e.ParamByName(key)
		if param == nil {
			return fmt.Errorf("%w: %s has no parameter %q", canvas.ErrUnknownParameter, e.Name(), key)
		}

		v, err := ValueFor(param.Type(), p.Num[key])
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		if err = e.Preset(param.ID(), v); err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(p.Str) {
		param := e.ParamByName(key)
		if param == nil || e.Type() != TypeOscillator || param.ID() != ParamShape {
			return fmt.Errorf("%w: %s has no text parameter %q", canvas.ErrUnknownParameter, e.Name(), key)
		}

		s, err := ParseShape(p.Str[key])
		if err != nil {
			return err
		}

		if err = e.Preset(ParamShape, protocol.Enum(uint8(s))); err != nil {
			return err
		}
	}

	if p.Bypassed {
		return e.Preset(protocol.ParamEnabled, protocol.Bool(false))
	}

	return nil
}

// ValueFor converts a number to a value of type t. Integer and enum types
// reject fractional input.
func ValueFor(t protocol.ValueType, x float64) (protocol.Value, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return protocol.Value{}, fmt.Errorf("%w: %v is not finite", canvas.ErrParameterOutOfDomain, x)
	}

	switch t {
	case protocol.TypeBool:
		return protocol.Bool(x != 0), nil
	case protocol.TypeFloat:
		return protocol.Float(float32(x)), nil
	case protocol.TypeInt:
		if x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32 {
			return protocol.Value{}, fmt.Errorf("%w: %v is not an int32", canvas.ErrParameterOutOfDomain, x)
		}
		return protocol.Int(int32(x)), nil
	case protocol.TypeEnum:
		if x != math.Trunc(x) || x < 0 || x > math.MaxUint8 {
			return protocol.Value{}, fmt.Errorf("%w: %v is not an enum index", canvas.ErrParameterOutOfDomain, x)
		}
		return protocol.Enum(uint8(x)), nil
	default:
		return protocol.Value{}, fmt.Errorf("%w: unknown type %s", canvas.ErrParameterOutOfDomain, t)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
