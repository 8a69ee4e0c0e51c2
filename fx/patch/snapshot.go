package patch

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Snapshot captures the current state of c as a patch file. Effect names
// become IDs and must be unique.
func Snapshot(name string, c *canvas.Canvas) (*File, error) {
	f := &File{Name: name}
	seen := make(map[string]bool)

	for _, e := range c.Effects() {
		typ := effects.TypeName(e.Type())
		if typ == "" {
			return nil, fmt.Errorf("%w: effect %q has unregistered type %d", ErrInvalid, e.Name(), e.Type())
		}

		if seen[e.Name()] {
			return nil, fmt.Errorf("%w: duplicate effect name %q", ErrInvalid, e.Name())
		}
		seen[e.Name()] = true

		spec := EffectSpec{ID: e.Name(), Type: typ, Bypassed: !e.Enabled()}

		for _, p := range e.Params() {
			if p.ID() == protocol.ParamEnabled {
				continue
			}

			if spec.Params == nil {
				spec.Params = make(map[string]any)
			}

			spec.Params[p.Name()] = plain(e, p)
		}

		f.Effects = append(f.Effects, spec)
	}

	for _, r := range c.Routes() {
		f.Routes = append(f.Routes, RouteSpec{
			From: ref(c.Node(r.From)),
			To:   ref(c.Node(r.To)),
		})
	}

	return f, f.Validate()
}

func ref(n *canvas.Node) string {
	switch {
	case n == nil:
		return ""
	case n.Owner() == nil && n.Direction() == canvas.Out:
		return InputRef
	case n.Owner() == nil:
		return OutputRef
	default:
		return n.Owner().Name() + "." + n.Label()
	}
}

// plain converts a parameter value to what the YAML encoder writes.
func plain(e *canvas.Effect, p *canvas.Param) any {
	v := p.Value()

	switch v.Type() {
	case protocol.TypeBool:
		return v.Bool()
	case protocol.TypeInt:
		return int(v.Int())
	case protocol.TypeEnum:
		if e.Type() == effects.TypeOscillator && p.ID() == effects.ParamShape {
			return effects.Shape(v.Enum()).String()
		}
		return int(v.Enum())
	default:
		// Shortest decimal that round-trips through float32.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v.Float()), 'g', -1, 32), 64)
		return f
	}
}
