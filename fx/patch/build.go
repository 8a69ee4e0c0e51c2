package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
)

// ErrBadReference is returned when an endpoint or parameter reference does
// not resolve on a built patch.
var ErrBadReference = errors.New("patch: bad reference")

// Patch is a File built onto a canvas.
type Patch struct {
	Name   string
	Canvas *canvas.Canvas
	MIDI   []MIDISpec

	units map[string]canvas.Unit
	ids   []string
	links [][2]*canvas.Node
}

// Build creates every effect through reg, attaches them to c in file order
// and connects the routes. Nothing is transmitted. If any step fails, the
// effects attached so far are detached again and c is left as it was.
func (f *File) Build(c *canvas.Canvas, reg *effects.Registry) (*Patch, error) {
	if reg == nil {
		reg = effects.DefaultRegistry()
	}

	p := &Patch{
		Name:   f.Name,
		Canvas: c,
		MIDI:   f.MIDI,
		units:  make(map[string]canvas.Unit, len(f.Effects)),
	}

	if err := p.build(f, reg); err != nil {
		p.rollback()
		return nil, err
	}

	return p, nil
}

func (p *Patch) build(f *File, reg *effects.Registry) error {
	for _, spec := range f.Effects {
		params, err := spec.params()
		if err != nil {
			return err
		}

		u, err := reg.Build(params)
		if err != nil {
			return fmt.Errorf("patch: effect %q: %w", spec.ID, err)
		}

		if err = p.Canvas.Attach(u); err != nil {
			return fmt.Errorf("patch: effect %q: %w", spec.ID, err)
		}

		p.units[spec.ID] = u
		p.ids = append(p.ids, spec.ID)
	}

	for i, r := range f.Routes {
		from, err := p.Node(r.From)
		if err != nil {
			return fmt.Errorf("patch: route %d: %w", i, err)
		}

		to, err := p.Node(r.To)
		if err != nil {
			return fmt.Errorf("patch: route %d: %w", i, err)
		}

		if err = p.Canvas.Connect(from, to); err != nil {
			return fmt.Errorf("patch: route %d (%s -> %s): %w", i, r.From, r.To, err)
		}

		p.links = append(p.links, [2]*canvas.Node{from, to})
	}

	return nil
}

// rollback also removes routes between system nodes, which detaching
// effects does not reach.
func (p *Patch) rollback() {
	for i := len(p.links) - 1; i >= 0; i-- {
		_ = p.Canvas.Disconnect(p.links[i][0], p.links[i][1])
	}

	for i := len(p.ids) - 1; i >= 0; i-- {
		_ = p.Canvas.Detach(p.units[p.ids[i]])
	}
}

// IDs returns the effect IDs in file order.
func (p *Patch) IDs() []string {
	return append([]string(nil), p.ids...)
}

// Effect returns the effect built for id, or nil.
func (p *Patch) Effect(id string) canvas.Unit {
	return p.units[id]
}

// Node resolves "_input", "_output" or "id.label".
func (p *Patch) Node(ref string) (*canvas.Node, error) {
	switch ref {
	case InputRef:
		return p.Canvas.InstrIn(), nil
	case OutputRef:
		return p.Canvas.AmpOut(), nil
	}

	e, label, err := p.split(ref)
	if err != nil {
		return nil, err
	}

	n := e.Node(label)
	if n == nil {
		return nil, fmt.Errorf("%w: %s has no node %q", ErrBadReference, e.Name(), label)
	}

	return n, nil
}

// Param resolves "id.param" to the effect and its parameter.
func (p *Patch) Param(ref string) (*canvas.Effect, *canvas.Param, error) {
	e, name, err := p.split(ref)
	if err != nil {
		return nil, nil, err
	}

	param := e.ParamByName(name)
	if param == nil {
		return nil, nil, fmt.Errorf("%w: %s has no parameter %q", ErrBadReference, e.Name(), name)
	}

	return e, param, nil
}

func (p *Patch) split(ref string) (*canvas.Effect, string, error) {
	id, name, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is not of the form id.name", ErrBadReference, ref)
	}

	u := p.units[id]
	if u == nil {
		return nil, "", fmt.Errorf("%w: unknown effect %q", ErrBadReference, id)
	}

	return u.Base(), name, nil
}

func (s EffectSpec) params() (effects.Params, error) {
	out := effects.Params{ID: s.ID, Type: s.Type, Bypassed: s.Bypassed}

	for k, v := range s.Params {
		switch x := v.(type) {
		case int:
			setNum(&out, k, float64(x))
		case float64:
			setNum(&out, k, x)
		case bool:
			b := 0.0
			if x {
				b = 1
			}
			setNum(&out, k, b)
		case string:
			if out.Str == nil {
				out.Str = make(map[string]string)
			}
			out.Str[k] = x
		default:
			return out, fmt.Errorf("%w: effect %q parameter %q has unsupported value %v", ErrInvalid, s.ID, k, v)
		}
	}

	return out, nil
}

func setNum(p *effects.Params, k string, v float64) {
	if p.Num == nil {
		p.Num = make(map[string]float64)
	}
	p.Num[k] = v
}
