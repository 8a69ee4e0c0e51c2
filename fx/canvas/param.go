package canvas

import (
	"fmt"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Mode is the ownership state of a parameter.
type Mode uint8

const (
	// Direct parameters accept host writes.
	Direct Mode = iota
	// Controlled parameters are driven by a control route; host writes are rejected.
	Controlled
)

// String returns "direct" or "controlled".
func (m Mode) String() string {
	if m == Controlled {
		return "controlled"
	}
	return "direct"
}

// Check validates a value against a parameter's domain. It is only called
// with values of the parameter's declared type.
type Check func(v protocol.Value) error

// ParamSpec declares one parameter slot of an effect type.
type ParamSpec struct {
	ID      protocol.ParamID
	Name    string
	Default protocol.Value
	// Check is optional; finite-ness of floats is always enforced.
	Check Check
}

// Param is one slot of an effect's parameter stack.
type Param struct {
	id    protocol.ParamID
	name  string
	vtype protocol.ValueType
	check Check

	value protocol.Value

	// sent is the value last transmitted for this slot; valid when hasSent.
	sent    protocol.Value
	hasSent bool

	mode    Mode
	control *Node
}

// ID returns the wire identifier of the parameter.
func (p *Param) ID() protocol.ParamID { return p.id }

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Type returns the declared value type.
func (p *Param) Type() protocol.ValueType { return p.vtype }

// Value returns the current in-memory value.
func (p *Param) Value() protocol.Value { return p.value }

// Mode returns whether the parameter is Direct or Controlled.
func (p *Param) Mode() Mode { return p.mode }

// Control returns the parameter's control input, or nil.
func (p *Param) Control() *Node { return p.control }

func (p *Param) validate(v protocol.Value) error {
	if v.Type() != p.vtype {
		return fmt.Errorf("%w: %s wants %s, got %s", ErrParameterOutOfDomain, p.name, p.vtype, v.Type())
	}

	if !v.IsFinite() {
		return fmt.Errorf("%w: %s must be finite", ErrParameterOutOfDomain, p.name)
	}

	if p.check == nil {
		return nil
	}

	if err := p.check(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParameterOutOfDomain, p.name, err)
	}

	return nil
}

// unchanged reports whether v equals the value last transmitted.
func (p *Param) unchanged(v protocol.Value) bool {
	return p.hasSent && p.sent == v
}

func (p *Param) commit(v protocol.Value) {
	p.value = v
	p.sent = v
	p.hasSent = true
}

// release returns the parameter to Direct mode. The coprocessor-side value
// has been moved by the modulator, so the dedup memory no longer holds.
func (p *Param) release() {
	p.mode = Direct
	p.hasSent = false
}

// FloatRange accepts floats in [lo, hi].
func FloatRange(lo, hi float32) Check {
	return func(v protocol.Value) error {
		if f := v.Float(); f < lo || f > hi {
			return fmt.Errorf("%g not in [%g, %g]", f, lo, hi)
		}
		return nil
	}
}

// Positive accepts floats strictly greater than zero.
func Positive() Check {
	return func(v protocol.Value) error {
		if f := v.Float(); f <= 0 {
			return fmt.Errorf("%g must be > 0", f)
		}
		return nil
	}
}

// IntRange accepts integers in [lo, hi].
func IntRange(lo, hi int32) Check {
	return func(v protocol.Value) error {
		if i := v.Int(); i < lo || i > hi {
			return fmt.Errorf("%d not in [%d, %d]", i, lo, hi)
		}
		return nil
	}
}

// EnumCount accepts enum indices below n.
func EnumCount(n uint8) Check {
	return func(v protocol.Value) error {
		if e := v.Enum(); e >= n {
			return fmt.Errorf("enum %d not below %d", e, n)
		}
		return nil
	}
}
