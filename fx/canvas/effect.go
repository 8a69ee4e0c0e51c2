package canvas

import (
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

const (
	portInput  = 0
	portOutput = 1

	// maxPorts bounds audio plus control ports so a port index fits a byte.
	maxPorts = protocol.Undefined
)

// Unit is anything that carries an Effect: the base itself or a catalog type
// embedding it.
type Unit interface {
	Base() *Effect
}

// Effect is the base contract shared by all effect types: the parameter
// stack, the port tables and the enable/bypass state. Catalog types embed it
// and delegate their mutators to SetParam, Enable and Bypass.
type Effect struct {
	typ  protocol.EffectType
	name string

	canvas   *Canvas
	instance int

	params   []*Param
	nodes    []*Node
	controls int
}

// NewEffect creates a detached effect of the given type with its enabled
// flag (parameter 0, default true) and primary audio input and output.
func NewEffect(typ protocol.EffectType, name string) (*Effect, error) {
	if len(name) > MaxNodeName {
		return nil, fmt.Errorf("canvas: effect name %q longer than %d bytes", name, MaxNodeName)
	}

	e := &Effect{typ: typ, name: name, instance: -1}

	_, err := e.DeclareParam(ParamSpec{
		ID:      protocol.ParamEnabled,
		Name:    "enabled",
		Default: protocol.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	if _, err = e.DeclareAudio("input", In); err != nil {
		return nil, err
	}

	if _, err = e.DeclareAudio("output", Out); err != nil {
		return nil, err
	}

	return e, nil
}

// Base returns e. It lets catalog types that embed *Effect satisfy Unit.
func (e *Effect) Base() *Effect { return e }

// Type returns the effect type tag.
func (e *Effect) Type() protocol.EffectType { return e.typ }

// Name returns the effect's display name.
func (e *Effect) Name() string { return e.name }

// Instance returns the instance ID, or -1 while detached.
func (e *Effect) Instance() int { return e.instance }

// Attached reports whether the effect belongs to a canvas.
func (e *Effect) Attached() bool { return e.canvas != nil }

// Canvas returns the owning canvas, or nil.
func (e *Effect) Canvas() *Canvas { return e.canvas }

// Enabled reports the in-memory enabled flag.
func (e *Effect) Enabled() bool { return e.params[0].value.Bool() }

// Input returns the primary audio input.
func (e *Effect) Input() *Node { return e.nodes[portInput] }

// Output returns the primary audio output.
func (e *Effect) Output() *Node { return e.nodes[portOutput] }

// Param returns the parameter with the given ID, or nil.
func (e *Effect) Param(id protocol.ParamID) *Param {
	for _, p := range e.params {
		if p.id == id {
			return p
		}
	}
	return nil
}

// ParamByName returns the parameter with the given name, or nil.
func (e *Effect) ParamByName(name string) *Param {
	for _, p := range e.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Params returns the parameter stack in declaration order.
func (e *Effect) Params() []*Param {
	return append([]*Param(nil), e.params...)
}

// Node returns the port with the given label, or nil.
func (e *Effect) Node(label string) *Node {
	for _, n := range e.nodes {
		if n.label == label {
			return n
		}
	}
	return nil
}

// Nodes returns all ports in port-index order.
func (e *Effect) Nodes() []*Node {
	return append([]*Node(nil), e.nodes...)
}

// DeclareParam adds a slot to the parameter stack. Declarations are only
// allowed while the effect is detached.
func (e *Effect) DeclareParam(spec ParamSpec) (*Param, error) {
	if e.canvas != nil {
		return nil, fmt.Errorf("%w: cannot declare parameter %q", ErrAlreadyAttached, spec.Name)
	}

	if len(e.params) >= MaxParamsPerFX {
		return nil, fmt.Errorf("%w: %s has %d parameters", ErrCapacityExceeded, e.name, MaxParamsPerFX)
	}

	if spec.Name == "" {
		return nil, fmt.Errorf("canvas: parameter %d has no name", spec.ID)
	}

	for _, p := range e.params {
		if p.id == spec.ID || p.name == spec.Name {
			return nil, fmt.Errorf("canvas: %w: parameter %d %q", errDuplicate, spec.ID, spec.Name)
		}
	}

	p := &Param{
		id:    spec.ID,
		name:  spec.Name,
		vtype: spec.Default.Type(),
		check: spec.Check,
	}

	if err := p.validate(spec.Default); err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}

	p.value = spec.Default
	e.params = append(e.params, p)

	return p, nil
}

// DeclareAudio adds an extra audio port.
func (e *Effect) DeclareAudio(label string, dir Direction) (*Node, error) {
	return e.declareNode(&Node{kind: KindAudio, dir: dir, vtype: protocol.TypeFloat, label: label})
}

// DeclareControlInput adds a control input that drives p.
func (e *Effect) DeclareControlInput(label string, p *Param) (*Node, error) {
	if p == nil || e.Param(p.id) != p {
		return nil, fmt.Errorf("%w: control input %q targets a foreign parameter", ErrIncompatibleNodes, label)
	}

	if p.control != nil {
		return nil, fmt.Errorf("canvas: %w: parameter %q already has a control input", errDuplicate, p.name)
	}

	n, err := e.declareControl(&Node{kind: KindControl, dir: In, vtype: p.vtype, label: label, param: p})
	if err != nil {
		return nil, err
	}

	p.control = n

	return n, nil
}

// DeclareControlOutput adds a control output carrying values of type t.
func (e *Effect) DeclareControlOutput(label string, t protocol.ValueType) (*Node, error) {
	return e.declareControl(&Node{kind: KindControl, dir: Out, vtype: t, label: label})
}

func (e *Effect) declareControl(n *Node) (*Node, error) {
	if e.controls >= MaxNodesPerFX {
		return nil, fmt.Errorf("%w: %s has %d control nodes", ErrCapacityExceeded, e.name, MaxNodesPerFX)
	}

	n, err := e.declareNode(n)
	if err != nil {
		return nil, err
	}

	e.controls++

	return n, nil
}

func (e *Effect) declareNode(n *Node) (*Node, error) {
	if e.canvas != nil {
		return nil, fmt.Errorf("%w: cannot declare node %q", ErrAlreadyAttached, n.label)
	}

	if n.label == "" || len(n.label) > MaxNodeName {
		return nil, fmt.Errorf("canvas: node label %q must be 1..%d bytes", n.label, MaxNodeName)
	}

	if len(e.nodes) >= maxPorts {
		return nil, fmt.Errorf("%w: %s has %d ports", ErrCapacityExceeded, e.name, maxPorts)
	}

	if e.Node(n.label) != nil {
		return nil, fmt.Errorf("canvas: %w: node %q", errDuplicate, n.label)
	}

	n.owner = e
	n.index = uint8(len(e.nodes))
	e.nodes = append(e.nodes, n)

	return n, nil
}

// Preset sets the initial value of a parameter without transmitting it. It
// is meant for constructors and patch loading and fails once attached.
func (e *Effect) Preset(id protocol.ParamID, v protocol.Value) error {
	if e.canvas != nil {
		return fmt.Errorf("%w: preset of parameter %d", ErrAlreadyAttached, id)
	}

	p := e.Param(id)
	if p == nil {
		return fmt.Errorf("%w: %s has no parameter %d", ErrUnknownParameter, e.name, id)
	}

	if err := p.validate(v); err != nil {
		return err
	}

	p.value = v

	return nil
}

// SetParam writes a parameter and transmits the change. It is a no-op when
// v equals the value last transmitted. Controlled parameters reject the
// write with ErrParameterControlled and no state change.
func (e *Effect) SetParam(id protocol.ParamID, v protocol.Value) error {
	if e.canvas == nil {
		return fmt.Errorf("%w: %s", ErrNotAttached, e.name)
	}

	p := e.Param(id)
	if p == nil {
		return fmt.Errorf("%w: %s has no parameter %d", ErrUnknownParameter, e.name, id)
	}

	return e.write(p, v)
}

// Enable turns the effect on. Repeated calls transmit nothing.
func (e *Effect) Enable() error {
	if e.canvas == nil {
		return fmt.Errorf("%w: %s", ErrNotAttached, e.name)
	}
	return e.write(e.params[0], protocol.Bool(true))
}

// Bypass turns the effect off so audio passes through unprocessed. Repeated
// calls transmit nothing.
func (e *Effect) Bypass() error {
	if e.canvas == nil {
		return fmt.Errorf("%w: %s", ErrNotAttached, e.name)
	}
	return e.write(e.params[0], protocol.Bool(false))
}

// write applies v to p; state is committed only after the transaction went
// out so that a failed write can be retried.
func (e *Effect) write(p *Param, v protocol.Value) error {
	if p.mode == Controlled {
		return fmt.Errorf("%w: %s.%s", ErrParameterControlled, e.name, p.name)
	}

	if err := p.validate(v); err != nil {
		return err
	}

	if p.unchanged(v) {
		return nil
	}

	err := e.canvas.transmit(e.transaction(p, v))
	if err != nil {
		return err
	}

	p.commit(v)

	return nil
}

func (e *Effect) transaction(p *Param, v protocol.Value) protocol.Transaction {
	return protocol.Transaction{
		Effect:   e.typ,
		Instance: uint8(e.instance),
		Param:    p.id,
		Value:    v,
	}
}

// Describe writes the enabled state, every parameter and the routing status
// of every node to w.
func (e *Effect) Describe(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, " Enabled: %t\n", e.Enabled())

	for _, p := range e.params[1:] {
		fmt.Fprintf(&b, " %s: %s", p.name, p.value)
		if p.mode == Controlled {
			b.WriteString(" (controlled)")
		}
		b.WriteByte('\n')
	}

	b.WriteString(" Routing:\n")

	for _, n := range e.nodes {
		mark := '*'
		if n.kind == KindControl {
			mark = '+'
		}

		status := "not routed"
		if n.Connected() {
			status = "routed"
		}

		fmt.Fprintf(&b, "  %c %s: %s\n", mark, n.label, status)
	}

	_, err := io.WriteString(w, b.String())

	return err
}
