package canvas

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

const (
	// MaxInstances is the number of effects a canvas can hold.
	MaxInstances = 100
	// MaxRoutes is the number of routes a canvas can hold.
	MaxRoutes = 100
	// MaxNodesPerFX is the number of control nodes an effect can declare.
	MaxNodesPerFX = 10
	// MaxParamsPerFX is the size of an effect's parameter stack.
	MaxParamsPerFX = 256
	// MaxNodeName is the longest node label or effect name in bytes.
	MaxNodeName = 32
)

const (
	portInstrIn = 0
	portAmpOut  = 1
)

// Transport carries frames to the coprocessor. Send blocks until the frame
// was delivered or failed.
type Transport interface {
	Send(f protocol.Frame) error
}

// Canvas owns effects and routes and is the only path from effects to the
// transport.
type Canvas struct {
	transport Transport
	logger    *slog.Logger

	effects [MaxInstances]*Effect
	count   int
	routes  []route

	system [2]*Node
}

// New creates an empty canvas that transmits through t.
func New(t Transport, opts ...Option) *Canvas {
	cfg := applyOptions(opts...)

	c := &Canvas{
		transport: t,
		logger:    cfg.logger,
		routes:    make([]route, 0, MaxRoutes),
	}

	// The instrument input feeds the graph and the amp output drains it, so
	// from the graph's point of view they are an output and an input.
	c.system[portInstrIn] = &Node{
		kind: KindAudio, dir: Out, vtype: protocol.TypeFloat,
		label: "instr_in", index: portInstrIn, system: c,
	}
	c.system[portAmpOut] = &Node{
		kind: KindAudio, dir: In, vtype: protocol.TypeFloat,
		label: "amp_out", index: portAmpOut, system: c,
	}

	return c
}

// InstrIn returns the system node carrying the instrument input into the graph.
func (c *Canvas) InstrIn() *Node { return c.system[portInstrIn] }

// AmpOut returns the system node feeding the amplifier output.
func (c *Canvas) AmpOut() *Node { return c.system[portAmpOut] }

// Len returns the number of attached effects.
func (c *Canvas) Len() int { return c.count }

// Effect returns the effect with the given instance ID, or nil.
func (c *Canvas) Effect(instance int) *Effect {
	if instance < 0 || instance >= MaxInstances {
		return nil
	}
	return c.effects[instance]
}

// Effects returns the attached effects in instance-ID order.
func (c *Canvas) Effects() []*Effect {
	out := make([]*Effect, 0, c.count)
	for _, e := range c.effects {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Routes returns the routes in the order they were connected.
func (c *Canvas) Routes() []Route {
	out := make([]Route, len(c.routes))
	for i, r := range c.routes {
		out[i] = r.public()
	}
	return out
}

// Node resolves a route endpoint back to its node, or nil.
func (c *Canvas) Node(ep Endpoint) *Node {
	if ep.Instance == int(protocol.Undefined) {
		if ep.Port < 0 || ep.Port >= len(c.system) {
			return nil
		}
		return c.system[ep.Port]
	}

	e := c.Effect(ep.Instance)
	if e == nil || ep.Port < 0 || ep.Port >= len(e.nodes) {
		return nil
	}

	return e.nodes[ep.Port]
}

// Attach adds an effect and assigns it the lowest free instance ID.
func (c *Canvas) Attach(u Unit) error {
	e := baseOf(u)
	if e == nil {
		return errors.New("canvas: attach of nil effect")
	}

	if e.canvas != nil {
		return fmt.Errorf("%w: %s is instance %d", ErrAlreadyAttached, e.name, e.instance)
	}

	if c.count >= MaxInstances {
		return fmt.Errorf("%w: %d instances", ErrCapacityExceeded, MaxInstances)
	}

	id := 0
	for c.effects[id] != nil {
		id++
	}

	c.effects[id] = e
	c.count++
	e.canvas = c
	e.instance = id

	// Nothing has been transmitted for this instance yet.
	for _, p := range e.params {
		p.hasSent = false
	}

	c.logger.Debug("attached effect", "name", e.name, "type", e.typ, "instance", id)

	return nil
}

// Detach removes an effect together with every route that touches it.
// Parameters that the effect was controlling return to Direct mode.
func (c *Canvas) Detach(u Unit) error {
	e := baseOf(u)
	if e == nil {
		return fmt.Errorf("%w: detach of nil effect", ErrNotAttached)
	}

	if e.canvas != c {
		return fmt.Errorf("%w: %s is not on this canvas", ErrNotAttached, e.name)
	}

	inst := uint8(e.instance)
	kept := c.routes[:0]

	for _, r := range c.routes {
		if r.touches(inst) {
			c.unlink(r)
			continue
		}
		kept = append(kept, r)
	}

	c.routes = kept

	c.effects[e.instance] = nil
	c.count--

	c.logger.Debug("detached effect", "name", e.name, "instance", e.instance)

	e.canvas = nil
	e.instance = -1

	return nil
}

// Connect routes from an output node to an input node of the same kind and
// value type. Each input accepts a single incoming route; outputs fan out.
// Audio routes must not close a cycle. Connecting into a parameter's control
// input puts the parameter into Controlled mode.
func (c *Canvas) Connect(from, to *Node) error {
	if from == nil || to == nil {
		return fmt.Errorf("%w: nil node", ErrIncompatibleNodes)
	}

	if from.canvas() != c || to.canvas() != c {
		return fmt.Errorf("%w: node not on this canvas", ErrNotAttached)
	}

	if err := checkCompatible(from, to); err != nil {
		return err
	}

	if to.Connected() {
		return fmt.Errorf("%w: input %s already has an incoming route", ErrIncompatibleNodes, nodeName(to))
	}

	if from.kind == KindAudio && c.reaches(to.owner, from.owner) {
		return fmt.Errorf("%w: %s -> %s would create a cycle", ErrIncompatibleNodes, nodeName(from), nodeName(to))
	}

	if len(c.routes) >= MaxRoutes {
		return fmt.Errorf("%w: %d routes", ErrRouteCapacityExceeded, MaxRoutes)
	}

	r := route{kind: from.kind.routeKind(), from: from.port(), to: to.port()}
	c.routes = append(c.routes, r)
	from.routes++
	to.routes++

	if to.param != nil {
		to.param.mode = Controlled
	}

	c.logger.Debug("connected", "kind", r.kind, "from", nodeName(from), "to", nodeName(to))

	return nil
}

// Disconnect removes the route between from and to. A parameter controlled
// through the route returns to Direct mode.
func (c *Canvas) Disconnect(from, to *Node) error {
	if from == nil || to == nil || from.canvas() != c || to.canvas() != c {
		return ErrNoRoute
	}

	fp, tp := from.port(), to.port()

	for i, r := range c.routes {
		if r.from != fp || r.to != tp {
			continue
		}

		c.routes = append(c.routes[:i], c.routes[i+1:]...)
		c.unlink(r)

		c.logger.Debug("disconnected", "kind", r.kind, "from", nodeName(from), "to", nodeName(to))

		return nil
	}

	return fmt.Errorf("%w: %s -> %s", ErrNoRoute, nodeName(from), nodeName(to))
}

// unlink updates the node bookkeeping for a route that is being removed.
func (c *Canvas) unlink(r route) {
	from, to := c.resolve(r.from), c.resolve(r.to)

	from.routes--
	to.routes--

	if to.param != nil {
		to.param.release()
	}
}

// resolve maps a port back to the node it addresses.
func (c *Canvas) resolve(p protocol.Port) *Node {
	if p.Instance == protocol.Undefined {
		return c.system[p.Node]
	}
	return c.effects[p.Instance].nodes[p.Node]
}

// reaches reports whether audio flows from effect a to effect b through
// existing routes. System nodes never close a cycle.
func (c *Canvas) reaches(a, b *Effect) bool {
	if a == nil || b == nil {
		return false
	}

	if a == b {
		return true
	}

	seen := map[uint8]bool{}
	stack := []uint8{uint8(a.instance)}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == uint8(b.instance) {
			return true
		}

		if seen[cur] {
			continue
		}
		seen[cur] = true

		for _, r := range c.routes {
			if r.kind == protocol.RouteAudio && r.from.Instance == cur && r.to.Instance != protocol.Undefined {
				stack = append(stack, r.to.Instance)
			}
		}
	}

	return false
}

func checkCompatible(from, to *Node) error {
	if from.dir != Out || to.dir != In {
		return fmt.Errorf("%w: %s (%s) -> %s (%s) needs an output and an input",
			ErrIncompatibleNodes, nodeName(from), from.dir, nodeName(to), to.dir)
	}

	if from.kind != to.kind {
		return fmt.Errorf("%w: %s node %s -> %s node %s",
			ErrIncompatibleNodes, from.kind, nodeName(from), to.kind, nodeName(to))
	}

	if from.vtype != to.vtype {
		return fmt.Errorf("%w: %s carries %s, %s wants %s",
			ErrIncompatibleNodes, nodeName(from), from.vtype, nodeName(to), to.vtype)
	}

	return nil
}

// transmit is the single path from effects to the transport. Frames reach
// the transport in call order.
func (c *Canvas) transmit(tx protocol.Transaction) error {
	err := c.send(tx.Frame())
	if err != nil {
		c.logger.Warn("transaction failed", "tx", tx, "err", err)
		return err
	}

	c.logger.Debug("transmitted", "tx", tx)

	return nil
}

func (c *Canvas) send(f protocol.Frame) error {
	if c.transport == nil {
		return fmt.Errorf("%w: no transport", ErrTransportFailure)
	}

	if err := c.transport.Send(f); err != nil {
		return fmt.Errorf("%w: %s frame: %w", ErrTransportFailure, f.Kind, err)
	}

	return nil
}

// Sync transmits the whole graph: a reset, one declaration per effect, every
// route, then every parameter of every effect. It re-establishes the graph
// after the coprocessor was reset. On failure the sync stops and should be
// repeated.
func (c *Canvas) Sync() error {
	if err := c.send(protocol.Reset()); err != nil {
		return err
	}

	effects := c.Effects()

	for _, e := range effects {
		d := protocol.Declare{Effect: e.typ, Instance: uint8(e.instance)}
		if err := c.send(d.Frame()); err != nil {
			return err
		}
	}

	for _, r := range c.routes {
		if err := c.send(c.routeDecl(r).Frame()); err != nil {
			return err
		}
	}

	for _, e := range effects {
		for _, p := range e.params {
			if err := c.transmit(e.transaction(p, p.value)); err != nil {
				return err
			}
			p.commit(p.value)
		}
	}

	c.logger.Info("canvas synced", "effects", len(effects), "routes", len(c.routes))

	return nil
}

func (c *Canvas) routeDecl(r route) protocol.RouteDecl {
	d := protocol.RouteDecl{Kind: r.kind, From: r.from, To: r.to, Param: protocol.Undefined}
	if p := c.resolve(r.to).param; p != nil {
		d.Param = p.id
	}
	return d
}

// Describe writes every effect's state followed by the route table to w.
func (c *Canvas) Describe(w io.Writer) error {
	for _, e := range c.Effects() {
		if _, err := fmt.Fprintf(w, "[%d] %s (type %d)\n", e.instance, e.name, e.typ); err != nil {
			return err
		}

		if err := e.Describe(w); err != nil {
			return err
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Routes (%d/%d):\n", len(c.routes), MaxRoutes)

	for _, r := range c.routes {
		fmt.Fprintf(&b, "  %s: %s -> %s\n", r.kind, nodeName(c.resolve(r.from)), nodeName(c.resolve(r.to)))
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func nodeName(n *Node) string {
	if n.owner == nil {
		return n.label
	}
	return n.owner.name + "." + n.label
}

func baseOf(u Unit) *Effect {
	if u == nil {
		return nil
	}
	return u.Base()
}
