package dspsim

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
	"github.com/cwbudde/algo-fxhost/fx/transport"
)

var (
	// ErrUnknownInstance is returned for frames addressing an undeclared instance.
	ErrUnknownInstance = errors.New("dspsim: unknown instance")
	// ErrUnknownType is returned when declaring an effect type the model lacks.
	ErrUnknownType = errors.New("dspsim: unknown effect type")
	// ErrTypeMismatch is returned when a transaction's effect type disagrees
	// with the declared instance.
	ErrTypeMismatch = errors.New("dspsim: effect type mismatch")
	// ErrCycle is returned by Process when the audio routes contain a cycle.
	ErrCycle = errors.New("dspsim: audio graph contains a cycle")
)

// Coprocessor mirrors the graph described by received frames. It implements
// the canvas transport interface and is safe for concurrent use.
type Coprocessor struct {
	mu  sync.Mutex
	cfg Config

	instances map[uint8]*instance
	routes    []protocol.RouteDecl
	received  int
}

// New creates an empty coprocessor.
func New(opts ...Option) *Coprocessor {
	return &Coprocessor{
		cfg:       applyOptions(opts...),
		instances: make(map[uint8]*instance),
	}
}

// Config returns the simulator settings.
func (c *Coprocessor) Config() Config { return c.cfg }

// Send applies one frame. Rejected frames leave the mirrored state unchanged.
func (c *Coprocessor) Send(f protocol.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error

	switch f.Kind {
	case protocol.KindReset:
		clear(c.instances)
		c.routes = c.routes[:0]
	case protocol.KindDeclare:
		err = c.declare(f.Body)
	case protocol.KindRoute:
		err = c.route(f.Body)
	case protocol.KindParam:
		err = c.param(f.Body)
	default:
		err = fmt.Errorf("%w: %s", protocol.ErrUnknownKind, f.Kind)
	}

	if err == nil {
		c.received++
	}

	return err
}

func (c *Coprocessor) declare(body []byte) error {
	d, err := protocol.DecodeDeclare(body)
	if err != nil {
		return err
	}

	if effects.TypeName(d.Effect) == "" {
		return fmt.Errorf("%w: %d", ErrUnknownType, d.Effect)
	}

	if d.Instance == protocol.Undefined {
		return fmt.Errorf("%w: instance %d is reserved", ErrUnknownInstance, d.Instance)
	}

	inst, err := newInstance(d.Effect, c.cfg.SampleRate)
	if err != nil {
		return err
	}

	c.instances[d.Instance] = inst

	return nil
}

func (c *Coprocessor) route(body []byte) error {
	r, err := protocol.DecodeRoute(body)
	if err != nil {
		return err
	}

	for _, p := range []protocol.Port{r.From, r.To} {
		if p.Instance == protocol.Undefined {
			continue
		}

		if c.instances[p.Instance] == nil {
			return fmt.Errorf("%w: route endpoint %d:%d", ErrUnknownInstance, p.Instance, p.Node)
		}
	}

	c.routes = append(c.routes, r)

	return nil
}

func (c *Coprocessor) param(body []byte) error {
	tx, err := protocol.DecodeTransaction(body)
	if err != nil {
		return err
	}

	inst := c.instances[tx.Instance]
	if inst == nil {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, tx)
	}

	if inst.typ != tx.Effect {
		return fmt.Errorf("%w: %s addresses type %d", ErrTypeMismatch, tx, inst.typ)
	}

	inst.params[tx.Param] = tx.Value

	return nil
}

// Instances returns the number of declared instances.
func (c *Coprocessor) Instances() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.instances)
}

// Routes returns the received routes in order.
func (c *Coprocessor) Routes() []protocol.RouteDecl {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]protocol.RouteDecl(nil), c.routes...)
}

// Param returns the value last received for a parameter.
func (c *Coprocessor) Param(instance uint8, id protocol.ParamID) (protocol.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := c.instances[instance]
	if inst == nil {
		return protocol.Value{}, false
	}

	v, ok := inst.params[id]

	return v, ok
}

// Received returns the number of accepted frames.
func (c *Coprocessor) Received() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.received
}

// Serve reads frames from r and answers each with one status byte on w,
// the way the coprocessor's bus interface does. Frames with a bad checksum
// or that Send rejects are answered with Nak. Serve returns nil when r is
// exhausted.
func (c *Coprocessor) Serve(r io.Reader, w io.Writer) error {
	fr := protocol.NewReader(r)
	status := []byte{0}

	for {
		f, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}

		switch {
		case errors.Is(err, protocol.ErrChecksum), errors.Is(err, protocol.ErrUnknownKind):
			status[0] = transport.Nak
		case err != nil:
			return err
		case c.Send(f) != nil:
			status[0] = transport.Nak
		default:
			status[0] = transport.Ack
		}

		if _, err = w.Write(status); err != nil {
			return err
		}
	}
}
