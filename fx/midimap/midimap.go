// Package midimap turns incoming MIDI messages into effect edits: control
// changes scale onto a parameter range or switch an effect on and off, and
// notes toggle effects like a footswitch.
package midimap

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/patch"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// ErrBadBinding is returned for bindings that cannot work.
var ErrBadBinding = errors.New("midimap: bad binding")

type source uint8

const (
	sourceCC source = iota
	sourceNote
)

type binding struct {
	src     source
	channel uint8
	number  uint8

	effect *canvas.Effect
	param  *canvas.Param
	lo, hi float64
}

func (b binding) String() string {
	kind := "cc"
	if b.src == sourceNote {
		kind = "note"
	}
	return fmt.Sprintf("ch%d %s%d -> %s.%s", b.channel+1, kind, b.number, b.effect.Name(), b.param.Name())
}

// Map holds MIDI bindings. Handle is not safe for concurrent use unless a
// shared locker is configured with WithLocker.
type Map struct {
	logger   *slog.Logger
	mu       sync.Locker
	bindings []binding
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the logger for unmapped and failed messages.
func WithLogger(l *slog.Logger) Option {
	return func(m *Map) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLocker makes Handle hold l while it edits effects, so a MIDI listener
// goroutine can share a canvas with other callers.
func WithLocker(l sync.Locker) Option {
	return func(m *Map) {
		if l != nil {
			m.mu = l
		}
	}
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// New creates an empty map.
func New(opts ...Option) *Map {
	m := &Map{
		logger: slog.New(slog.DiscardHandler),
		mu:     noLock{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// FromPatch creates a map with the MIDI bindings of a built patch.
func FromPatch(p *patch.Patch, opts ...Option) (*Map, error) {
	m := New(opts...)

	for i, spec := range p.MIDI {
		e, param, err := p.Param(spec.Target)
		if err != nil {
			return nil, fmt.Errorf("midi binding %d: %w", i, err)
		}

		switch {
		case spec.Note != nil:
			err = m.BindNote(spec.Channel, *spec.Note, e)
		case spec.CC != nil:
			err = m.BindCC(spec.Channel, *spec.CC, e, param, spec.Min, spec.Max)
		}

		if err != nil {
			return nil, fmt.Errorf("midi binding %d: %w", i, err)
		}
	}

	return m, nil
}

// BindCC maps controller cc on channel (0-based) to param of e. The
// controller's 0..127 range is scaled linearly onto [lo, hi]; integer and
// enum parameters are rounded. A binding to the enabled flag switches the
// effect on at values of 64 and above and ignores lo and hi.
func (m *Map) BindCC(channel, cc uint8, e *canvas.Effect, param *canvas.Param, lo, hi float64) error {
	if err := checkSource(channel, cc); err != nil {
		return err
	}

	if e == nil || param == nil || e.Param(param.ID()) != param {
		return fmt.Errorf("%w: cc %d has no target parameter", ErrBadBinding, cc)
	}

	if param.ID() != protocol.ParamEnabled && param.Type() != protocol.TypeBool && lo == hi {
		return fmt.Errorf("%w: cc %d -> %s.%s has an empty range", ErrBadBinding, cc, e.Name(), param.Name())
	}

	m.bindings = append(m.bindings, binding{
		src: sourceCC, channel: channel, number: cc,
		effect: e, param: param, lo: lo, hi: hi,
	})

	return nil
}

// BindNote makes note-on of key on channel toggle e between enabled and bypassed.
func (m *Map) BindNote(channel, key uint8, e *canvas.Effect) error {
	if err := checkSource(channel, key); err != nil {
		return err
	}

	if e == nil {
		return fmt.Errorf("%w: note %d has no target effect", ErrBadBinding, key)
	}

	m.bindings = append(m.bindings, binding{
		src: sourceNote, channel: channel, number: key,
		effect: e, param: e.Param(protocol.ParamEnabled),
	})

	return nil
}

// Len returns the number of bindings.
func (m *Map) Len() int { return len(m.bindings) }

func checkSource(channel, number uint8) error {
	if channel > 15 || number > 127 {
		return fmt.Errorf("%w: channel %d number %d out of range", ErrBadBinding, channel, number)
	}
	return nil
}

// Handle applies msg to every matching binding. Messages without a binding
// are logged at debug level and ignored. Errors from the individual edits
// are joined.
func (m *Map) Handle(msg midi.Message) error {
	var ch, num, val uint8

	var src source

	switch {
	case msg.GetControlChange(&ch, &num, &val):
		src = sourceCC
	case msg.GetNoteStart(&ch, &num, &val):
		src = sourceNote
	default:
		m.logger.Debug("unhandled MIDI message", "msg", msg.String())
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error

	matched := false

	for _, b := range m.bindings {
		if b.src != src || b.channel != ch || b.number != num {
			continue
		}

		matched = true

		if err := b.apply(val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
		}
	}

	if !matched {
		m.logger.Debug("unmapped MIDI message", "msg", msg.String())
	}

	return errors.Join(errs...)
}

func (b binding) apply(val uint8) error {
	if b.src == sourceNote {
		if b.effect.Enabled() {
			return b.effect.Bypass()
		}
		return b.effect.Enable()
	}

	if b.param.ID() == protocol.ParamEnabled {
		if val >= 64 {
			return b.effect.Enable()
		}
		return b.effect.Bypass()
	}

	if b.param.Type() == protocol.TypeBool {
		return b.effect.SetParam(b.param.ID(), protocol.Bool(val >= 64))
	}

	x := b.lo + (b.hi-b.lo)*float64(val)/127
	if b.param.Type() != protocol.TypeFloat {
		x = math.Round(x)
	}

	v, err := effects.ValueFor(b.param.Type(), x)
	if err != nil {
		return err
	}

	return b.effect.SetParam(b.param.ID(), v)
}

// Listen feeds messages from in to Handle until the returned stop function
// is called. Failed edits and listener errors are logged as warnings.
func (m *Map) Listen(in drivers.In) (stop func(), err error) {
	return midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if err := m.Handle(msg); err != nil {
			m.logger.Warn("MIDI edit failed", "msg", msg.String(), "err", err)
		}
	}, midi.HandleError(func(err error) {
		m.logger.Warn("MIDI listener error", "in", in.String(), "err", err)
	}))
}
