package effects

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
	"github.com/cwbudde/algo-fxhost/fx/transport"
)

func attached(t *testing.T, units ...canvas.Unit) (*canvas.Canvas, *transport.Recorder) {
	t.Helper()

	rec := transport.NewRecorder()
	c := canvas.New(rec)

	for _, u := range units {
		if err := c.Attach(u); err != nil {
			t.Fatalf("Attach(%s): %v", u.Base().Name(), err)
		}
	}

	return c, rec
}

func TestPitchShift(t *testing.T) {
	t.Parallel()

	ps, err := NewPitchShift("", 1)
	if err != nil {
		t.Fatalf("NewPitchShift: %v", err)
	}

	if ps.Name() != NamePitchShift || ps.Type() != TypePitchShift {
		t.Fatalf("name/type = %q/%d", ps.Name(), ps.Type())
	}

	if ps.FreqShift() != 1 {
		t.Fatalf("default ratio = %v, want 1", ps.FreqShift())
	}

	_, rec := attached(t, ps)

	if err = ps.SetFreqShift(2); err != nil {
		t.Fatalf("SetFreqShift(2): %v", err)
	}

	want := protocol.Transaction{Effect: TypePitchShift, Instance: 0, Param: ParamFreqShift, Value: protocol.Float(2)}
	if txs := rec.Transactions(); len(txs) != 1 || txs[0] != want {
		t.Fatalf("transactions = %v, want [%v]", txs, want)
	}

	for _, bad := range []float32{0, -1} {
		if err = ps.SetFreqShift(bad); !errors.Is(err, canvas.ErrParameterOutOfDomain) {
			t.Errorf("SetFreqShift(%v): expected ErrParameterOutOfDomain, got %v", bad, err)
		}
	}

	if ps.FreqShift() != 2 {
		t.Errorf("ratio = %v after rejected writes", ps.FreqShift())
	}

	// Only positivity is required; there is no upper bound.
	if err = ps.SetFreqShift(8); err != nil {
		t.Fatalf("SetFreqShift(8): %v", err)
	}

	ctrl := ps.FreqShiftControl()
	if ctrl.Kind() != canvas.KindControl || ctrl.Param().ID() != ParamFreqShift {
		t.Errorf("control input = %s bound to %v", ctrl.Kind(), ctrl.Param())
	}
}

func TestNewPitchShiftRatio(t *testing.T) {
	t.Parallel()

	ps, err := NewPitchShift("up", 1.5)
	if err != nil {
		t.Fatalf("NewPitchShift: %v", err)
	}

	if ps.FreqShift() != 1.5 {
		t.Errorf("initial ratio = %v, want 1.5", ps.FreqShift())
	}

	for _, bad := range []float32{0, -2} {
		if _, err = NewPitchShift("bad", bad); !errors.Is(err, canvas.ErrParameterOutOfDomain) {
			t.Errorf("NewPitchShift(%v): expected ErrParameterOutOfDomain, got %v", bad, err)
		}
	}
}

func TestOscillatorDrivesPitchShift(t *testing.T) {
	t.Parallel()

	lfo, err := NewOscillator("wobble")
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}

	ps, err := NewPitchShift("shift", 1)
	if err != nil {
		t.Fatalf("NewPitchShift: %v", err)
	}

	c, rec := attached(t, lfo, ps)

	if err = c.Connect(lfo.Value(), ps.FreqShiftControl()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err = ps.SetFreqShift(1.5); !errors.Is(err, canvas.ErrParameterControlled) {
		t.Fatalf("expected ErrParameterControlled, got %v", err)
	}

	if err = lfo.SetRate(4); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	if err = lfo.SetShape(ShapeSquare); err != nil {
		t.Fatalf("SetShape: %v", err)
	}

	txs := rec.Transactions()
	if len(txs) != 2 || txs[1].Value != protocol.Enum(uint8(ShapeSquare)) {
		t.Fatalf("transactions = %v", txs)
	}
}

func TestGainAndRingMod(t *testing.T) {
	t.Parallel()

	g, err := NewGain("boost")
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}

	rm, err := NewRingMod("")
	if err != nil {
		t.Fatalf("NewRingMod: %v", err)
	}

	c, _ := attached(t, g, rm)

	if err = g.SetLevel(5); !errors.Is(err, canvas.ErrParameterOutOfDomain) {
		t.Errorf("SetLevel(5): expected ErrParameterOutOfDomain, got %v", err)
	}

	if err = g.SetLevel(0.5); err != nil || g.Level() != 0.5 {
		t.Errorf("SetLevel(0.5) = %v, level %v", err, g.Level())
	}

	if err = rm.SetMix(1.5); !errors.Is(err, canvas.ErrParameterOutOfDomain) {
		t.Errorf("SetMix(1.5): expected ErrParameterOutOfDomain, got %v", err)
	}

	if err = rm.SetCarrier(30); err != nil {
		t.Errorf("SetCarrier: %v", err)
	}

	// A second audio input takes an audio source, not a control one.
	if err = c.Connect(g.Output(), rm.CarrierInput()); err != nil {
		t.Errorf("Connect to carrier_in: %v", err)
	}

	if err = c.Connect(g.Output(), rm.CarrierControl()); !errors.Is(err, canvas.ErrIncompatibleNodes) {
		t.Errorf("audio into carrier control: expected ErrIncompatibleNodes, got %v", err)
	}
}

func TestParseShape(t *testing.T) {
	t.Parallel()

	for i, name := range []string{"sine", "triangle", "square"} {
		s, err := ParseShape(name)
		if err != nil || s != Shape(i) || s.String() != name {
			t.Errorf("ParseShape(%q) = %v, %v", name, s, err)
		}
	}

	if _, err := ParseShape("saw"); err == nil {
		t.Error("expected error for unknown shape")
	}

	if Shape(9).String() != "shape(9)" {
		t.Errorf("String of unknown shape = %q", Shape(9).String())
	}
}

func TestTypeName(t *testing.T) {
	t.Parallel()

	for _, typ := range []protocol.EffectType{TypePitchShift, TypeGain, TypeRingMod, TypeOscillator} {
		if DefaultRegistry().Lookup(TypeName(typ)) == nil {
			t.Errorf("type %d has no registered name", typ)
		}
	}

	if TypeName(99) != "" {
		t.Error("unknown type has a name")
	}
}
