package canvas

import (
	"testing"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
	"github.com/cwbudde/algo-fxhost/fx/transport"
)

const (
	testTypeShifter protocol.EffectType = 1
	testTypeLFO     protocol.EffectType = 2
	testTypeCounter protocol.EffectType = 3

	paramRatio protocol.ParamID = 1
	paramRate  protocol.ParamID = 1
	paramSteps protocol.ParamID = 1
)

// newShifter builds an effect shaped like a pitch shifter: one positive
// float parameter with a control input.
func newShifter(t *testing.T, ratio float32) *Effect {
	t.Helper()

	e, err := NewEffect(testTypeShifter, "shifter")
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}

	p, err := e.DeclareParam(ParamSpec{
		ID:      paramRatio,
		Name:    "ratio",
		Default: protocol.Float(ratio),
		Check:   Positive(),
	})
	if err != nil {
		t.Fatalf("DeclareParam: %v", err)
	}

	if _, err = e.DeclareControlInput("ratio_ctrl", p); err != nil {
		t.Fatalf("DeclareControlInput: %v", err)
	}

	return e
}

// newLFO builds a control source with a float control output.
func newLFO(t *testing.T) *Effect {
	t.Helper()

	e, err := NewEffect(testTypeLFO, "lfo")
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}

	if _, err = e.DeclareParam(ParamSpec{
		ID:      paramRate,
		Name:    "rate",
		Default: protocol.Float(1),
		Check:   FloatRange(0, 20),
	}); err != nil {
		t.Fatalf("DeclareParam: %v", err)
	}

	if _, err = e.DeclareControlOutput("value", protocol.TypeFloat); err != nil {
		t.Fatalf("DeclareControlOutput: %v", err)
	}

	return e
}

// newCounter builds an effect with an int control output, for type mismatches.
func newCounter(t *testing.T) *Effect {
	t.Helper()

	e, err := NewEffect(testTypeCounter, "counter")
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}

	if _, err = e.DeclareParam(ParamSpec{
		ID:      paramSteps,
		Name:    "steps",
		Default: protocol.Int(4),
		Check:   IntRange(1, 16),
	}); err != nil {
		t.Fatalf("DeclareParam: %v", err)
	}

	if _, err = e.DeclareControlOutput("step", protocol.TypeInt); err != nil {
		t.Fatalf("DeclareControlOutput: %v", err)
	}

	return e
}

func newTestCanvas(t *testing.T) (*Canvas, *transport.Recorder) {
	t.Helper()

	rec := transport.NewRecorder()

	return New(rec), rec
}

func mustAttach(t *testing.T, c *Canvas, units ...Unit) {
	t.Helper()

	for _, u := range units {
		if err := c.Attach(u); err != nil {
			t.Fatalf("Attach(%s): %v", u.Base().Name(), err)
		}
	}
}

func mustConnect(t *testing.T, c *Canvas, from, to *Node) {
	t.Helper()

	if err := c.Connect(from, to); err != nil {
		t.Fatalf("Connect(%s, %s): %v", from.Label(), to.Label(), err)
	}
}
