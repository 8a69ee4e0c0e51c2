package dspsim

import (
	"testing"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

func marshal(t *testing.T, f protocol.Frame) []byte {
	t.Helper()

	b, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	return b
}

func newTestInstance(t *testing.T, typ protocol.EffectType) *instance {
	t.Helper()

	inst, err := newInstance(typ, sampleRate)
	if err != nil {
		t.Fatalf("newInstance(%d): %v", typ, err)
	}

	return inst
}

func newGain(t *testing.T, name string) *effects.Gain {
	t.Helper()

	g, err := effects.NewGain(name)
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}

	return g
}

func newPitchShift(t *testing.T, name string, ratio float32) *effects.PitchShift {
	t.Helper()

	ps, err := effects.NewPitchShift(name, ratio)
	if err != nil {
		t.Fatalf("NewPitchShift: %v", err)
	}

	return ps
}

func newOscillator(t *testing.T, name string) *effects.Oscillator {
	t.Helper()

	o, err := effects.NewOscillator(name)
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}

	return o
}

func newRingMod(t *testing.T, name string) *effects.RingMod {
	t.Helper()

	rm, err := effects.NewRingMod(name)
	if err != nil {
		t.Fatalf("NewRingMod: %v", err)
	}

	return rm
}

func mustAttach(t *testing.T, c *canvas.Canvas, units ...canvas.Unit) {
	t.Helper()

	for _, u := range units {
		if err := c.Attach(u); err != nil {
			t.Fatalf("Attach(%s): %v", u.Base().Name(), err)
		}
	}
}

func mustConnect(t *testing.T, c *canvas.Canvas, from, to *canvas.Node) {
	t.Helper()

	if err := c.Connect(from, to); err != nil {
		t.Fatalf("Connect(%s, %s): %v", from.Label(), to.Label(), err)
	}
}

func mustSync(t *testing.T, c *canvas.Canvas) {
	t.Helper()

	if err := c.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
