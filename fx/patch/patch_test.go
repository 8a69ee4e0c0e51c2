package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
	"github.com/cwbudde/algo-fxhost/fx/transport"
)

func loadShimmer(t *testing.T) *File {
	t.Helper()

	f, err := Load("testdata/shimmer.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	return f
}

func TestLoad(t *testing.T) {
	t.Parallel()

	f := loadShimmer(t)

	if f.Name != "shimmer" || len(f.Effects) != 3 || len(f.Routes) != 4 || len(f.MIDI) != 2 {
		t.Fatalf("unexpected file: %+v", f)
	}

	if f.MIDI[0].CC == nil || *f.MIDI[0].CC != 7 || f.MIDI[1].Note == nil {
		t.Errorf("midi bindings = %+v", f.MIDI)
	}

	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "effects:\n  - id: a\n    type: gain\n    gain: 1\n"},
		{"missing id", "effects:\n  - type: gain\n"},
		{"missing type", "effects:\n  - id: a\n"},
		{"dotted id", "effects:\n  - id: a.b\n    type: gain\n"},
		{"reserved id", "effects:\n  - id: _input\n    type: gain\n"},
		{"duplicate id", "effects:\n  - id: a\n    type: gain\n  - id: a\n    type: gain\n"},
		{"route to unknown effect", "effects:\n  - id: a\n    type: gain\nroutes:\n  - from: a.output\n    to: b.input\n"},
		{"malformed route", "effects:\n  - id: a\n    type: gain\nroutes:\n  - from: a\n    to: _output\n"},
		{"midi without source", "effects:\n  - id: a\n    type: gain\nmidi:\n  - target: a.level\n"},
		{"midi with both sources", "effects:\n  - id: a\n    type: gain\nmidi:\n  - cc: 1\n    note: 2\n    target: a.level\n"},
		{"midi channel", "effects:\n  - id: a\n    type: gain\nmidi:\n  - channel: 16\n    cc: 1\n    target: a.level\n"},
		{"midi system target", "effects:\n  - id: a\n    type: gain\nmidi:\n  - cc: 1\n    target: _input\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	rec := transport.NewRecorder()
	c := canvas.New(rec)

	p, err := loadShimmer(t).Build(c, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rec.Len() != 0 {
		t.Fatalf("Build transmitted %d frames", rec.Len())
	}

	if c.Len() != 3 || len(c.Routes()) != 4 {
		t.Fatalf("canvas has %d effects, %d routes", c.Len(), len(c.Routes()))
	}

	shift, ok := p.Effect("shift").(*effects.PitchShift)
	if !ok {
		t.Fatalf("shift is %T", p.Effect("shift"))
	}

	if shift.FreqShift() != 1.5 {
		t.Errorf("freq_shift = %v", shift.FreqShift())
	}

	if shift.Param(effects.ParamFreqShift).Mode() != canvas.Controlled {
		t.Error("freq_shift is not controlled by the oscillator")
	}

	out := p.Effect("out").Base()
	if out.Enabled() {
		t.Error("bypassed effect is enabled")
	}

	lfo := p.Effect("lfo").Base()
	if v := lfo.Param(effects.ParamShape).Value(); v != protocol.Enum(uint8(effects.ShapeTriangle)) {
		t.Errorf("shape = %v", v)
	}

	if got := p.IDs(); strings.Join(got, ",") != "shift,lfo,out" {
		t.Errorf("IDs = %v", got)
	}

	e, param, err := p.Param("out.level")
	if err != nil || e != out || param.ID() != effects.ParamLevel {
		t.Errorf("Param(out.level) = %v, %v, %v", e, param, err)
	}

	for _, bad := range []string{"out", "nope.level", "out.drive"} {
		if _, _, err = p.Param(bad); !errors.Is(err, ErrBadReference) {
			t.Errorf("Param(%q): expected ErrBadReference, got %v", bad, err)
		}
	}

	if err = c.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// reset + 3 declares + 4 routes + 2 + 5 + 2 parameters
	if rec.Len() != 1+3+4+2+5+2 {
		t.Errorf("sync sent %d frames", rec.Len())
	}
}

func TestBuildRollsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown type",
			yaml: "effects:\n  - id: a\n    type: gain\n  - id: b\n    type: fuzz\n",
			want: effects.ErrUnknownType,
		},
		{
			name: "parameter out of domain",
			yaml: "effects:\n  - id: a\n    type: gain\n    params:\n      level: 9\n",
			want: canvas.ErrParameterOutOfDomain,
		},
		{
			name: "unknown node",
			yaml: "effects:\n  - id: a\n    type: gain\nroutes:\n  - from: a.sidechain\n    to: _output\n",
			want: ErrBadReference,
		},
		{
			name: "incompatible route",
			yaml: "effects:\n  - id: a\n    type: gain\n  - id: b\n    type: gain\nroutes:\n  - from: a.output\n    to: b.level\n",
			want: canvas.ErrIncompatibleNodes,
		},
		{
			name: "fan-in",
			yaml: "effects:\n  - id: a\n    type: gain\nroutes:\n  - from: _input\n    to: _output\n  - from: a.output\n    to: _output\n",
			want: canvas.ErrIncompatibleNodes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			c := canvas.New(transport.NewRecorder())

			_, err = f.Build(c, effects.DefaultRegistry())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if c.Len() != 0 || len(c.Routes()) != 0 {
				t.Errorf("canvas not rolled back: %d effects, %d routes", c.Len(), len(c.Routes()))
			}

			if c.AmpOut().Connected() {
				t.Error("system node still connected")
			}
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	c := canvas.New(transport.NewRecorder())

	p, err := loadShimmer(t).Build(c, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	shift := p.Effect("shift").(*effects.PitchShift)
	lfo := p.Effect("lfo").(*effects.Oscillator)

	if err = c.Disconnect(lfo.Value(), shift.FreqShiftControl()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if err = shift.SetFreqShift(0.1); err != nil {
		t.Fatalf("SetFreqShift: %v", err)
	}

	snap, err := Snapshot("copy", c)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	data, err := snap.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, want := range []string{"freq_shift: 0.1\n", "shape: triangle\n", "bypassed: true\n", "from: _input\n", "to: _output\n"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("snapshot missing %q:\n%s", want, data)
		}
	}

	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse snapshot: %v", err)
	}

	c2 := canvas.New(transport.NewRecorder())

	p2, err := again.Build(c2, nil)
	if err != nil {
		t.Fatalf("Build snapshot: %v", err)
	}

	if got := p2.Effect("shift").(*effects.PitchShift).FreqShift(); got != 0.1 {
		t.Errorf("freq_shift after round trip = %v", got)
	}

	if len(c2.Routes()) != 3 {
		t.Errorf("routes after round trip = %d, want 3", len(c2.Routes()))
	}
}

func TestSnapshotRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	c := canvas.New(transport.NewRecorder())

	for range 2 {
		g, err := effects.NewGain("same")
		if err != nil {
			t.Fatalf("NewGain: %v", err)
		}

		if err = c.Attach(g); err != nil {
			t.Fatalf("Attach: %v", err)
		}
	}

	if _, err := Snapshot("dup", c); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
