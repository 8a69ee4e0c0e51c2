package pitch

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fxhost/internal/testutil"
)

const sampleRate = 48000.0

// magnitude correlates x against a complex tone at freq, normalized by length.
func magnitude(x []float64, freq float64) float64 {
	var re, im float64

	for i, v := range x {
		angle := 2 * math.Pi * freq * float64(i) / sampleRate
		re += v * math.Cos(angle)
		im += v * math.Sin(angle)
	}

	return math.Hypot(re, im) / float64(len(x))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		opts       []Option
		wantErr    bool
	}{
		{name: "valid 44100", sampleRate: 44100},
		{name: "valid 48000 with options", sampleRate: 48000, opts: []Option{WithSequence(82), WithOverlap(10), WithSearch(28)}},
		{name: "nil option", sampleRate: 48000, opts: []Option{nil}},
		{name: "invalid zero", sampleRate: 0, wantErr: true},
		{name: "invalid NaN", sampleRate: math.NaN(), wantErr: true},
		{name: "invalid +Inf", sampleRate: math.Inf(1), wantErr: true},
		{name: "sequence too short", sampleRate: 48000, opts: []Option{WithSequence(10)}, wantErr: true},
		{name: "overlap too long", sampleRate: 48000, opts: []Option{WithOverlap(80)}, wantErr: true},
		{name: "search too wide", sampleRate: 48000, opts: []Option{WithSearch(50)}, wantErr: true},
		{name: "overlap above sequence", sampleRate: 48000, opts: []Option{WithSequence(20), WithOverlap(30)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.sampleRate, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && s.Ratio() != 1 {
				t.Fatalf("Ratio() = %f, want 1", s.Ratio())
			}
		})
	}
}

func TestSetRatio(t *testing.T) {
	s, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name    string
		ratio   float64
		wantErr bool
	}{
		{name: "octave down", ratio: 0.5},
		{name: "unison", ratio: 1},
		{name: "upper bound", ratio: MaxRatio},
		{name: "zero", ratio: 0, wantErr: true},
		{name: "below lower bound", ratio: 0.1, wantErr: true},
		{name: "above upper bound", ratio: 8, wantErr: true},
		{name: "NaN", ratio: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetRatio(tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetRatio(%f) error = %v, wantErr %v", tt.ratio, err, tt.wantErr)
			}

			if !tt.wantErr && s.Ratio() != tt.ratio {
				t.Fatalf("Ratio() = %f, want %f", s.Ratio(), tt.ratio)
			}
		})
	}
}

func TestProcessUnityIsIdentity(t *testing.T) {
	s, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.Noise(11, 1, 1000)
	out := make([]float64, len(in))
	s.Process(out, in)

	testutil.RequireSliceNearlyEqual(t, out, in, 0)
}

func TestProcessShiftsTone(t *testing.T) {
	const toneHz = 600.0

	for _, ratio := range []float64{0.5, 1.5, 2} {
		s, err := New(sampleRate)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		if err := s.SetRatio(ratio); err != nil {
			t.Fatalf("SetRatio() error = %v", err)
		}

		in := testutil.Sine(toneHz, sampleRate, 0.5, 9600)
		out := make([]float64, len(in))
		s.Process(out, in)
		testutil.RequireFinite(t, out)

		body := out[2400:7200]
		shifted := magnitude(body, toneHz*ratio)
		orig := magnitude(body, toneHz)

		if shifted < 0.1 || shifted < 5*orig {
			t.Fatalf("ratio %.2f: shifted=%g original=%g", ratio, shifted, orig)
		}
	}
}

func TestStream(t *testing.T) {
	s, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := NewStream(nil, 64); err == nil {
		t.Fatal("expected error for nil shifter")
	}

	if _, err := NewStream(s, 0); err == nil {
		t.Fatal("expected error for zero frame")
	}

	st, err := NewStream(s, 256)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}

	if st.Latency() != 512 || st.Shifter() != s {
		t.Fatalf("Latency() = %d", st.Latency())
	}

	in := testutil.Noise(3, 1, 2000)
	out := make([]float64, len(in))

	// Uneven blocks must not change the result.
	for start := 0; start < len(in); start += 77 {
		end := min(start+77, len(in))
		st.Process(out[start:end], in[start:end])
	}

	testutil.RequireSliceNearlyEqual(t, out[:512], make([]float64, 512), 0)
	testutil.RequireSliceNearlyEqual(t, out[512:], in[:len(in)-512], 0)

	st.Reset()
	st.Process(out[:512], in[:512])
	testutil.RequireSliceNearlyEqual(t, out[:512], make([]float64, 512), 0)
}
