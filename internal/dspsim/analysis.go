package dspsim

import (
	"errors"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var errEmptySignal = errors.New("dspsim: empty signal")

// Spectrum returns the magnitudes of the non-negative frequency bins of x
// after a Hann window, zero-padded to the next power of two.
func Spectrum(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, errEmptySignal
	}

	size := 1
	for size < len(x) {
		size <<= 1
	}

	windowed := make([]float64, len(x))
	vecmath.MulBlock(windowed, x, hann(len(x)))

	in := make([]complex128, size)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, err
	}

	spec := make([]complex128, size)
	if err = plan.Forward(spec, in); err != nil {
		return nil, err
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := range bins {
		re[i] = real(spec[i])
		im[i] = imag(spec[i])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	return mag, nil
}

// PeakFrequency estimates the frequency of the strongest component of x,
// refining the peak bin with parabolic interpolation.
func PeakFrequency(x []float64, sampleRate float64) (float64, error) {
	mag, err := Spectrum(x)
	if err != nil {
		return 0, err
	}

	k := 1
	for i := 2; i < len(mag)-1; i++ {
		if mag[i] > mag[k] {
			k = i
		}
	}

	delta := 0.0
	if k > 0 && k < len(mag)-1 {
		a, b, c := mag[k-1], mag[k], mag[k+1]
		if den := a - 2*b + c; den != 0 {
			delta = 0.5 * (a - c) / den
		}
	}

	size := 2 * (len(mag) - 1)

	return (float64(k) + delta) * sampleRate / float64(size), nil
}

// Peak returns the largest absolute sample value of x.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return vecmath.MaxAbs(x)
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}

	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	return w
}
