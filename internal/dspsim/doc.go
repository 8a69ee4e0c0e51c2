// Package dspsim is a software model of the effect coprocessor. It accepts
// the same frames the host sends over the bus, mirrors the declared
// instances, routes and parameter values, and renders mono float64 audio
// blocks through the mirrored graph.
//
// Ring modulators and pitch shifters run the processors in internal/dsp.
// A pitch shifter works on whole frames, so its output trails its input by
// 8192 samples.
package dspsim
