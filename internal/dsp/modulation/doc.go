// Package modulation provides the ring modulator the coprocessor model runs
// for ring-mod instances.
package modulation
