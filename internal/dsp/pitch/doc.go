// Package pitch provides a WSOLA time-domain pitch shifter and a streaming
// wrapper that feeds it fixed frames from a sample-by-sample signal.
package pitch
