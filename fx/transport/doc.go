// Package transport provides bus transports for a canvas.
//
// [Stream] writes framed transactions to any byte stream, typically a serial
// device, and can wait for a one-byte status answer per frame. [Recorder]
// keeps frames in memory for tests and dry runs.
package transport
