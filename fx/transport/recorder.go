package transport

import (
	"bytes"
	"sync"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Recorder is an in-memory transport that keeps every frame it accepts.
// Failures can be queued to exercise error paths.
type Recorder struct {
	mu       sync.Mutex
	frames   []protocol.Frame
	failures []error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records f unless a queued failure is pending, in which case the
// failure is returned and f is dropped.
func (r *Recorder) Send(f protocol.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.failures) > 0 {
		err := r.failures[0]
		r.failures = r.failures[1:]
		return err
	}

	r.frames = append(r.frames, protocol.Frame{Kind: f.Kind, Body: bytes.Clone(f.Body)})

	return nil
}

// FailNext queues err to be returned by the next Send.
func (r *Recorder) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, err)
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.frames)
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []protocol.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]protocol.Frame(nil), r.frames...)
}

// Transactions decodes the recorded param frames in order. Frames of other
// kinds are skipped.
func (r *Recorder) Transactions() []protocol.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []protocol.Transaction

	for _, f := range r.frames {
		if f.Kind != protocol.KindParam {
			continue
		}

		tx, err := protocol.DecodeTransaction(f.Body)
		if err != nil {
			continue
		}

		out = append(out, tx)
	}

	return out
}

// Reset drops recorded frames and queued failures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = nil
	r.failures = nil
}
