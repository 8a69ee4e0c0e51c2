package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Status bytes returned by the coprocessor when a status channel is wired.
const (
	Ack = 0x06
	Nak = 0x15
)

var (
	// ErrRejected is returned when the coprocessor answers a frame with Nak.
	ErrRejected = errors.New("transport: frame rejected by coprocessor")
	// ErrBadStatus is returned for status bytes other than Ack and Nak.
	ErrBadStatus = errors.New("transport: unexpected status byte")
)

// Stream writes encoded frames to a byte stream such as a serial device.
type Stream struct {
	w      io.Writer
	status io.Reader
	buf    []byte
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStatus makes Send wait for one status byte from r after every frame.
func WithStatus(r io.Reader) StreamOption {
	return func(s *Stream) { s.status = r }
}

// NewStream returns a transport that writes frames to w.
func NewStream(w io.Writer, opts ...StreamOption) *Stream {
	s := &Stream{
		w:   w,
		buf: make([]byte, 0, protocol.FrameHeader+protocol.MaxBody+protocol.FrameTrailer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Send encodes f, writes it in one call and, with a status channel, waits
// for the coprocessor's answer.
func (s *Stream) Send(f protocol.Frame) error {
	buf, err := protocol.AppendFrame(s.buf[:0], f)
	if err != nil {
		return err
	}
	s.buf = buf

	n, err := s.w.Write(buf)
	if err != nil {
		return fmt.Errorf("transport: write %s frame: %w", f.Kind, err)
	}

	if n != len(buf) {
		return fmt.Errorf("transport: write %s frame: %w", f.Kind, io.ErrShortWrite)
	}

	if s.status == nil {
		return nil
	}

	var status [1]byte
	if _, err := io.ReadFull(s.status, status[:]); err != nil {
		return fmt.Errorf("transport: read status: %w", err)
	}

	switch status[0] {
	case Ack:
		return nil
	case Nak:
		return fmt.Errorf("%w: %s frame", ErrRejected, f.Kind)
	default:
		return fmt.Errorf("%w: %#x", ErrBadStatus, status[0])
	}
}
