package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const (
	// SyncByte starts every frame.
	SyncByte = 0xA5

	// FrameHeader is the size of sync, kind and length bytes.
	FrameHeader = 3
	// FrameTrailer is the size of the CRC.
	FrameTrailer = 2
	// MaxBody is the largest body a frame can carry.
	MaxBody = 0xff
)

// Kind identifies what a frame carries.
type Kind uint8

const (
	KindParam Kind = iota + 1
	KindReset
	KindDeclare
	KindRoute
)

// String returns the frame kind name.
func (k Kind) String() string {
	switch k {
	case KindParam:
		return "param"
	case KindReset:
		return "reset"
	case KindDeclare:
		return "declare"
	case KindRoute:
		return "route"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k Kind) valid() bool {
	return k >= KindParam && k <= KindRoute
}

// Frame is one bus transaction as handed to a transport.
type Frame struct {
	Kind Kind
	Body []byte
}

// Reset returns a frame that clears the coprocessor's graph.
func Reset() Frame {
	return Frame{Kind: KindReset}
}

// Size returns the encoded length of f.
func (f Frame) Size() int {
	return FrameHeader + len(f.Body) + FrameTrailer
}

// AppendFrame appends the wire encoding of f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if !f.Kind.valid() {
		return dst, fmt.Errorf("%w: %s", ErrUnknownKind, f.Kind)
	}

	if len(f.Body) > MaxBody {
		return dst, fmt.Errorf("%w: body of %d bytes exceeds %d", ErrBadPayload, len(f.Body), MaxBody)
	}

	start := len(dst)
	dst = append(dst, SyncByte, byte(f.Kind), byte(len(f.Body)))
	dst = append(dst, f.Body...)
	crc := crc16(dst[start+1:])

	return append(dst, byte(crc), byte(crc>>8)), nil
}

// MarshalBinary returns the wire encoding of f.
func (f Frame) MarshalBinary() ([]byte, error) {
	return AppendFrame(make([]byte, 0, f.Size()), f)
}

// DecodeFrame parses one frame from the front of b and returns it with the
// number of bytes consumed. The returned body aliases b.
func DecodeFrame(b []byte) (Frame, int, error) {
	if len(b) < FrameHeader+FrameTrailer {
		return Frame{}, 0, ErrShortFrame
	}

	if b[0] != SyncByte {
		return Frame{}, 0, fmt.Errorf("%w: %#x", ErrBadSync, b[0])
	}

	n := FrameHeader + int(b[2]) + FrameTrailer
	if len(b) < n {
		return Frame{}, 0, ErrShortFrame
	}

	want := uint16(b[n-2]) | uint16(b[n-1])<<8
	if got := crc16(b[1 : n-FrameTrailer]); got != want {
		return Frame{}, n, fmt.Errorf("%w: got %#04x, want %#04x", ErrChecksum, got, want)
	}

	f := Frame{Kind: Kind(b[1]), Body: b[FrameHeader : n-FrameTrailer]}
	if !f.Kind.valid() {
		return Frame{}, n, fmt.Errorf("%w: %s", ErrUnknownKind, f.Kind)
	}

	return f, n, nil
}

// Reader decodes frames from a byte stream, skipping noise between frames.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

// NewReader returns a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r), buf: make([]byte, 0, FrameHeader+MaxBody+FrameTrailer)}
}

// ReadFrame returns the next frame. A candidate frame with a bad checksum or
// kind is reported, but only its sync byte is consumed: the following call
// rescans the bytes after it, so a stray sync byte in the noise cannot hide
// the frame behind it. The returned body is only valid until the next call.
func (r *Reader) ReadFrame() (Frame, error) {
	for {
		if err := r.seek(); err != nil {
			return Frame{}, err
		}

		hdr, err := r.r.Peek(FrameHeader)
		if err != nil {
			if r.resync(hdr) {
				continue
			}
			return Frame{}, unexpectedEOF(err)
		}

		b, err := r.r.Peek(FrameHeader + int(hdr[2]) + FrameTrailer)
		if err != nil {
			// The claimed length runs past the end of the stream; the
			// header may have been noise.
			if r.resync(b) {
				continue
			}
			return Frame{}, unexpectedEOF(err)
		}

		f, n, err := DecodeFrame(b)
		if err != nil {
			_, _ = r.r.Discard(1)
			return Frame{}, err
		}

		r.buf = append(r.buf[:0], b[:n]...)
		f.Body = r.buf[FrameHeader : n-FrameTrailer]

		if _, err = r.r.Discard(n); err != nil {
			return Frame{}, err
		}

		return f, nil
	}
}

// seek discards bytes up to the next sync byte, leaving it unread.
func (r *Reader) seek() error {
	for {
		b, err := r.r.Peek(1)
		if err != nil {
			return err
		}

		if b[0] == SyncByte {
			return nil
		}

		_, _ = r.r.Discard(1)
	}
}

// resync drops the sync byte at the front of a truncated candidate when
// another sync byte follows it.
func (r *Reader) resync(avail []byte) bool {
	if len(avail) < 2 || bytes.IndexByte(avail[1:], SyncByte) < 0 {
		return false
	}

	_, _ = r.r.Discard(1)

	return true
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// crc16 computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xffff).
func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
