package core

// streaming.go provides the readers that sit between an uploaded byte stream
// and the CSV parser:
//
//   - BOMSkippingReader: Removes UTF-8 BOM (0xEF 0xBB 0xBF) from Windows files
//   - UTF8ValidatingReader: Fails the read with ErrInvalidEncoding on the first
//     invalid UTF-8 sequence
//   - CountingReader: Tracks bytes read; LoadCSV reports the count on RawTable
//
// Use WrapForLoad to apply all transforms in the correct order.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInvalidEncoding is returned when the input is not valid UTF-8.
var ErrInvalidEncoding = errors.New("file is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	pending []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var head [3]byte
		n, err := io.ReadFull(r.reader, head[:])
		switch {
		case err == io.ErrUnexpectedEOF || err == io.EOF:
			// Fewer than 3 bytes: cannot be a BOM.
		case err != nil:
			return 0, err
		}
		if n == 3 && bytes.Equal(head[:], utf8BOM) {
			n = 0
		}
		r.pending = append([]byte(nil), head[:n]...)
	}

	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// UTF8ValidatingReader passes bytes through unchanged and returns
// ErrInvalidEncoding as soon as an invalid sequence is seen.
// Input is validated in an internal buffer, so callers may read with buffers
// of any size. A multi-byte sequence split across reads is held back until
// complete.
type UTF8ValidatingReader struct {
	reader  io.Reader
	offset  int64
	buf     [4096]byte
	pending [utf8.UTFMax]byte
	npend   int
	out     []byte // validated bytes not yet returned
	err     error  // returned once out is drained
}

// NewUTF8ValidatingReader creates a validating reader.
func NewUTF8ValidatingReader(r io.Reader) *UTF8ValidatingReader {
	return &UTF8ValidatingReader{reader: r}
}

// Read implements io.Reader.
func (v *UTF8ValidatingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(v.out) == 0 {
		if v.err != nil {
			return 0, v.err
		}
		v.fill()
	}
	n := copy(p, v.out)
	v.out = v.out[n:]
	return n, nil
}

// fill reads the next chunk into buf and sets out to its validated prefix.
// It is only called once out has been fully consumed.
func (v *UTF8ValidatingReader) fill() {
	carry := copy(v.buf[:], v.pending[:v.npend])
	v.npend = 0

	n, err := v.reader.Read(v.buf[carry:])
	data := v.buf[:carry+n]

	tail := incompleteTrailingBytes(data)
	valid := data[:len(data)-tail]

	if bad := firstInvalid(valid); bad >= 0 {
		v.out = valid[:bad]
		v.err = fmt.Errorf("%w: invalid byte at offset %d", ErrInvalidEncoding, v.offset+int64(bad))
		return
	}
	v.offset += int64(len(valid))
	v.out = valid

	switch {
	case err == io.EOF && tail > 0:
		v.err = fmt.Errorf("%w: truncated sequence at end of file (offset %d)", ErrInvalidEncoding, v.offset)
	case err != nil:
		v.err = err
	default:
		v.npend = copy(v.pending[:], data[len(data)-tail:])
	}
}

// firstInvalid returns the index of the first invalid UTF-8 byte, or -1.
func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xF5 {
			// Never a lead byte; left for firstInvalid to report.
			return 0
		}
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Not a continuation byte (10xxxxxx): nothing pending.
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	}
	return 4
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForLoad wraps a reader with BOM skipping, UTF-8 validation, and byte
// counting.
//
// The order matters:
// 1. BOM must be stripped first (before any processing)
// 2. UTF-8 validation happens next
// 3. Counting wraps everything
func WrapForLoad(r io.Reader) *CountingReader {
	return NewCountingReader(NewUTF8ValidatingReader(NewBOMSkippingReader(r)))
}
