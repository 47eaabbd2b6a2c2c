// Package codec implements the lossless text compressor used for everything the store persists.
//
// The format is LZW over the UTF-8 bytes of the input. The dictionary is seeded with all 256
// single-byte symbols and grows by one entry per emitted code. Code i (0-based) is written
// with bits.Len(255+i) bits, which is exactly wide enough for the largest code the encoder can
// have assigned by then, so both sides derive the width from the code index alone. The packed
// bit stream is base64 encoded so control characters survive any transport.
package codec

import (
	"encoding/base64"
	"fmt"
	"math/bits"
)

// CorruptDataError reports a token that cannot be decoded.
type CorruptDataError struct {
	Offset int
	Reason string
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt compressed data at code %d: %s", e.Offset, e.Reason)
}

var encoding = base64.StdEncoding

// Compress encodes text into a transport-safe token.
func Compress(text string) string {
	if text == "" {
		return ""
	}
	data := []byte(text)

	dict := make(map[uint64]uint32, len(data))
	next := uint32(256)
	var w bitWriter
	emitted := 0
	emit := func(code uint32) {
		w.write(code, codeWidth(emitted))
		emitted++
	}

	prefix := uint32(data[0])
	for _, ch := range data[1:] {
		key := uint64(prefix)<<8 | uint64(ch)
		if code, ok := dict[key]; ok {
			prefix = code
			continue
		}
		emit(prefix)
		dict[key] = next
		next++
		prefix = uint32(ch)
	}
	emit(prefix)

	return encoding.EncodeToString(w.bytes())
}

// Decompress reverses Compress. Any token Compress could not have produced yields a *CorruptDataError.
func Decompress(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return "", &CorruptDataError{Offset: 0, Reason: "invalid base64 envelope"}
	}

	r := bitReader{buf: raw}
	if r.remaining() < codeWidth(0) {
		return "", &CorruptDataError{Offset: 0, Reason: "truncated stream"}
	}

	entries := make([][]byte, 256, 256+len(raw))
	for i := range entries {
		entries[i] = []byte{byte(i)}
	}

	prev := entries[r.read(codeWidth(0))]
	out := make([]byte, 0, len(raw)*2)
	out = append(out, prev...)

	for i := 1; ; i++ {
		width := codeWidth(i)
		if r.remaining() < width {
			break
		}
		code := int(r.read(width))

		var entry []byte
		switch {
		case code < len(entries):
			entry = entries[code]
		case code == len(entries):
			entry = make([]byte, len(prev)+1)
			copy(entry, prev)
			entry[len(prev)] = prev[0]
		default:
			return "", &CorruptDataError{Offset: i, Reason: fmt.Sprintf("unknown code %d", code)}
		}

		out = append(out, entry...)

		added := make([]byte, len(prev)+1)
		copy(added, prev)
		added[len(prev)] = entry[0]
		entries = append(entries, added)
		prev = entry
	}

	return string(out), nil
}

func codeWidth(index int) int {
	return bits.Len(uint(255 + index))
}

type bitWriter struct {
	out   []byte
	acc   uint64
	nbits int
}

func (w *bitWriter) write(code uint32, width int) {
	w.acc = w.acc<<uint(width) | uint64(code)
	w.nbits += width
	for w.nbits >= 8 {
		w.out = append(w.out, byte(w.acc>>uint(w.nbits-8)))
		w.nbits -= 8
	}
	w.acc &= (1 << uint(w.nbits)) - 1
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc<<uint(8-w.nbits)))
		w.nbits = 0
		w.acc = 0
	}
	return w.out
}

type bitReader struct {
	buf []byte
	pos int
}

func (r *bitReader) remaining() int {
	return len(r.buf)*8 - r.pos
}

func (r *bitReader) read(width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		bit := r.buf[r.pos>>3] >> (7 - uint(r.pos&7)) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v
}
