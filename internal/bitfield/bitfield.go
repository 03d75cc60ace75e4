// Package bitfield implements the read/write primitive for arbitrary-length
// (1–64 bit) fields inside a byte-addressed image, per the Cray word layout
// where bit 63 of a word is its rightmost ("bit index 7" within the final
// byte) bit. Every relocation in the link engine — BRT patch, XRT patch —
// routes through ReadField/WriteField so the byte-boundary-crossing
// arithmetic exists in exactly one place; TXT payloads are whole words and
// are copied into the image directly.
package bitfield

import "encoding/binary"

// mask returns a value with the low n bits set (n in [1,64]).
func mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// window loads the 8 bytes of buf ending at (and including) the byte that
// holds rightmostBit, interpreted big-endian, along with the byte
// immediately before that window (used for high-bit spill when a field
// crosses an unaligned byte boundary near the top of a 64-bit word).
func window(buf []byte, rightmostBit int) (byteOffset int, w uint64, spill byte) {
	byteOffset = (rightmostBit >> 3) - 7
	w = binary.BigEndian.Uint64(buf[byteOffset : byteOffset+8])
	if byteOffset > 0 {
		spill = buf[byteOffset-1]
	}
	return
}

// ReadField reads the L-bit (L in [1,64]) field whose rightmost bit sits at
// bit address rightmostBit and returns it right-justified in the low L
// bits of the result. The caller is responsible for ensuring rightmostBit
// and L describe a window that stays inside buf — like the Cray loader
// itself, this is undefined behaviour (here: an index-out-of-range panic)
// rather than a checked error, since the link engine always bounds-checks
// bit addresses before dispatch.
func ReadField(buf []byte, rightmostBit, length int) uint64 {
	byteOffset, w, spill := window(buf, rightmostBit)
	_ = byteOffset

	if rightmostBit&7 == 7 {
		return w & mask(length)
	}

	s := 7 - (rightmostBit & 7)
	field := w >> uint(s)
	if length >= 56 {
		field |= uint64(spill) << uint(64-s)
	}
	return field & mask(length)
}

// WriteField stores the low L bits of value into the L-bit field whose
// rightmost bit sits at bit address rightmostBit, leaving every other bit
// of the enclosing word(s) unchanged.
func WriteField(buf []byte, rightmostBit, length int, value uint64) {
	byteOffset, w, _ := window(buf, rightmostBit)
	m := mask(length)
	value &= m

	if rightmostBit&7 == 7 {
		w = (w &^ m) | value
		binary.BigEndian.PutUint64(buf[byteOffset:byteOffset+8], w)
		return
	}

	s := 7 - (rightmostBit & 7)
	windowBits := 64 - s

	windowPortion := value & mask(windowBits)
	clearBits := length
	if clearBits > windowBits {
		clearBits = windowBits
	}
	clearMask := mask(clearBits) << uint(s)
	w = (w &^ clearMask) | (windowPortion << uint(s))
	binary.BigEndian.PutUint64(buf[byteOffset:byteOffset+8], w)

	if length >= 56 && byteOffset > 0 {
		spillBits := length - windowBits
		if spillBits < 0 {
			spillBits = 0
		}
		spillMask := byte(mask(spillBits))
		spillPortion := byte(value >> uint(windowBits))
		existing := buf[byteOffset-1]
		buf[byteOffset-1] = (existing &^ spillMask) | (spillPortion & spillMask)
	}
}
