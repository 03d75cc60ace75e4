package bitfield

import (
	"bytes"
	"testing"
)

func TestReadFieldByteAlignedWholeWord(t *testing.T) {
	buf := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	got := ReadField(buf, 63, 64)
	want := uint64(0x0123456789abcdef)
	if got != want {
		t.Fatalf("ReadField() = %#x, want %#x", got, want)
	}
}

func TestReadFieldByteAlignedLowByte(t *testing.T) {
	buf := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	got := ReadField(buf, 63, 8)
	if got != 0xef {
		t.Fatalf("ReadField() = %#x, want 0xef", got)
	}
}

func TestReadFieldSecondWord(t *testing.T) {
	buf := make([]byte, 16)
	buf[8], buf[9], buf[10], buf[11] = 0xde, 0xad, 0xbe, 0xef
	got := ReadField(buf, 127, 64)
	want := uint64(0xdeadbeef00000000)
	if got != want {
		t.Fatalf("ReadField() = %#x, want %#x", got, want)
	}
}

func TestWriteFieldByteAlignedPreservesRestOfWord(t *testing.T) {
	buf := make([]byte, 8)
	WriteField(buf, 63, 16, 0xbeef)
	want := []byte{0, 0, 0, 0, 0, 0, 0xbe, 0xef}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = % x, want % x", buf, want)
	}
}

func TestWriteFieldThenReadRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(i * 7)
	}

	// Only well-formed inputs: the 8-byte window ending at rightmostBit
	// starts at or after byte 0 (byteIdx >= 7), and every bit of the field
	// lies inside buf (length <= rightmostBit+1).
	for byteIdx := 7; byteIdx < 32; byteIdx++ {
		for bitInByte := 0; bitInByte < 8; bitInByte++ {
			rightmostBit := byteIdx*8 + bitInByte
			for _, length := range []int{1, 3, 7, 8, 16, 24, 32, 56, 63, 64} {
				if length > rightmostBit+1 {
					continue
				}
				before := append([]byte(nil), buf...)
				var value uint64 = 0x9a9a9a9a9a9a9a9a
				WriteField(buf, rightmostBit, length, value)
				got := ReadField(buf, rightmostBit, length)
				want := value & mask(length)
				if got != want {
					t.Fatalf("rightmostBit=%d length=%d: ReadField() = %#x, want %#x", rightmostBit, length, got, want)
				}
				copy(buf, before)
			}
		}
	}
}

func TestWriteFieldLeavesOtherBitsOfWordUnchanged(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	WriteField(buf, 63, 4, 0x0)
	want := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xf0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = % x, want % x", buf, want)
	}
}

func TestMask(t *testing.T) {
	if mask(1) != 1 {
		t.Fatalf("mask(1) = %d, want 1", mask(1))
	}
	if mask(64) != ^uint64(0) {
		t.Fatalf("mask(64) = %#x, want all ones", mask(64))
	}
}
