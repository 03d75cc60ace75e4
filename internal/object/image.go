package object

import "fmt"

// StartOfProgram is the first word address the link engine will ever place
// TXT bytes at; word addresses below it are reserved, low-memory locations
// and are never overwritten.
const StartOfProgram = 0o200

// Image is the single contiguous byte buffer holding the absolute,
// relocated program, indexed from word address 0.
type Image struct {
	Bytes []byte
}

// NewImage allocates an Image sized to hold wordCount words (wordCount*8
// bytes), zero-filled. It is allocated exactly once, after layout.
func NewImage(wordCount uint64) *Image {
	return &Image{Bytes: make([]byte, wordCount*8)}
}

// WordByteOffset converts a word address to a byte offset into Bytes.
func WordByteOffset(wordAddr uint64) uint64 {
	return wordAddr * 8
}

// BitAddress converts a (word address, bit offset within word) pair into
// the global bit address the bitfield engine expects: bit 63 of a word is
// its rightmost bit.
func BitAddress(wordAddr uint64, bitOffset int) int {
	return int(wordAddr*64) + bitOffset
}

// Put copies payload into the image starting at byte offset dstByte,
// returning an error instead of panicking if it would run past the end of
// the image — this is the TXT "image-size overflow" fatal condition from
// the linker's image-overflow failure condition.
func (img *Image) Put(dstByte uint64, payload []byte) error {
	end := dstByte + uint64(len(payload))
	if end > uint64(len(img.Bytes)) {
		return fmt.Errorf("image overflow: write of %d bytes at offset %d exceeds image size %d", len(payload), dstByte, len(img.Bytes))
	}
	copy(img.Bytes[dstByte:end], payload)
	return nil
}
