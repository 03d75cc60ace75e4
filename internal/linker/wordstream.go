package linker

import (
	"encoding/binary"

	"github.com/xyproto/coslink/internal/dataset"
)

// readRecordWords reads one complete record from r and returns it as a
// slice of 64-bit big-endian words. It returns (nil, nil) at EOF/EOD (no
// more records) and a non-nil ControlWord classification is available via
// r.ReadCW() immediately afterward.
func readRecordWords(r *dataset.Reader) ([]uint64, error) {
	var raw []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		raw = append(raw, buf[:n]...)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw)%8 != 0 {
		return nil, &FormatError{Msg: "record is not a whole number of words"}
	}
	words := make([]uint64, len(raw)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(raw[i*8 : i*8+8])
	}
	return words, nil
}

// wordsToBytes packs a word slice into its big-endian byte form, ready for
// dataset.Writer.Write.
func wordsToBytes(words []uint64) []byte {
	out := make([]byte, len(words)*8)
	for i, w := range words {
		binary.BigEndian.PutUint64(out[i*8:i*8+8], w)
	}
	return out
}
