package loadertable

import "strings"

// wordsToASCII reads a sequence of 8-ASCII-byte words as a single string,
// trimming trailing NUL/space padding on the last word.
func wordsToASCII(words []uint64) string {
	b := make([]byte, 0, len(words)*8)
	for _, w := range words {
		for i := 0; i < 8; i++ {
			b = append(b, byte(w>>uint(56-8*i)))
		}
	}
	return strings.TrimRight(string(b), " \x00")
}

// asciiToWords packs s into 8-byte big-endian words, space-padding the
// final word.
func asciiToWords(s string) []uint64 {
	if s == "" {
		return nil
	}
	n := asciiWordCount(s)
	b := make([]byte, n*8)
	copy(b, s)
	for i := len(s); i < len(b); i++ {
		b[i] = ' '
	}
	out := make([]uint64, n)
	for i := range out {
		var w uint64
		for j := 0; j < 8; j++ {
			w = (w << 8) | uint64(b[i*8+j])
		}
		out[i] = w
	}
	return out
}

func asciiWordCount(s string) uint64 {
	if s == "" {
		return 0
	}
	return uint64((len(s) + 7) / 8)
}
