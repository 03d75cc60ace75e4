package loadertable

import (
	"strings"
	"time"
)

// Fixed trailer identifier strings. COS 1.17 is the last shipped COS
// release this toolchain models; the linker identifies itself separately
// from the OS it targets.
const (
	trailerOSName        = "COS"
	trailerOSVersion     = "1.17"
	trailerLinkerName    = "COSLD"
	trailerLinkerVersion = "1.0"
)

// Trailer is a PDT's fixed 11-word trailer: a build date/time stamp in
// ASCII, fixed OS identifier strings, and the linker's own name and
// version, each occupying one 8-byte word; the remaining words are
// reserved and round-trip verbatim.
type Trailer struct {
	Date          string // MM/DD/YY, word 0
	Time          string // HH:MM:SS, word 1
	OSName        string // word 2
	OSVersion     string // word 3
	LinkerName    string // word 4
	LinkerVersion string // word 5
	Reserved      [5]uint64
}

func packWord8(s string) uint64 {
	var b [8]byte
	for i := range b {
		b[i] = ' '
	}
	copy(b[:], s)
	var w uint64
	for _, c := range b {
		w = (w << 8) | uint64(c)
	}
	return w
}

func unpackWord8(w uint64) string {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(w)
		w >>= 8
	}
	return strings.TrimRight(string(b), " \x00")
}

func decodeTrailer(words []uint64) (Trailer, error) {
	if len(words) != 11 {
		return Trailer{}, &FormatError{Msg: "PDT trailer must be exactly 11 words"}
	}
	t := Trailer{
		Date:          unpackWord8(words[0]),
		Time:          unpackWord8(words[1]),
		OSName:        unpackWord8(words[2]),
		OSVersion:     unpackWord8(words[3]),
		LinkerName:    unpackWord8(words[4]),
		LinkerVersion: unpackWord8(words[5]),
	}
	copy(t.Reserved[:], words[6:11])
	return t, nil
}

func (t Trailer) encode() []uint64 {
	out := []uint64{
		packWord8(t.Date),
		packWord8(t.Time),
		packWord8(t.OSName),
		packWord8(t.OSVersion),
		packWord8(t.LinkerName),
		packWord8(t.LinkerVersion),
	}
	return append(out, t.Reserved[:]...)
}

// Clock supplies the current time when emitting a new PDT; tests inject a
// fixed clock so output is reproducible.
type Clock func() time.Time

// NewTrailer builds a trailer stamped with clock's current time and this
// toolchain's fixed OS/linker identifier strings.
func NewTrailer(clock Clock) Trailer {
	now := clock()
	return Trailer{
		Date:          now.Format("01/02/06"),
		Time:          now.Format("15:04:05"),
		OSName:        trailerOSName,
		OSVersion:     trailerOSVersion,
		LinkerName:    trailerLinkerName,
		LinkerVersion: trailerLinkerVersion,
	}
}
