package dataset

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestControlWordEncodeDecodeRoundTrip(t *testing.T) {
	cases := []ControlWord{
		{Class: ClassBCW, BWI: 1, FWI: 5},
		{Class: ClassEOR, UBC: 3, FWI: 0},
		{Class: ClassEOF},
		{Class: ClassEOD},
	}
	for _, cw := range cases {
		got := decodeControlWord(encodeControlWord(cw))
		if got != cw {
			t.Fatalf("round trip %+v, got %+v", cw, got)
		}
	}
}

func readRecord(t *testing.T, r *Reader) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

func TestWriterReaderRoundTripSingleRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.bin")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	payload := []byte("ABCDEFGH12345678")
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.WriteEOR()
	w.WriteEOF()
	w.WriteEOD()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got := readRecord(t, r)
	if !bytes.Equal(got, payload) {
		t.Fatalf("record = %q, want %q", got, payload)
	}
	if r.ReadCW().Class != ClassEOR {
		t.Fatalf("ReadCW().Class = %v, want EOR", r.ReadCW().Class)
	}

	if n := len(readRecord(t, r)); n != 0 {
		t.Fatalf("expected empty record at EOF boundary, got %d bytes", n)
	}
	if r.ReadCW().Class != ClassEOF {
		t.Fatalf("ReadCW().Class = %v, want EOF", r.ReadCW().Class)
	}
}

func TestWriterReaderMultipleRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.bin")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	records := [][]byte{
		[]byte("11111111"),
		[]byte("2222222233333333"),
		[]byte("44444444"),
	}
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
		w.WriteEOR()
	}
	w.WriteEOF()
	w.WriteEOD()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i, want := range records {
		got := readRecord(t, r)
		if !bytes.Equal(got, want) {
			t.Fatalf("record %d = %q, want %q", i, got, want)
		}
		if r.ReadCW().Class != ClassEOR {
			t.Fatalf("record %d: ReadCW().Class = %v, want EOR", i, r.ReadCW().Class)
		}
	}
}

func TestWriterRollsOverBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.bin")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// More words than fit in one 512-word block, forcing at least one
	// automatic BCW rollover mid-record.
	big := make([]byte, (WordsPerBlock+10)*WordSize)
	for i := range big {
		big[i] = byte(i)
	}
	if _, err := w.Write(big); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.WriteEOR()
	w.WriteEOD()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got := readRecord(t, r)
	if !bytes.Equal(got, big) {
		t.Fatalf("record length = %d, want %d (mismatch at rollover boundary)", len(got), len(big))
	}
}

func TestRewind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.bin")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.WriteWord(0x0102030405060708)
	w.WriteEOR()
	w.WriteEOD()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	first := readRecord(t, r)
	r.Rewind()
	second := readRecord(t, r)
	if !bytes.Equal(first, second) {
		t.Fatalf("Rewind did not reproduce the same record: %q vs %q", first, second)
	}
}
