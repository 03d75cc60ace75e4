package loadertable

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/xyproto/coslink/internal/ident"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestPDTEncodeDecodeRoundTrip(t *testing.T) {
	p := &PDT{
		Blocks: []BlockDescriptor{
			{Name: ident.New("CODE"), Kind: BlockCode, Location: 0, Length: 100},
			{Name: ident.New("CONST"), Absolute: true, Origin: 200, Length: 10},
		},
		Entries: []EntryDescriptor{
			{Name: ident.New("START"), Primary: true, Value: 0o200},
			{Name: ident.New("HELPER"), ParcelAddress: true, Value: 5},
		},
		Externals: []ident.Ident{ident.New("PRINTF"), ident.New("MALLOC")},
		Trailer:   NewTrailer(fixedClock),
		Comment:   "built by coslink",
	}

	words := p.Encode()
	got, err := DecodePDT(words)
	if err != nil {
		t.Fatalf("DecodePDT: %v", err)
	}

	if !reflect.DeepEqual(got.Blocks, p.Blocks) {
		t.Fatalf("Blocks = %+v, want %+v", got.Blocks, p.Blocks)
	}
	if !reflect.DeepEqual(got.Entries, p.Entries) {
		t.Fatalf("Entries = %+v, want %+v", got.Entries, p.Entries)
	}
	if !reflect.DeepEqual(got.Externals, p.Externals) {
		t.Fatalf("Externals = %+v, want %+v", got.Externals, p.Externals)
	}
	if got.Trailer != p.Trailer {
		t.Fatalf("Trailer = %+v, want %+v", got.Trailer, p.Trailer)
	}
	if got.Comment != p.Comment {
		t.Fatalf("Comment = %q, want %q", got.Comment, p.Comment)
	}
}

func TestPDTUnknownBlockKindFoldsToMixedWithoutError(t *testing.T) {
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypePDT))
	blkWC := uint64(2)
	header = setField(header, 4, 27, 1+20+blkWC+11)
	header = setField(header, 56, 63, blkWC)

	words := make([]uint64, 0)
	words = append(words, header)
	words = append(words, make([]uint64, 20)...)
	w1 := setField(0, 2, 9, 63) // an unrecognised type code
	words = append(words, ident.New("ODD").ToWord(), w1)
	words = append(words, make([]uint64, 11)...)

	got, err := DecodePDT(words)
	if err != nil {
		t.Fatalf("DecodePDT: %v", err)
	}
	if got.Blocks[0].Kind != BlockMixed {
		t.Fatalf("Kind = %v, want BlockMixed for unrecognised code", got.Blocks[0].Kind)
	}
}

func TestTXTEncodeDecodeRoundTrip(t *testing.T) {
	tx := &TXT{
		BlockIndex: 3,
		LoadAddr:   0o1000,
		Payload:    []uint64{1, 2, 3, 4, 5},
	}
	words := tx.Encode()
	got, err := DecodeTXT(words)
	if err != nil {
		t.Fatalf("DecodeTXT: %v", err)
	}
	if got.BlockIndex != tx.BlockIndex || got.LoadAddr != tx.LoadAddr {
		t.Fatalf("got %+v, want %+v", got, tx)
	}
	if !reflect.DeepEqual(got.Payload, tx.Payload) {
		t.Fatalf("Payload = %v, want %v", got.Payload, tx.Payload)
	}
}

func TestBRTStandardRoundTripOddEntryCount(t *testing.T) {
	b := &BRT{
		Entries: []BRTEntry{
			{BlockIndex: 1, ParcelFlag: false, ParcelAddress: 0o100},
			{BlockIndex: 2, ParcelFlag: true, ParcelAddress: 0o200},
			{BlockIndex: 3, ParcelFlag: false, ParcelAddress: 0o300},
		},
	}
	words := b.Encode()
	got, err := DecodeBRT(words)
	if err != nil {
		t.Fatalf("DecodeBRT: %v", err)
	}
	if !reflect.DeepEqual(got.Entries, b.Entries) {
		t.Fatalf("Entries = %+v, want %+v", got.Entries, b.Entries)
	}
}

func TestBRTExtendedRoundTrip(t *testing.T) {
	b := &BRT{
		Extended: true,
		Entries: []BRTEntry{
			{BlockIndex: 5, FieldWidth: 24, ParcelFlag: false, Negative: true, BitAddress: 12345},
			{BlockIndex: 6, FieldWidth: 64, ParcelFlag: true, Negative: false, BitAddress: 1},
		},
	}
	words := b.Encode()
	got, err := DecodeBRT(words)
	if err != nil {
		t.Fatalf("DecodeBRT: %v", err)
	}
	if !got.Extended {
		t.Fatalf("Extended = false, want true")
	}
	if !reflect.DeepEqual(got.Entries, b.Entries) {
		t.Fatalf("Entries = %+v, want %+v", got.Entries, b.Entries)
	}
}

func TestXRTEncodeDecodeRoundTrip(t *testing.T) {
	x := &XRT{
		Entries: []XRTEntry{
			{BlockIndex: 1, ParcelFlag: true, ExternalIndex: 0, FieldWidth: 24, BitAddress: 99},
			{BlockIndex: 2, ParcelFlag: false, ExternalIndex: 1, FieldWidth: 64, BitAddress: 0},
		},
	}
	words := x.Encode()
	got, err := DecodeXRT(words)
	if err != nil {
		t.Fatalf("DecodeXRT: %v", err)
	}
	if !reflect.DeepEqual(got.Entries, x.Entries) {
		t.Fatalf("Entries = %+v, want %+v", got.Entries, x.Entries)
	}
}

func TestDFTEncodeDecodeRoundTrip(t *testing.T) {
	d := &DFT{
		Name:      ident.New("LIBFOO"),
		Blocks:    []ident.Ident{ident.New("CODE"), ident.New("DATA")},
		Entries:   []ident.Ident{ident.New("FOO"), ident.New("BAR")},
		Externals: []ident.Ident{ident.New("MALLOC")},
	}
	words := d.Encode()
	got, err := DecodeDFT(words)
	if err != nil {
		t.Fatalf("DecodeDFT: %v", err)
	}
	if got.Name != d.Name {
		t.Fatalf("Name = %v, want %v", got.Name, d.Name)
	}
	if !reflect.DeepEqual(got.Blocks, d.Blocks) {
		t.Fatalf("Blocks = %v, want %v", got.Blocks, d.Blocks)
	}
	if !reflect.DeepEqual(got.Entries, d.Entries) {
		t.Fatalf("Entries = %v, want %v", got.Entries, d.Entries)
	}
	if !reflect.DeepEqual(got.Externals, d.Externals) {
		t.Fatalf("Externals = %v, want %v", got.Externals, d.Externals)
	}
}

func TestNewTrailerEmitsLiteralFields(t *testing.T) {
	tr := NewTrailer(fixedClock)
	words := tr.encode()
	if len(words) != 11 {
		t.Fatalf("encode() produced %d words, want 11", len(words))
	}

	wantDate := []byte("01/01/26")
	wantTime := []byte("00:00:00")
	wantOSName := []byte("COS     ")
	wantOSVersion := []byte("1.17    ")
	wantLinkerName := []byte("COSLD   ")
	wantLinkerVersion := []byte("1.0     ")

	wordBytes := func(w uint64) []byte {
		b := make([]byte, 8)
		for i := 7; i >= 0; i-- {
			b[i] = byte(w)
			w >>= 8
		}
		return b
	}

	checks := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"date", wordBytes(words[0]), wantDate},
		{"time", wordBytes(words[1]), wantTime},
		{"OS name", wordBytes(words[2]), wantOSName},
		{"OS version", wordBytes(words[3]), wantOSVersion},
		{"linker name", wordBytes(words[4]), wantLinkerName},
		{"linker version", wordBytes(words[5]), wantLinkerVersion},
	}
	for _, c := range checks {
		if !bytes.Equal(c.got, c.want) {
			t.Fatalf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	for i := 6; i < 11; i++ {
		if words[i] != 0 {
			t.Fatalf("reserved word %d = %#x, want 0", i, words[i])
		}
	}
}

func TestTableWordCountDFTUsesDifferentField(t *testing.T) {
	d := &DFT{Name: ident.New("X")}
	words := d.Encode()
	if got := TableWordCount(words[0]); got != uint64(len(words)) {
		t.Fatalf("TableWordCount = %d, want %d", got, len(words))
	}
}

func TestSkipBytes(t *testing.T) {
	if got := SkipBytes(5); got != 32 {
		t.Fatalf("SkipBytes(5) = %d, want 32", got)
	}
	if got := SkipBytes(0); got != 0 {
		t.Fatalf("SkipBytes(0) = %d, want 0", got)
	}
}
