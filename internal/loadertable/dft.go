package loadertable

import "github.com/xyproto/coslink/internal/ident"

// DFT is a decoded Directory File Table: one per library module, listing
// that module's block, entry and external names for the cheap index pass
// a library scan does before falling back to a full PDT ingest.
//
// The original format documentation disagrees with itself about where a
// DFT's block/entry/external counts live, to the point that two header
// descriptions place them on top of the very word-count field the same
// sentence also assigns them to. Rather than reproduce that contradiction,
// this codec gives each count its own non-overlapping field (see the bit
// ranges below) and treats them as advisory: the link engine's library
// scan always uses the counts of a module's own PDT, and records a
// Warning when the DFT's counts disagree with them.
type DFT struct {
	Name      ident.Ident
	Blocks    []ident.Ident
	Entries   []ident.Ident
	Externals []ident.Ident
}

// DecodeDFT parses a DFT table, words[0] being its header word.
func DecodeDFT(words []uint64) (*DFT, error) {
	if len(words) == 0 {
		return nil, &FormatError{Msg: "DFT: empty table"}
	}
	header := words[0]
	if HeaderType(header) != TypeDFT {
		return nil, &FormatError{Msg: "DFT: header type mismatch"}
	}
	total := field(header, 16, 39)
	if int(total) > len(words) {
		return nil, &ShortTableError{Want: int(total), Have: len(words)}
	}
	blockCount := int(field(header, 40, 47))
	entryCount := int(field(header, 48, 55))
	externalCount := int(field(header, 56, 63))

	d := &DFT{}
	idx := 1
	if idx >= int(total) {
		return nil, &FormatError{Msg: "DFT: missing module name word"}
	}
	d.Name = ident.FromWord(words[idx])
	idx++

	for i := 0; i < blockCount; i++ {
		d.Blocks = append(d.Blocks, ident.FromWord(words[idx]))
		idx++
	}
	for i := 0; i < entryCount; i++ {
		d.Entries = append(d.Entries, ident.FromWord(words[idx]))
		idx++
	}
	for i := 0; i < externalCount; i++ {
		d.Externals = append(d.Externals, ident.FromWord(words[idx]))
		idx++
	}
	return d, nil
}

// Encode serialises the DFT back into its word sequence.
func (d *DFT) Encode() []uint64 {
	total := uint64(1 + 1 + len(d.Blocks) + len(d.Entries) + len(d.Externals))
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypeDFT))
	header = setField(header, 16, 39, total)
	header = setField(header, 40, 47, uint64(len(d.Blocks)))
	header = setField(header, 48, 55, uint64(len(d.Entries)))
	header = setField(header, 56, 63, uint64(len(d.Externals)))

	out := make([]uint64, 0, total)
	out = append(out, header, d.Name.ToWord())
	for _, n := range d.Blocks {
		out = append(out, n.ToWord())
	}
	for _, n := range d.Entries {
		out = append(out, n.ToWord())
	}
	for _, n := range d.Externals {
		out = append(out, n.ToWord())
	}
	return out
}
