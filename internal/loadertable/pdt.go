package loadertable

import "github.com/xyproto/coslink/internal/ident"

// BlockKind mirrors internal/object.BlockType's enumeration so a PDT block
// descriptor can be decoded without the loadertable package importing
// object (which itself will depend on loadertable for table I/O).
type BlockKind int

const (
	BlockCommon BlockKind = iota
	BlockMixed
	BlockCode
	BlockData
	BlockConst
	BlockDynamic
	BlockTaskCom
)

// blockKindFromCode maps the 8-bit relocatable block-type code onto
// BlockKind; an unrecognised code folds to BlockMixed with known false.
// DecodePDT keeps the BlockMixed result and raises no warning for it.
func blockKindFromCode(code uint64) (kind BlockKind, known bool) {
	switch code {
	case 0:
		return BlockCommon, true
	case 1:
		return BlockMixed, true
	case 2:
		return BlockCode, true
	case 3:
		return BlockData, true
	case 4:
		return BlockConst, true
	case 5:
		return BlockDynamic, true
	case 6:
		return BlockTaskCom, true
	default:
		return BlockMixed, false
	}
}

func blockKindCode(kind BlockKind) uint64 {
	return uint64(kind)
}

func (k BlockKind) String() string {
	switch k {
	case BlockCommon:
		return "COMMON"
	case BlockMixed:
		return "MIXED"
	case BlockCode:
		return "CODE"
	case BlockData:
		return "DATA"
	case BlockConst:
		return "CONST"
	case BlockDynamic:
		return "DYNAMIC"
	case BlockTaskCom:
		return "TASKCOM"
	default:
		return "UNKNOWN"
	}
}

// BlockDescriptor is one 2-word entry in a PDT's block-descriptor section.
type BlockDescriptor struct {
	Name     ident.Ident
	Absolute bool
	Error    bool
	Kind     BlockKind // meaningful only when !Absolute
	Location int       // meaningful only when !Absolute: 0 = CM, 2 = extended memory
	Origin   uint64    // meaningful only when Absolute
	Length   uint64    // word count, always meaningful
}

// EntryDescriptor is one 3-word entry in a PDT's entry-descriptor section.
type EntryDescriptor struct {
	Name          ident.Ident
	Primary       bool
	ParcelAddress bool
	Value         uint64
}

// PDT is a decoded Program Description Table: a module's blocks, entry
// points and external references, plus the opaque 20-word header entry
// and 11-word trailer the format carries alongside them.
type PDT struct {
	HeaderEntry [20]uint64
	Blocks      []BlockDescriptor
	Entries     []EntryDescriptor
	Externals   []ident.Ident
	Trailer     Trailer
	Comment     string
}

// DecodePDT parses a complete PDT from its word sequence, words[0] being
// the header word.
func DecodePDT(words []uint64) (*PDT, error) {
	if len(words) == 0 {
		return nil, &FormatError{Msg: "PDT: empty table"}
	}
	header := words[0]
	if HeaderType(header) != TypePDT {
		return nil, &FormatError{Msg: "PDT: header type mismatch"}
	}
	total := HeaderWordCount(header)
	extWC := field(header, 28, 41)
	entWC := field(header, 42, 55)
	blkWC := field(header, 56, 63)

	if int(total) > len(words) {
		return nil, &ShortTableError{Want: int(total), Have: len(words)}
	}

	p := &PDT{}
	idx := 1
	for i := 0; i < 20; i++ {
		p.HeaderEntry[i] = words[idx]
		idx++
	}

	blockCount := int(blkWC / 2)
	for i := 0; i < blockCount; i++ {
		name := ident.FromWord(words[idx])
		w1 := words[idx+1]
		bd := BlockDescriptor{
			Name:     name,
			Absolute: field(w1, 0, 0) != 0,
			Error:    field(w1, 1, 1) != 0,
			Length:   field(w1, 40, 63),
		}
		if bd.Absolute {
			bd.Origin = field(w1, 16, 39)
		} else {
			kind, known := blockKindFromCode(field(w1, 2, 9))
			bd.Kind = kind
			if !known {
				bd.Kind = BlockMixed
			}
			bd.Location = int(field(w1, 10, 15))
		}
		p.Blocks = append(p.Blocks, bd)
		idx += 2
	}

	entryCount := int(entWC / 3)
	for i := 0; i < entryCount; i++ {
		name := ident.FromWord(words[idx])
		flags := words[idx+1]
		value := words[idx+2]
		p.Entries = append(p.Entries, EntryDescriptor{
			Name:          name,
			Primary:       field(flags, 0, 0) != 0,
			ParcelAddress: field(flags, 1, 1) != 0,
			Value:         value,
		})
		idx += 3
	}

	externalCount := int(extWC)
	for i := 0; i < externalCount; i++ {
		p.Externals = append(p.Externals, ident.FromWord(words[idx]))
		idx++
	}

	trailer, err := decodeTrailer(words[idx : idx+11])
	if err != nil {
		return nil, err
	}
	p.Trailer = trailer
	idx += 11

	if idx < int(total) {
		p.Comment = wordsToASCII(words[idx:int(total)])
	}
	return p, nil
}

// Encode serialises a PDT back into its word sequence, recomputing every
// section's word count from the slices' actual lengths.
func (p *PDT) Encode() []uint64 {
	blkWC := uint64(len(p.Blocks) * 2)
	entWC := uint64(len(p.Entries) * 3)
	extWC := uint64(len(p.Externals))
	commentWords := asciiWordCount(p.Comment)
	total := uint64(1+20) + blkWC + entWC + extWC + 11 + commentWords

	out := make([]uint64, 0, total)
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypePDT))
	header = setField(header, 4, 27, total)
	header = setField(header, 28, 41, extWC)
	header = setField(header, 42, 55, entWC)
	header = setField(header, 56, 63, blkWC)
	out = append(out, header)
	out = append(out, p.HeaderEntry[:]...)

	for _, b := range p.Blocks {
		w1 := uint64(0)
		if b.Absolute {
			w1 = setField(w1, 0, 0, 1)
			w1 = setField(w1, 16, 39, b.Origin)
		} else {
			w1 = setField(w1, 2, 9, blockKindCode(b.Kind))
			w1 = setField(w1, 10, 15, uint64(b.Location))
		}
		if b.Error {
			w1 = setField(w1, 1, 1, 1)
		}
		w1 = setField(w1, 40, 63, b.Length)
		out = append(out, b.Name.ToWord(), w1)
	}

	for _, e := range p.Entries {
		flags := uint64(0)
		if e.Primary {
			flags = setField(flags, 0, 0, 1)
		}
		if e.ParcelAddress {
			flags = setField(flags, 1, 1, 1)
		}
		out = append(out, e.Name.ToWord(), flags, e.Value)
	}

	for _, ext := range p.Externals {
		out = append(out, ext.ToWord())
	}

	out = append(out, p.Trailer.encode()...)
	out = append(out, asciiToWords(p.Comment)...)
	return out
}
