// Package object holds the link-time data model shared by the loader-table
// codec and the link engine: blocks, modules, symbols and the output
// image. It holds no behaviour beyond small accessors — building,
// resolving and laying these out is the link engine's job
// (internal/linker).
package object

import "github.com/xyproto/coslink/internal/ident"

// BlockType is one of the seven block classes a PDT block descriptor can
// declare.
type BlockType uint8

const (
	BlockCommon BlockType = iota
	BlockMixed
	BlockCode
	BlockData
	BlockConst
	BlockDynamic
	BlockTaskCom
)

func (t BlockType) String() string {
	switch t {
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

// LayoutOrder is the fixed per-type walk order layout uses: Code, Mixed,
// Const, Common, TaskCom, Data, Dynamic.
var LayoutOrder = []BlockType{
	BlockCode, BlockMixed, BlockConst, BlockCommon, BlockTaskCom, BlockData, BlockDynamic,
}

// Block is a contiguous named region of storage, owned by exactly one
// Module.
type Block struct {
	Name    ident.Ident
	Type    BlockType
	Ordinal int // index within the owning module's block list

	Absolute bool
	Origin   uint64 // meaningful only if Absolute
	Length   uint64 // in words

	ErrorFlag bool

	// BaseAddress is assigned once, during layout, between pass 1 and
	// pass 2 of the link engine; it never changes afterward. For an
	// absolute block it stays 0, since the block's own Origin already is
	// the absolute address and relative fields within it need no delta.
	BaseAddress uint64
}

// LoadAddress is the absolute word address TXT/BRT/XRT placement and
// relocation use to locate this block's own storage: Origin for an
// absolute block, BaseAddress otherwise. Don't confuse this with
// BaseAddress itself, which is the relocation delta added to externally
// visible symbol values and stays 0 for absolute blocks.
func (b *Block) LoadAddress() uint64 {
	if b.Absolute {
		return b.Origin
	}
	return b.BaseAddress
}

// Ref is a lifetime-safe handle to a block: a (module index, block index)
// pair rather than a pointer, so that symbols and relocation entries can
// reference blocks independently of any particular Module slice's backing
// array being reallocated while library modules are still being ingested.
type Ref struct {
	ModuleIndex int
	BlockIndex  int
}
