package linker

import "github.com/xyproto/coslink/internal/object"

// Layout assigns a base address to every block and adjusts every entry
// symbol's value accordingly.
//
// Per-type chains are built (insertIntoChain, pass1.go) so that blocks
// sharing a name stay contiguous; here, each contiguous run of same-named
// blocks is treated as one fused allocation sized to the run's longest
// member and given a single base address, rather than laid out back to
// back — this guarantees that common blocks from different modules fuse
// at the same base address: fusion only has an observable effect when
// names collide, which is the common case for COMMON blocks and a no-op
// for the rest.
func (e *Engine) Layout() {
	for _, t := range object.LayoutOrder {
		chain := e.chains[t]
		i := 0
		for i < len(chain) {
			j := i + 1
			for j < len(chain) && chain[j].Name == chain[i].Name {
				j++
			}
			e.layoutRun(chain[i:j])
			i = j
		}
	}
	e.imageSize = e.blockLimit * 8

	for _, name := range e.symbolOrder {
		sym, _ := e.symbols.Get(name)
		blk := e.blockByRef(sym.Block)
		if blk == nil {
			continue
		}
		if sym.ParcelAddress {
			sym.Value += blk.BaseAddress * 4
		} else {
			sym.Value += blk.BaseAddress
		}
	}
}

func (e *Engine) layoutRun(run []*object.Block) {
	maxLen := uint64(0)
	for _, b := range run {
		if b.Length > maxLen {
			maxLen = b.Length
		}
	}

	anyRelocatable := false
	for _, b := range run {
		if b.Absolute {
			b.BaseAddress = 0
			if b.Origin+b.Length > e.blockLimit {
				e.blockLimit = b.Origin + b.Length
			}
		} else {
			anyRelocatable = true
		}
	}
	if !anyRelocatable {
		return
	}
	base := e.blockLimit
	for _, b := range run {
		if !b.Absolute {
			b.BaseAddress = base
		}
	}
	e.blockLimit += maxLen
	e.tracef("layout: block %s type %s base %o length %o", run[0].Name, run[0].Type, base, maxLen)
}

func (e *Engine) blockByRef(ref object.Ref) *object.Block {
	if ref.ModuleIndex < 0 || ref.ModuleIndex >= len(e.modules) {
		return nil
	}
	return e.modules[ref.ModuleIndex].Block(ref.BlockIndex)
}
