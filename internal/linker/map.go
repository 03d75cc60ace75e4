package linker

import (
	"fmt"
	"io"

	"github.com/xyproto/coslink/internal/object"
)

// parcelString renders a word address plus parcel index as the load map's
// "<octal>a|b|c|d" form.
func parcelString(wordAddr uint64, parcel int) string {
	letters := "abcd"
	return fmt.Sprintf("%o%c", wordAddr, letters[parcel&3])
}

func wordAndParcel(value uint64, isParcel bool) (uint64, int) {
	if !isParcel {
		return value, 0
	}
	return value / 4, int(value % 4)
}

// WriteMap writes the per-module block/entry/external listing plus the
// program-level header of the load map.
func (e *Engine) WriteMap(w io.Writer) error {
	hlm := e.blockLimit
	startWord, startParcel := uint64(0), 0
	if len(e.symbolOrder) > 0 {
		sym, _ := e.symbols.Get(e.symbolOrder[0])
		startWord, startParcel = wordAndParcel(sym.Value, sym.ParcelAddress)
	}

	if _, err := fmt.Fprintf(w, "length %d words, HLM %o, start %s\n", hlm, hlm, parcelString(startWord, startParcel)); err != nil {
		return err
	}

	for _, mod := range e.modules {
		if mod.LibraryPath != "" && !mod.DoLoad {
			continue
		}
		if _, err := fmt.Fprintf(w, "module %s\n", e.moduleLabel(mod)); err != nil {
			return err
		}
		for _, blk := range mod.Blocks {
			if _, err := fmt.Fprintf(w, "  block %-8s %-8s base %o length %o\n",
				blk.Name.String(), blk.Type.String(), blk.BaseAddress, blk.Length); err != nil {
				return err
			}
		}
		for _, name := range e.symbolOrder {
			sym, _ := e.symbols.Get(name)
			if e.blockByRef(sym.Block) == nil {
				continue
			}
			owner := e.modules[sym.Block.ModuleIndex]
			if owner != mod {
				continue
			}
			word, parcel := wordAndParcel(sym.Value, sym.ParcelAddress)
			if _, err := fmt.Fprintf(w, "  entry %-8s %s\n", sym.Name.String(), parcelString(word, parcel)); err != nil {
				return err
			}
		}
		for _, name := range mod.ExternalRefs {
			line := "  external " + name.String() + "  "
			if sym, ok := e.symbols.Get(name); ok {
				word, parcel := wordAndParcel(sym.Value, sym.ParcelAddress)
				resolver := "object"
				if sym.Block.ModuleIndex >= 0 && sym.Block.ModuleIndex < len(e.modules) {
					resolver = e.moduleLabel(e.modules[sym.Block.ModuleIndex])
				}
				line += parcelString(word, parcel) + "  " + resolver
			} else {
				line += "*UNSATISFIED*"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) moduleLabel(mod *object.Module) string {
	if mod.LibraryPath != "" {
		return mod.LibraryPath
	}
	if p, ok := e.objectPaths[mod]; ok {
		return p
	}
	return "object"
}
