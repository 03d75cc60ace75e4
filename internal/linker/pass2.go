package linker

import (
	"github.com/xyproto/coslink/internal/bitfield"
	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/loadertable"
	"github.com/xyproto/coslink/internal/object"
)

// Patch runs pass 2: walk every module in the same order pass 1 built
// them, loading TXT payloads and applying BRT/XRT relocations into a
// freshly allocated Image.
func (e *Engine) Patch() (*object.Image, error) {
	img := object.NewImage(e.blockLimit)

	for _, mod := range e.modules {
		if mod.LibraryPath != "" && !mod.DoLoad {
			continue // library module never pulled in
		}
		if err := e.patchModule(mod, img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (e *Engine) patchModule(mod *object.Module, img *object.Image) error {
	if mod.LibraryPath != "" {
		return e.patchLibraryModule(mod, img)
	}
	return e.patchObjectModule(mod, img)
}

func (e *Engine) patchLibraryModule(mod *object.Module, img *object.Image) error {
	unit := e.unitByModule[mod]
	if unit == nil {
		return nil
	}
	for _, txt := range unit.TXT {
		if err := e.patchTXT(mod, txt, img); err != nil {
			return err
		}
	}
	for _, brt := range unit.BRT {
		e.patchBRT(mod, brt, img)
	}
	for _, xrt := range unit.XRT {
		e.patchXRT(mod, xrt, img)
	}
	return nil
}

func (e *Engine) patchObjectModule(mod *object.Module, img *object.Image) error {
	path := e.objectPaths[mod]
	r := e.objectReaders[mod]
	for {
		words, err := readRecordWords(r)
		if err != nil {
			return &IOError{Path: path, Err: err}
		}
		if words == nil {
			cw := r.ReadCW()
			if cw.Class == dataset.ClassEOF || cw.Class == dataset.ClassEOD {
				break
			}
			continue
		}
		switch loadertable.HeaderType(words[0]) {
		case loadertable.TypeTXT:
			txt, err := loadertable.DecodeTXT(words)
			if err != nil {
				return &FormatError{Path: path, Msg: err.Error()}
			}
			if err := e.patchTXT(mod, txt, img); err != nil {
				return err
			}
		case loadertable.TypeBRT:
			brt, err := loadertable.DecodeBRT(words)
			if err != nil {
				return &FormatError{Path: path, Msg: err.Error()}
			}
			e.patchBRT(mod, brt, img)
		case loadertable.TypeXRT:
			xrt, err := loadertable.DecodeXRT(words)
			if err != nil {
				return &FormatError{Path: path, Msg: err.Error()}
			}
			e.patchXRT(mod, xrt, img)
		case loadertable.TypePDT:
			// a second module in the same file; scanObject ingests only
			// an object file's first PDT, so this one is ignored.
		default:
			e.diag.Record(&Warning{Path: path, Msg: "unrecognised table type in pass 2, skipped"})
		}
	}
	return nil
}

func (e *Engine) patchTXT(mod *object.Module, txt *loadertable.TXT, img *object.Image) error {
	blk := mod.Block(txt.BlockIndex)
	if blk == nil {
		e.diag.Record(&LinkError{Msg: "TXT: block index out of range"})
		return nil
	}
	dstByte := object.WordByteOffset(blk.LoadAddress() + txt.LoadAddr)
	payload := wordsToBytes(txt.Payload)
	if err := img.Put(dstByte, payload); err != nil {
		return &LinkError{Msg: err.Error()}
	}
	return nil
}

func (e *Engine) patchBRT(mod *object.Module, brt *loadertable.BRT, img *object.Image) {
	for _, entry := range brt.Entries {
		blk := mod.Block(entry.BlockIndex)
		if blk == nil {
			e.diag.Record(&LinkError{Msg: "BRT: block index out of range"})
			continue
		}
		if brt.Extended {
			e.patchBRTExtended(blk, entry, img)
		} else {
			e.patchBRTStandard(blk, entry, img)
		}
	}
}

func (e *Engine) patchBRTStandard(blk *object.Block, entry loadertable.BRTEntry, img *object.Image) {
	byteAddr := (blk.LoadAddress()*4 + entry.ParcelAddress) * 2
	bitAddr := int(byteAddr)*8 + 23
	delta := blk.BaseAddress
	if entry.ParcelFlag {
		delta = blk.BaseAddress << 2
	}
	field := bitfield.ReadField(img.Bytes, bitAddr, 24) + delta
	bitfield.WriteField(img.Bytes, bitAddr, 24, field)
}

func (e *Engine) patchBRTExtended(blk *object.Block, entry loadertable.BRTEntry, img *object.Image) {
	bitAddr := int(entry.BitAddress) + int(blk.LoadAddress())*64
	width := entry.FieldWidth
	delta := blk.BaseAddress
	if entry.ParcelFlag {
		delta = blk.BaseAddress << 2
	}
	field := bitfield.ReadField(img.Bytes, bitAddr, width)
	if entry.Negative {
		field -= delta
	} else {
		field += delta
	}
	bitfield.WriteField(img.Bytes, bitAddr, width, field)
}

func (e *Engine) patchXRT(mod *object.Module, xrt *loadertable.XRT, img *object.Image) {
	for _, entry := range xrt.Entries {
		blk := mod.Block(entry.BlockIndex)
		if blk == nil {
			e.diag.Record(&LinkError{Msg: "XRT: block index out of range"})
			continue
		}
		name, ok := mod.External(entry.ExternalIndex)
		if !ok {
			e.diag.Record(&LinkError{Msg: "XRT: external index out of range"})
			continue
		}
		sym, ok := e.symbols.Get(name)
		if !ok {
			e.diag.Record(&LinkError{Msg: "unsatisfied external " + name.String()})
			continue
		}
		e.tracef("relocate: external %s -> %o", name, sym.Value)
		bitAddr := int(entry.BitAddress) + int(blk.LoadAddress())*64
		width := entry.FieldWidth
		var delta uint64
		switch {
		case entry.ParcelFlag && sym.ParcelAddress:
			delta = sym.Value
		case entry.ParcelFlag && !sym.ParcelAddress:
			delta = sym.Value << 2
		case !entry.ParcelFlag && sym.ParcelAddress:
			delta = sym.Value >> 2
		default:
			delta = sym.Value
		}
		field := bitfield.ReadField(img.Bytes, bitAddr, width) + delta
		bitfield.WriteField(img.Bytes, bitAddr, width, field)
	}
}
