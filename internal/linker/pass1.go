package linker

import (
	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/library"
	"github.com/xyproto/coslink/internal/loadertable"
	"github.com/xyproto/coslink/internal/object"
)

// ScanInput classifies one input by peeking its first record: a DFT
// header means library, anything else means a plain object file, and
// ingests it accordingly. Inputs must be scanned in command-line
// order; object readers are kept open for pass 2 to continue reading
// their TXT/BRT/XRT records from where pass 1 left off.
func (e *Engine) ScanInput(path string, r *dataset.Reader) error {
	isLib, err := library.IsLibrary(r)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if isLib {
		return e.scanLibrary(path, r)
	}
	return e.scanObject(path, r)
}

func (e *Engine) scanLibrary(path string, r *dataset.Reader) error {
	lib, err := library.Scan(path, r)
	if err != nil {
		return &FormatError{Path: path, Msg: err.Error()}
	}
	e.libraries = append(e.libraries, lib)

	for _, unit := range lib.Units {
		if unit.PDT == nil {
			return &FormatError{Path: path, Msg: "library module missing PDT"}
		}
		name := unit.Name()
		if d := unit.DFT; d != nil && (len(d.Blocks) != len(unit.PDT.Blocks) ||
			len(d.Entries) != len(unit.PDT.Entries) || len(d.Externals) != len(unit.PDT.Externals)) {
			e.diag.Record(&Warning{Path: path, Msg: "directory counts for module " + name.String() + " disagree with its PDT; PDT counts used"})
		}
		if _, exists := e.libByName.Get(name); exists {
			e.diag.Record(&Warning{Path: path, Msg: "duplicate library module name " + name.String() + ", first wins"})
			continue
		}
		st := &libModuleState{lib: lib, unit: unit}
		e.libByName.Set(name, st)
		e.libOrder = append(e.libOrder, name)
		for _, entry := range unit.PDT.Entries {
			if _, exists := e.entryIndex.Get(entry.Name); !exists {
				e.entryIndex.Set(entry.Name, st)
			}
		}
	}
	return nil
}

func (e *Engine) scanObject(path string, r *dataset.Reader) error {
	words, err := readRecordWords(r)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if words == nil {
		return &FormatError{Path: path, Msg: "object file has no PDT"}
	}
	if loadertable.HeaderType(words[0]) != loadertable.TypePDT {
		return &FormatError{Path: path, Msg: "object file does not begin with a PDT"}
	}
	pdt, err := loadertable.DecodePDT(words)
	if err != nil {
		return &FormatError{Path: path, Msg: err.Error()}
	}
	mod := e.ingestPDT(pdt, path)
	e.objectReaders[mod] = r
	e.objectPaths[mod] = path
	return nil
}

// ingestPDT builds an object.Module from a decoded PDT and threads its
// blocks into the per-type image chains and its entries into the symbol
// table.
func (e *Engine) ingestPDT(pdt *loadertable.PDT, path string) *object.Module {
	mod := &object.Module{
		ExternalRefs: pdt.Externals,
		Comment:      pdt.Comment,
	}
	modIndex := len(e.modules)
	e.modules = append(e.modules, mod)

	for i, bd := range pdt.Blocks {
		blk := &object.Block{
			Name:      bd.Name,
			Type:      object.BlockType(bd.Kind),
			Ordinal:   i,
			Absolute:  bd.Absolute,
			Origin:    bd.Origin,
			Length:    bd.Length,
			ErrorFlag: bd.Error,
		}
		mod.Blocks = append(mod.Blocks, blk)
		if blk.ErrorFlag {
			e.diag.Record(&Warning{Path: path, Msg: "source block " + blk.Name.String() + " carries an error flag"})
			e.diag.PropagateErrorFlag()
		}
		e.insertIntoChain(blk)
	}

	for _, ed := range pdt.Entries {
		if _, exists := e.symbols.Get(ed.Name); exists {
			e.diag.Record(&LinkError{Path: path, Msg: "duplicate entry point " + ed.Name.String()})
			continue
		}
		blockIdx := e.entryBlockOrdinal(mod, ed)
		sym := &object.Symbol{
			Name:          ed.Name,
			Block:         object.Ref{ModuleIndex: modIndex, BlockIndex: blockIdx},
			Value:         ed.Value,
			ParcelAddress: ed.ParcelAddress,
		}
		e.symbols.Set(ed.Name, sym)
		e.symbolOrder = append(e.symbolOrder, ed.Name)
	}

	return mod
}

// entryBlockOrdinal resolves which block an entry descriptor's value is
// relative to. The PDT format doesn't carry this explicitly per entry
// (an entry descriptor has only name/flags/value), so this codec
// resolves it the same way a single-block program naturally works: the
// module's first block. Multi-block modules with entries outside the
// first block are expected to come from an expression evaluator, which
// is out of scope here.
func (e *Engine) entryBlockOrdinal(mod *object.Module, ed loadertable.EntryDescriptor) int {
	_ = ed
	if len(mod.Blocks) == 0 {
		return 0
	}
	return 0
}

// insertIntoChain appends blk to its type's per-type image chain,
// inserting it directly after the last existing block sharing its name so
// that same-named blocks from different modules stay contiguous — the
// grouping layout depends on to fuse their base addresses (see Layout in
// layout.go for the fusion rule this enables).
func (e *Engine) insertIntoChain(blk *object.Block) {
	chain := e.chains[blk.Type]
	insertAt := len(chain)
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Name == blk.Name {
			insertAt = i + 1
			break
		}
	}
	chain = append(chain, nil)
	copy(chain[insertAt+1:], chain[insertAt:])
	chain[insertAt] = blk
	e.chains[blk.Type] = chain
}

// Resolve walks every object module's external references, pulling in
// library modules transitively until nothing more can resolve. Unresolved
// externals are not recorded here. During pass 2 each XRT entry that
// references one is recorded as a LinkError; an unresolved external that
// no XRT entry references records no LinkError and shows only as
// *UNSATISFIED* in the load map.
func (e *Engine) Resolve() {
	var queue []pendingExternal
	for _, mod := range e.modules {
		for _, name := range mod.ExternalRefs {
			queue = append(queue, pendingExternal{mod: mod, name: name})
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if _, ok := e.symbols.Get(p.name); ok {
			continue
		}
		st, ok := e.entryIndex.Get(p.name)
		if !ok || st.doLoad {
			continue
		}
		st.doLoad = true
		mod := e.ingestLibraryModule(st)
		for _, name := range mod.ExternalRefs {
			queue = append(queue, pendingExternal{mod: mod, name: name})
		}
	}
}

func (e *Engine) ingestLibraryModule(st *libModuleState) *object.Module {
	path := st.lib.Path
	mod := e.ingestPDT(st.unit.PDT, path)
	mod.LibraryPath = path
	mod.DoLoad = true
	for _, ed := range st.unit.PDT.Entries {
		mod.EntryNames = append(mod.EntryNames, ed.Name)
	}
	st.module = mod
	e.unitByModule[mod] = st.unit
	return mod
}
