package linker

import (
	"fmt"
	"os"
	"time"

	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/ident"
	"github.com/xyproto/coslink/internal/library"
	"github.com/xyproto/coslink/internal/loadertable"
	"github.com/xyproto/coslink/internal/object"
)

// Options configures a link run.
type Options struct {
	Verbose bool
	Clock   loadertable.Clock
}

// libModuleState tracks one library module discovered during scanning:
// its parsed PDT/TXT/BRT/XRT (already available from library.Scan) and
// whether transitive external resolution has pulled it into the link.
type libModuleState struct {
	lib    *library.Library
	unit   *library.ModuleUnit
	module *object.Module // set once doLoad flips and the module is ingested
	doLoad bool
}

// pendingExternal is one (module, external name) pair still waiting on
// resolution.
type pendingExternal struct {
	mod  *object.Module
	name ident.Ident
}

// Engine holds all state for one link run: the module/block/symbol graph
// built in pass 1, then patched in pass 2.
type Engine struct {
	opts Options
	diag *Diagnostics

	modules       []*object.Module // object modules first, then ingested library modules, in discovery order
	objectReaders map[*object.Module]*dataset.Reader
	objectPaths   map[*object.Module]string

	libraries    []*library.Library
	libByName    *ident.Index[*libModuleState] // library module directory, see internal/ident.Index
	libOrder     []ident.Ident
	unitByModule map[*object.Module]*library.ModuleUnit

	entryIndex *ident.Index[*libModuleState] // external name -> library module that exports it

	chains map[object.BlockType][]*object.Block

	symbols     *ident.Index[*object.Symbol] // entry-symbol lookup table, see internal/ident.Index
	symbolOrder []ident.Ident

	blockLimit uint64
	imageSize  uint64
}

// NewEngine creates an empty link engine ready for pass 1.
func NewEngine(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		opts:          opts,
		diag:          &Diagnostics{},
		objectReaders: map[*object.Module]*dataset.Reader{},
		objectPaths:   map[*object.Module]string{},
		libByName:     ident.NewIndex[*libModuleState](16),
		unitByModule:  map[*object.Module]*library.ModuleUnit{},
		entryIndex:    ident.NewIndex[*libModuleState](16),
		chains:        map[object.BlockType][]*object.Block{},
		symbols:       ident.NewIndex[*object.Symbol](16),
		blockLimit:    object.StartOfProgram,
	}
}

// Diagnostics returns the accumulated warnings and link errors.
func (e *Engine) Diagnostics() *Diagnostics { return e.diag }

// tracef writes a verbose trace line to stderr when -v/-verbose is set, the
// same fmt.Fprintf(os.Stderr, ...) convention the host CLI's VerboseMode
// gates everything else with.
func (e *Engine) tracef(format string, args ...any) {
	if !e.opts.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "ldr: "+format+"\n", args...)
}
