package object

import "github.com/xyproto/coslink/internal/ident"

// Module is a unit of relocatable (or absolute) code, created on first PDT
// sighting during pass 1 of the link engine.
type Module struct {
	Name         ident.Ident
	Absolute     bool
	Blocks       []*Block
	ExternalRefs []ident.Ident // index-addressable; XRT entries reference these by index
	Comment      string

	// Library-module fields; zero value for plain object-file modules.
	LibraryPath string
	EntryNames  []ident.Ident
	DoLoad      bool
}

// Block returns the i-th block in module order, or nil if i is out of
// range: the i-th block in module order.
func (m *Module) Block(i int) *Block {
	if i < 0 || i >= len(m.Blocks) {
		return nil
	}
	return m.Blocks[i]
}

// External returns the name at external-index k, or the zero Ident and
// false if k is out of range.
func (m *Module) External(k int) (ident.Ident, bool) {
	if k < 0 || k >= len(m.ExternalRefs) {
		return ident.Ident{}, false
	}
	return m.ExternalRefs[k], true
}
