package object

import "github.com/xyproto/coslink/internal/ident"

// Symbol is an entry point or start symbol: an 8-byte identifier bound to a
// word or parcel address within some block.
type Symbol struct {
	Name          ident.Ident
	Block         Ref
	Value         uint64
	ParcelAddress bool // true if Value is a parcel address, false if word address
}

// Address returns the symbol's fully-relocated address: a word address if
// ParcelAddress is false, a parcel address (word address * 4 + parcel
// index) if true. Callers adjust Value by the owning block's BaseAddress
// (word-scaled or parcel-scaled, per ParcelAddress) once during layout;
// Address simply reads the already-adjusted Value back out.
func (s *Symbol) Address() uint64 {
	return s.Value
}
