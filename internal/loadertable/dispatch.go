package loadertable

// TableWordCount returns the total word count (including the header) a
// table's header word declares, handling DFT's different field position.
func TableWordCount(header uint64) uint64 {
	if HeaderType(header) == TypeDFT {
		return field(header, 16, 39)
	}
	return HeaderWordCount(header)
}
