package linker

// Diagnostics accumulates LinkErrors and Warnings across a link run instead
// of printing them as they occur, so a caller controls where (and whether)
// they're printed and can compute the final exit status once at the end.
type Diagnostics struct {
	entries    []error
	linkErrors int
	errorFlag  bool // a source module's error flag propagated
}

// Record appends an error or warning to the diagnostics log, counting
// LinkErrors toward the eventual exit status.
func (d *Diagnostics) Record(err error) {
	d.entries = append(d.entries, err)
	if _, ok := err.(*LinkError); ok {
		d.linkErrors++
	}
}

// PropagateErrorFlag records that some input block carried its error flag,
// which also forces a failing exit status.
func (d *Diagnostics) PropagateErrorFlag() {
	d.errorFlag = true
}

// Entries returns every recorded diagnostic, in the order they occurred.
func (d *Diagnostics) Entries() []error {
	return d.entries
}

// ExitStatus returns 0 if the link should be reported as successful, 1
// otherwise: any LinkError, or any propagated source error flag, fails it.
func (d *Diagnostics) ExitStatus() int {
	if d.linkErrors > 0 || d.errorFlag {
		return 1
	}
	return 0
}
