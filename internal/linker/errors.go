// Package linker drives the two-pass link engine: build the module/block/
// symbol graph and lay out memory (pass 1), then patch TXT/BRT/XRT into an
// absolute image (pass 2).
package linker

import "fmt"

// IOError reports a host file I/O failure. Fatal: the driver aborts
// immediately, naming the offending file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// FormatError reports a malformed control word, an impossible table word
// count, or a truncated table. Fatal.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string { return fmt.Sprintf("%s: %s", e.Path, e.Msg) }

// LinkError reports a duplicate entry, an unsatisfied external, a bad
// block index, or image overflow. Recorded in Diagnostics it is non-fatal:
// the link continues, but the final exit status is failure. A TXT image
// overflow is the exception: Patch returns it as an error and the link
// stops.
type LinkError struct {
	Path string
	Msg  string
}

func (e *LinkError) Error() string { return fmt.Sprintf("%s: %s", e.Path, e.Msg) }

// Warning reports an unknown table type, an unknown block type, a library-
// module name collision, or a propagated source-module error flag.
// Non-fatal and does not affect exit status on its own.
type Warning struct {
	Path string
	Msg  string
}

func (e *Warning) Error() string { return fmt.Sprintf("%s: warning: %s", e.Path, e.Msg) }

// UsageError reports a bad CLI invocation.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }
