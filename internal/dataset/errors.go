package dataset

import "fmt"

// ShortReadError reports a dataset that ended (or was truncated) before a
// complete control word or record payload could be read. A short read at
// any point is a fatal codec error.
type ShortReadError struct {
	Path string
	Want int
	Have int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("%s: short read: wanted %d bytes, had %d", e.Path, e.Want, e.Have)
}

// MalformedError reports a structurally invalid control word or block.
type MalformedError struct {
	Path string
	Msg  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed dataset: %s", e.Path, e.Msg)
}
