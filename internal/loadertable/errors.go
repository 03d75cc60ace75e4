package loadertable

import "fmt"

// FormatError reports a loader table that is structurally invalid: a bad
// header type, an impossible section length, or similar.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "loader table: " + e.Msg
}

// ShortTableError reports a table whose header claims more words than are
// actually available to decode.
type ShortTableError struct {
	Want int
	Have int
}

func (e *ShortTableError) Error() string {
	return fmt.Sprintf("loader table: header claims %d words, only %d available", e.Want, e.Have)
}
