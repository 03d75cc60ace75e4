package library

import "fmt"

// FormatError reports a library file that failed to decode as a valid
// sequence of loader tables.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}
