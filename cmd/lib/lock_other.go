//go:build !unix

package main

import "os"

// lockFile is a no-op on non-unix targets, mirroring filewatcher_windows.go's
// stubbed-out counterpart to the unix-only implementation.
func lockFile(f *os.File) error   { return nil }
func unlockFile(f *os.File) error { return nil }
