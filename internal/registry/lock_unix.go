//go:build unix

package registry

import (
	"os"
	"syscall"
)

// flockExclusive takes an exclusive advisory lock on f, blocking until it
// is available.
func flockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

// flockRelease releases a lock taken by flockExclusive.
func flockRelease(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
