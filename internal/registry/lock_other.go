//go:build !unix

package registry

import "os"

// flockExclusive is a no-op on platforms without flock(2); the lock file is
// still created so .lock's presence is consistent across platforms, but it
// carries no serialization guarantee here.
func flockExclusive(f *os.File) error { return nil }

// flockRelease mirrors flockExclusive's no-op on non-unix platforms.
func flockRelease(f *os.File) error { return nil }
