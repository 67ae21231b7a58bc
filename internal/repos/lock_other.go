//go:build !unix

package repos

// lockFile is a no-op where flock is unavailable; the in-process mutex in
// CardRepo still serialises writers within one process.
func lockFile(string) (func(), error) { return func() {}, nil }
