//go:build !unix

package download

// withFileLock runs fn without locking; advisory locks are only wired on unix.
func withFileLock(_ string, fn func() error) error {
	return fn()
}
