package testsupport

import (
	"testing"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

// NewBucket returns an in-memory bucket for tests and registers cleanup.
func NewBucket(t testing.TB) *blob.Bucket {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() {
		bucket.Close()
	})
	return bucket
}
