package transfer

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// DestinationKind distinguishes destination implementations for display.
type DestinationKind string

const (
	KindDirectory DestinationKind = "directory"
	KindBucket    DestinationKind = "bucket"
)

// Destination stores fetched files under slash-separated keys.
type Destination interface {
	// Exists reports whether the key is already present.
	Exists(ctx context.Context, key string) (bool, error)
	// Store writes the stream to the key. Implementations must not leave
	// partial content behind on failure.
	Store(ctx context.Context, key string, r io.Reader) error
	Kind() DestinationKind
	// Describe returns the full target for a key, for display.
	Describe(key string) string
}

// S3Addressable is implemented by destinations that can express keys as
// s3:// targets. The fast path requires it.
type S3Addressable interface {
	S3Target(key string) (string, bool)
}

// DirDestination stores files under a local root directory.
type DirDestination struct {
	root string

	// BufferSize is the copy buffer size in bytes. Zero uses io.Copy's
	// default.
	BufferSize int
}

// NewDirDestination returns a destination rooted at dir.
func NewDirDestination(dir string) *DirDestination {
	return &DirDestination{root: dir}
}

func (d *DirDestination) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(d.Describe(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

// Store writes through a temp file in the target directory and renames it
// into place, so readers never observe a partial file.
func (d *DirDestination) Store(_ context.Context, key string, r io.Reader) error {
	target := d.Describe(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	var buf []byte
	if d.BufferSize > 0 {
		buf = make([]byte, d.BufferSize)
	}
	if _, err := io.CopyBuffer(tmp, r, buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	return nil
}

func (d *DirDestination) Kind() DestinationKind {
	return KindDirectory
}

func (d *DirDestination) Describe(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// BucketDestination stores files in an object-store bucket. Keys are placed
// under an optional prefix.
type BucketDestination struct {
	bucket    *blob.Bucket
	bucketURL string
	prefix    string
	s3Bucket  string

	// BufferSize is handed to the blob writer, which buffers uploads in
	// chunks of that size. Zero uses the driver default.
	BufferSize int
}

// OpenBucket opens the bucket at bucketURL (s3://, file://, mem://) and
// wraps it as a destination.
func OpenBucket(ctx context.Context, bucketURL, prefix string) (*BucketDestination, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return NewBucketDestination(bucket, bucketURL, prefix), nil
}

// NewBucketDestination wraps an already-open bucket. Tests use it with
// in-memory buckets.
func NewBucketDestination(bucket *blob.Bucket, bucketURL, prefix string) *BucketDestination {
	d := &BucketDestination{bucket: bucket, bucketURL: bucketURL, prefix: prefix}
	if parsed, err := url.Parse(bucketURL); err == nil && parsed.Scheme == "s3" {
		d.s3Bucket = parsed.Host
	}
	return d
}

// Close releases the underlying bucket.
func (d *BucketDestination) Close() error {
	return d.bucket.Close()
}

func (d *BucketDestination) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := d.bucket.Exists(ctx, d.objectKey(key))
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return exists, nil
}

// Store streams to the object. A failed write cancels the writer and
// best-effort deletes whatever the driver may have stored.
func (d *BucketDestination) Store(ctx context.Context, key string, r io.Reader) error {
	objKey := d.objectKey(key)

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var opts *blob.WriterOptions
	if d.BufferSize > 0 {
		opts = &blob.WriterOptions{BufferSize: d.BufferSize}
	}
	w, err := d.bucket.NewWriter(writeCtx, objKey, opts)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if _, err := io.Copy(w, r); err != nil {
		cancel()
		w.Close()
		_ = d.bucket.Delete(ctx, objKey)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		_ = d.bucket.Delete(ctx, objKey)
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	return nil
}

func (d *BucketDestination) Kind() DestinationKind {
	return KindBucket
}

func (d *BucketDestination) Describe(key string) string {
	base := strings.TrimSuffix(d.bucketURL, "/")
	if base == "" {
		base = "bucket"
	}
	return base + "/" + d.objectKey(key)
}

// S3Target returns the s3://bucket/key form for the fast path, when the
// destination was opened from an s3:// URL.
func (d *BucketDestination) S3Target(key string) (string, bool) {
	if d.s3Bucket == "" {
		return "", false
	}
	return "s3://" + d.s3Bucket + "/" + d.objectKey(key), true
}

func (d *BucketDestination) objectKey(key string) string {
	if d.prefix == "" {
		return key
	}
	return path.Join(d.prefix, key)
}
