// Package storage keeps rulebook files in a gocloud blob bucket: a local
// directory by default, or any bucket URL a registered driver understands.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/internal/domain"
)

// ErrInvalidKey is returned for keys that are empty or escape the root.
var ErrInvalidKey = fmt.Errorf("%w: invalid object key", domain.ErrValidation)

// Bucket is a rules.ObjectStore over a blob bucket.
type Bucket struct {
	bucket *blob.Bucket
	root   string
}

// NewLocal opens a bucket in dir, creating it if needed. Writes land in a
// temporary file and are renamed into place on success.
func NewLocal(dir string) (*Bucket, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	b, err := fileblob.OpenBucket(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open storage dir: %w", err)
	}
	return &Bucket{bucket: b, root: abs}, nil
}

// OpenURL opens the bucket at url, for example "mem://" or
// "file:///srv/guildhall/objects".
func OpenURL(ctx context.Context, url string) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return &Bucket{bucket: b}, nil
}

// Root returns the local directory, or "" for a bucket opened by URL.
func (b *Bucket) Root() string { return b.root }

func validKey(key string) error {
	clean := path.Clean(key)
	if key == "" || clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return ErrInvalidKey
	}
	return nil
}

// Put writes r to key, replacing any existing object. A failed or cancelled
// write leaves the previous object in place.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := validKey(key); err != nil {
		return 0, err
	}
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("write object %s: %w", key, err)
	}
	n, err := io.Copy(w, contextReader{ctx: ctx, r: r})
	if err != nil {
		// Cancelling before Close discards the write.
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("commit object %s: %w", key, err)
	}
	return n, nil
}

// Open returns a reader for key.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	r, err := b.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, objectErr("open", key, err)
	}
	return r, nil
}

// Delete removes key. Missing objects report domain.ErrNotFound.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := b.bucket.Delete(ctx, key); err != nil {
		return objectErr("delete", key, err)
	}
	return nil
}

// Close releases the bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}

func objectErr(op, key string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return fmt.Errorf("%s object %s: %w", op, key, err)
}

// contextReader stops a copy when ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var (
	_ rules.ObjectStore = (*Bucket)(nil)
	_ io.Closer         = (*Bucket)(nil)
)
