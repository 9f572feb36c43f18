package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kohonen/blobstore"
	"github.com/hupe1980/kohonen/codec"
)

// collection is a set of records of type T addressed by uint32 ids.
type collection[T any] struct {
	bs          blobstore.BlobStore
	prefix      string
	codec       codec.Codec
	compression Compression

	// mu guards the index. Readers hold it shared while reading records so
	// replaceAll and remove cannot delete blobs under them.
	mu     sync.RWMutex
	loaded bool
	next   uint32
	ids    *roaring.Bitmap
}

func newCollection[T any](bs blobstore.BlobStore, prefix string, o options) *collection[T] {
	return &collection[T]{
		bs:          bs,
		prefix:      prefix,
		codec:       o.codec,
		compression: o.compression,
		ids:         roaring.New(),
	}
}

func (c *collection[T]) recordName(id uint32) string {
	return fmt.Sprintf("%s/%010d", c.prefix, id)
}

func (c *collection[T]) indexName() string {
	return c.prefix + "/_index"
}

// load reads the index blob once. Callers hold c.mu.
func (c *collection[T]) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	data, err := blobstore.ReadAll(ctx, c.bs, c.indexName())
	if errors.Is(err, blobstore.ErrNotFound) {
		c.next = 1
		c.loaded = true
		return nil
	}
	if err != nil {
		return err
	}

	if len(data) < 4 {
		return fmt.Errorf("%w: index %s", ErrCorrupt, c.indexName())
	}
	ids := roaring.New()
	if err := ids.UnmarshalBinary(data[4:]); err != nil {
		return fmt.Errorf("%w: index %s: %w", ErrCorrupt, c.indexName(), err)
	}

	c.next = binary.LittleEndian.Uint32(data)
	c.ids = ids
	c.loaded = true
	return nil
}

// saveIndex persists ids and next. Callers hold c.mu.
func (c *collection[T]) saveIndex(ctx context.Context, ids *roaring.Bitmap, next uint32) error {
	ids.RunOptimize()
	body, err := ids.ToBytes()
	if err != nil {
		return err
	}

	data := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(data, next)
	data = append(data, body...)

	if err := c.bs.Put(ctx, c.indexName(), data); err != nil {
		return err
	}
	c.ids = ids
	c.next = next
	return nil
}

func (c *collection[T]) write(ctx context.Context, id uint32, rec T) error {
	raw, err := c.codec.Marshal(rec)
	if err != nil {
		return err
	}
	data, err := frame(raw, c.compression)
	if err != nil {
		return err
	}
	return c.bs.Put(ctx, c.recordName(id), data)
}

func (c *collection[T]) read(ctx context.Context, id uint32) (T, error) {
	var rec T

	data, err := blobstore.ReadAll(ctx, c.bs, c.recordName(id))
	if errors.Is(err, blobstore.ErrNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}

	raw, err := unframe(data)
	if err != nil {
		return rec, err
	}
	if err := c.codec.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %s: %w", ErrCorrupt, c.recordName(id), err)
	}
	return rec, nil
}

// insert stores the record built for the next id.
func (c *collection[T]) insert(ctx context.Context, build func(id uint32) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}

	id := c.next
	rec, err := build(id)
	if err != nil {
		return zero, err
	}
	if err := c.write(ctx, id, rec); err != nil {
		return zero, err
	}

	ids := c.ids.Clone()
	ids.Add(id)
	if err := c.saveIndex(ctx, ids, id+1); err != nil {
		return zero, err
	}
	return rec, nil
}

// update overwrites an existing record.
func (c *collection[T]) update(ctx context.Context, id uint32, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return err
	}
	if !c.ids.Contains(id) {
		return ErrNotFound
	}
	return c.write(ctx, id, rec)
}

// rlock loads the index if needed and returns with c.mu held shared.
func (c *collection[T]) rlock(ctx context.Context) error {
	c.mu.RLock()
	if c.loaded {
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	err := c.load(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.mu.RLock()
	return nil
}

func (c *collection[T]) get(ctx context.Context, id uint32) (T, error) {
	if err := c.rlock(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer c.mu.RUnlock()

	if !c.ids.Contains(id) {
		var zero T
		return zero, ErrNotFound
	}
	return c.read(ctx, id)
}

func (c *collection[T]) list(ctx context.Context) ([]T, error) {
	if err := c.rlock(ctx); err != nil {
		return nil, err
	}
	defer c.mu.RUnlock()

	ids := c.ids.ToArray()
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		rec, err := c.read(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// remove deletes the records matching ids. Missing ids are ignored unless
// strict is set.
func (c *collection[T]) remove(ctx context.Context, strict bool, ids ...uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return err
	}

	next := c.ids.Clone()
	for _, id := range ids {
		if !next.Contains(id) {
			if strict {
				return ErrNotFound
			}
			continue
		}
		next.Remove(id)
	}

	if err := c.saveIndex(ctx, next, c.next); err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.bs.Delete(ctx, c.recordName(id)); err != nil {
			return err
		}
	}
	return nil
}

// replaceAll swaps the full record set. New records are written before the
// index flips, so a failure leaves the previous set intact.
func (c *collection[T]) replaceAll(ctx context.Context, n int, build func(i int, id uint32) T) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return nil, err
	}

	old := c.ids.ToArray()
	ids := roaring.New()
	next := c.next
	out := make([]T, 0, n)

	for i := range n {
		rec := build(i, next)
		if err := c.write(ctx, next, rec); err != nil {
			return nil, err
		}
		ids.Add(next)
		out = append(out, rec)
		next++
	}

	if err := c.saveIndex(ctx, ids, next); err != nil {
		return nil, err
	}
	for _, id := range old {
		if err := c.bs.Delete(ctx, c.recordName(id)); err != nil {
			return out, err
		}
	}
	return out, nil
}
