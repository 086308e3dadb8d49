package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Fixed medium keys, one blob per collection.
const (
	KeyVault               = "contractguard_vault"
	KeyChats               = "contractguard_chats"
	KeyWatchlist           = "contractguard_watchlist"
	KeyReviews             = "contractguard_reviews"
	KeyDiscoveredCompanies = "contractguard_discovered_companies"
)

const schemaVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	Data          json.RawMessage `json:"data"`
}

// Document is a single JSON value persisted under one medium key. Reads of an
// absent key yield the zero value; a blob that fails to decode is logged,
// copied to "<key>.corrupt" and treated as absent.
type Document[T any] struct {
	medium Medium
	key    string
	mu     sync.Mutex
}

func NewDocument[T any](medium Medium, key string) *Document[T] {
	return &Document[T]{medium: medium, key: key}
}

// Load returns the current value.
func (d *Document[T]) Load(ctx context.Context) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// Mutate runs fn on the current value and writes the result back, all under
// the document lock. If fn returns changed=false nothing is written.
func (d *Document[T]) Mutate(ctx context.Context, fn func(v T) (T, bool, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := d.load(ctx)
	if err != nil {
		return err
	}
	next, changed, err := fn(cur)
	if err != nil || !changed {
		return err
	}
	return d.save(ctx, next)
}

// Clear removes the blob entirely.
func (d *Document[T]) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.medium.Delete(ctx, d.key)
}

// Must be called with lock held
func (d *Document[T]) load(ctx context.Context) (T, error) {
	var zero T
	raw, ok, err := d.medium.Get(ctx, d.key)
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", d.key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return zero, nil
	}

	v, err := decodeBlob[T](raw)
	if err != nil {
		slog.Error("stored collection is corrupt, resetting",
			"key", d.key,
			"bytes", len(raw),
			"error", err,
		)
		storeCorruptTotal.WithLabelValues(d.key).Inc()
		if err := d.medium.Put(ctx, d.key+".corrupt", raw); err != nil {
			slog.Error("failed to back up corrupt collection", "key", d.key, "error", err)
		}
		return zero, nil
	}
	return v, nil
}

// Must be called with lock held
func (d *Document[T]) save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}
	blob, err := json.Marshal(envelope{SchemaVersion: schemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}
	if err := d.medium.Put(ctx, d.key, blob); err != nil {
		return fmt.Errorf("failed to save %s: %w", d.key, err)
	}
	return nil
}

// decodeBlob reads an enveloped blob, or a bare legacy value without one.
func decodeBlob[T any](raw []byte) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.SchemaVersion > 0 {
			if env.SchemaVersion > schemaVersion {
				return v, fmt.Errorf("unsupported schema version %d", env.SchemaVersion)
			}
			if len(env.Data) == 0 || string(env.Data) == "null" {
				return v, nil
			}
			err := json.Unmarshal(env.Data, &v)
			return v, err
		}
	}
	err := json.Unmarshal(trimmed, &v)
	return v, err
}

// InsertPolicy decides where Upsert places a record it has not seen before.
type InsertPolicy int

const (
	Prepend InsertPolicy = iota
	Append
)

// Collection is an ordered list of records persisted as one blob.
type Collection[T any] struct {
	doc    *Document[[]T]
	idOf   func(T) string
	policy InsertPolicy
}

func NewCollection[T any](medium Medium, key string, idOf func(T) string, policy InsertPolicy) *Collection[T] {
	return &Collection[T]{
		doc:    NewDocument[[]T](medium, key),
		idOf:   idOf,
		policy: policy,
	}
}

// List returns every record in stored order, empty when nothing is stored.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	items, err := c.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// FindByID returns the record with id; a miss is not an error.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := c.doc.Load(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if c.idOf(item) == id {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Upsert replaces the record with the same id in place, otherwise inserts it
// according to the collection's policy.
func (c *Collection[T]) Upsert(ctx context.Context, item T) error {
	return c.Mutate(ctx, func(items []T) ([]T, bool, error) {
		return upsertItem(items, item, c.idOf, c.policy), true, nil
	})
}

// RemoveByID drops the record with id. Removing an absent id writes nothing.
func (c *Collection[T]) RemoveByID(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(items []T) ([]T, bool, error) {
		out := make([]T, 0, len(items))
		for _, item := range items {
			if c.idOf(item) != id {
				out = append(out, item)
			}
		}
		return out, len(out) != len(items), nil
	})
}

// Mutate is a read-modify-write of the whole list under the collection lock.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	return c.doc.Mutate(ctx, fn)
}

func upsertItem[T any](items []T, item T, idOf func(T) string, policy InsertPolicy) []T {
	id := idOf(item)
	for i := range items {
		if idOf(items[i]) == id {
			items[i] = item
			return items
		}
	}
	if policy == Append {
		return append(items, item)
	}
	return append([]T{item}, items...)
}
