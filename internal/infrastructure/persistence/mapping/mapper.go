// Package mapping converts climbing entities to and from store rows.
package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

// Mapper encodes entities of type T for one entity table. The payload is
// the entity's JSON form; parent columns are read from the entity itself.
type Mapper[T any] struct {
	table   store.TableSpec
	id      func(T) int64
	parents func(T) map[string]int64
	prepare func(T) T
	restore func(T, map[string]int64) T
}

// NewMapper builds a Mapper. parents and prepare may be nil.
func NewMapper[T any](table store.TableSpec, id func(T) int64, parents func(T) map[string]int64, prepare func(T) T) Mapper[T] {
	return Mapper[T]{table: table, id: id, parents: parents, prepare: prepare}
}

// WithParents returns a copy of m that copies the row's non-zero parent
// columns back into each decoded entity. A row shared by several scopes can
// hold parents its latest payload did not carry.
func (m Mapper[T]) WithParents(restore func(T, map[string]int64) T) Mapper[T] {
	m.restore = restore
	return m
}

// Table returns the table the mapper writes to.
func (m Mapper[T]) Table() store.TableSpec { return m.table }

// ID returns the remote id of v.
func (m Mapper[T]) ID(v T) int64 { return m.id(v) }

// ToRow encodes v as a row of backendID cached at cachedAt (epoch millis).
func (m Mapper[T]) ToRow(backendID string, v T, cachedAt int64) (store.EntityRow, error) {
	if m.prepare != nil {
		v = m.prepare(v)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return store.EntityRow{}, fmt.Errorf("encode %s row %d: %w", m.table.Name, m.id(v), err)
	}
	row := store.EntityRow{
		Key:      store.EntityKey{ID: m.id(v), BackendID: backendID},
		Payload:  payload,
		CachedAt: cachedAt,
	}
	if m.parents != nil {
		row.Parents = m.parents(v)
	}
	return row, nil
}

// ToRows encodes vs, preserving their order.
func (m Mapper[T]) ToRows(backendID string, vs []T, cachedAt int64) ([]store.EntityRow, error) {
	rows := make([]store.EntityRow, 0, len(vs))
	for i, v := range vs {
		row, err := m.ToRow(backendID, v, cachedAt)
		if err != nil {
			return nil, err
		}
		row.Position = i
		rows = append(rows, row)
	}
	return rows, nil
}

// FromRow decodes a stored row.
func (m Mapper[T]) FromRow(row store.EntityRow) (T, error) {
	var v T
	if err := json.Unmarshal(row.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s row %d/%s: %w", m.table.Name, row.Key.ID, row.Key.BackendID, err)
	}
	if m.restore != nil && row.Parents != nil {
		v = m.restore(v, row.Parents)
	}
	return v, nil
}

// DecodeFailure records a row that could not be decoded.
type DecodeFailure struct {
	Key store.EntityKey
	Err error
}

// FromRows decodes rows, skipping the ones that fail. Skipped rows are
// reported in failures; cachedAt holds the timestamps of decoded rows.
func (m Mapper[T]) FromRows(rows []store.EntityRow) (out []T, cachedAt []int64, failures []DecodeFailure) {
	out = make([]T, 0, len(rows))
	cachedAt = make([]int64, 0, len(rows))
	for _, row := range rows {
		v, err := m.FromRow(row)
		if err != nil {
			failures = append(failures, DecodeFailure{Key: row.Key, Err: err})
			continue
		}
		out = append(out, v)
		cachedAt = append(cachedAt, row.CachedAt)
	}
	return out, cachedAt, failures
}
