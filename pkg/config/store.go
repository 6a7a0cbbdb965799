package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xlttj/sniffctl/pkg/logging"
)

// RowStore owns the ordered collection of sniffer rows.
// Index-based methods are only meaningful within one synchronous batch;
// asynchronous callers should use the key-based variants.
type RowStore struct {
	rows    []Row
	lister  Lister
	loading atomic.Bool
	mutex   sync.RWMutex
}

var _ RowStoreInterface = (*RowStore)(nil)

// NewRowStore returns an empty store that loads through lister.
func NewRowStore(lister Lister) *RowStore {
	return &RowStore{lister: lister}
}

// Load replaces the whole collection with the backend listing.
// A call made while another load is in flight returns ErrLoadInFlight
// and leaves the store alone.
func (rs *RowStore) Load(ctx context.Context) ([]Row, error) {
	if !rs.loading.CompareAndSwap(false, true) {
		logging.LogDebug("Load skipped: another load is in flight")
		return nil, ErrLoadInFlight
	}
	defer rs.loading.Store(false)

	sniffers, err := rs.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sniffers: %w", err)
	}

	rows := make([]Row, 0, len(sniffers))
	for _, s := range sniffers {
		rows = append(rows, rowFromSniffer(s))
	}

	rs.mutex.Lock()
	rs.rows = rows
	rs.mutex.Unlock()

	logging.LogDebug("Loaded %d sniffers", len(rows))
	return cloneRows(rows), nil
}

// Loading reports whether a load is in flight.
func (rs *RowStore) Loading() bool {
	return rs.loading.Load()
}

// Append adds row to the end of the collection.
func (rs *RowStore) Append(row Row) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.rows = append(rs.rows, row)
}

// AppendDraft adds an empty draft in edit mode and returns it.
func (rs *RowStore) AppendDraft() Row {
	row := NewDraft()
	rs.Append(row)
	logging.LogDebug("Appended draft %s", row.Key)
	return row
}

// RemoveAt removes the row at index.
func (rs *RowStore) RemoveAt(index int) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if err := rs.checkIndexUnsafe(index); err != nil {
		return err
	}
	rs.rows = append(rs.rows[:index:index], rs.rows[index+1:]...)
	return nil
}

// RemoveByKey removes the row with key.
func (rs *RowStore) RemoveByKey(key string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	index, ok := rs.indexByKeyUnsafe(key)
	if !ok {
		return fmt.Errorf("%w: key %s", ErrRowNotFound, key)
	}
	rs.rows = append(rs.rows[:index:index], rs.rows[index+1:]...)
	return nil
}

// Replace swaps in rows as the whole collection.
func (rs *RowStore) Replace(rows []Row) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.rows = cloneRows(rows)
}

// UpdateField sets one config field of the row at index.
// Port values that are not positive integers become PortUnset.
// Edit-mode gating is the caller's job.
func (rs *RowStore) UpdateField(index int, field, value string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if err := rs.checkIndexUnsafe(index); err != nil {
		return err
	}
	return setField(&rs.rows[index].Config, field, value)
}

// UpdateFieldByKey is UpdateField addressed by key.
func (rs *RowStore) UpdateFieldByKey(key, field, value string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	index, ok := rs.indexByKeyUnsafe(key)
	if !ok {
		return fmt.Errorf("%w: key %s", ErrRowNotFound, key)
	}
	return setField(&rs.rows[index].Config, field, value)
}

// ToggleCollapse flips the display toggle of the row at index.
func (rs *RowStore) ToggleCollapse(index int) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if err := rs.checkIndexUnsafe(index); err != nil {
		return err
	}
	rs.rows[index].IsCollapsed = !rs.rows[index].IsCollapsed
	return nil
}

// ToggleCollapseByKey is ToggleCollapse addressed by key.
func (rs *RowStore) ToggleCollapseByKey(key string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	index, ok := rs.indexByKeyUnsafe(key)
	if !ok {
		return fmt.Errorf("%w: key %s", ErrRowNotFound, key)
	}
	rs.rows[index].IsCollapsed = !rs.rows[index].IsCollapsed
	return nil
}

// SetEditing sets edit mode of the row at index.
// A started row cannot enter edit mode.
func (rs *RowStore) SetEditing(index int, editing bool) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if err := rs.checkIndexUnsafe(index); err != nil {
		return err
	}
	return setEditing(&rs.rows[index], editing)
}

// SetEditingByKey is SetEditing addressed by key.
func (rs *RowStore) SetEditingByKey(key string, editing bool) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	index, ok := rs.indexByKeyUnsafe(key)
	if !ok {
		return fmt.Errorf("%w: key %s", ErrRowNotFound, key)
	}
	return setEditing(&rs.rows[index], editing)
}

// GetAll returns a copy of all rows.
func (rs *RowStore) GetAll() []Row {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return cloneRows(rs.rows)
}

// Len returns the number of rows.
func (rs *RowStore) Len() int {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return len(rs.rows)
}

// Get returns the row at index.
func (rs *RowStore) Get(index int) (Row, bool) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	if index < 0 || index >= len(rs.rows) {
		return Row{}, false
	}
	return rs.rows[index], true
}

// GetWithError is Get with an ErrRowNotFound describing the bounds.
func (rs *RowStore) GetWithError(index int) (Row, error) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	if err := rs.checkIndexUnsafe(index); err != nil {
		return Row{}, err
	}
	return rs.rows[index], nil
}

// GetByKey returns the row with key.
func (rs *RowStore) GetByKey(key string) (Row, bool) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	index, ok := rs.indexByKeyUnsafe(key)
	if !ok {
		return Row{}, false
	}
	return rs.rows[index], true
}

// GetByPort returns the persisted row saved under port, falling back to a
// draft that carries the same port. Unsaved port edits on persisted rows
// do not match.
func (rs *RowStore) GetByPort(port int) (Row, bool) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	var draft *Row
	for i := range rs.rows {
		row := &rs.rows[i]
		if !row.IsNew {
			if row.SavedPort == port {
				return *row, true
			}
			continue
		}
		if draft == nil && row.Config.Port == port {
			draft = row
		}
	}
	if draft != nil {
		return *draft, true
	}
	return Row{}, false
}

// IndexByKey returns the current position of the row with key.
func (rs *RowStore) IndexByKey(key string) (int, bool) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return rs.indexByKeyUnsafe(key)
}

// Drafts returns the rows that have not been created on the backend yet.
func (rs *RowStore) Drafts() []Row {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	var drafts []Row
	for _, row := range rs.rows {
		if row.IsNew {
			drafts = append(drafts, row)
		}
	}
	return drafts
}

// Helper methods (must be called with mutex already held)

func (rs *RowStore) checkIndexUnsafe(index int) error {
	if index < 0 || index >= len(rs.rows) {
		return fmt.Errorf("%w: index %d out of bounds (length %d)", ErrRowNotFound, index, len(rs.rows))
	}
	return nil
}

func (rs *RowStore) indexByKeyUnsafe(key string) (int, bool) {
	for i, row := range rs.rows {
		if row.Key == key {
			return i, true
		}
	}
	return -1, false
}

func setField(cfg *SnifferConfig, field, value string) error {
	switch field {
	case FieldPort:
		cfg.Port = coercePort(value)
	case FieldName:
		cfg.Name = value
	case FieldDownstreamURL:
		cfg.DownstreamURL = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func setEditing(row *Row, editing bool) error {
	if editing && row.IsStarted {
		return fmt.Errorf("%w: %s cannot enter edit mode", ErrRowStarted, row.Key)
	}
	row.IsEditing = editing
	return nil
}

func coercePort(value string) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port <= 0 {
		return PortUnset
	}
	return port
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
