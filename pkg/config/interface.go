package config

import (
	"context"
	"errors"
)

// Sentinel errors returned by RowStore.
var (
	ErrRowNotFound  = errors.New("row not found")
	ErrLoadInFlight = errors.New("load already in flight")
	ErrUnknownField = errors.New("unknown config field")
	ErrRowStarted   = errors.New("row is started")
)

// Lister fetches the authoritative sniffer listing.
type Lister interface {
	List(ctx context.Context) ([]Sniffer, error)
}

// RowStoreInterface is the mutation API the controller and UI rely on.
type RowStoreInterface interface {
	Load(ctx context.Context) ([]Row, error)
	Append(row Row)
	AppendDraft() Row
	RemoveAt(index int) error
	RemoveByKey(key string) error
	Replace(rows []Row)
	UpdateField(index int, field, value string) error
	UpdateFieldByKey(key, field, value string) error
	ToggleCollapse(index int) error
	ToggleCollapseByKey(key string) error
	SetEditing(index int, editing bool) error
	SetEditingByKey(key string, editing bool) error

	GetAll() []Row
	Len() int
	Get(index int) (Row, bool)
	GetWithError(index int) (Row, error)
	GetByKey(key string) (Row, bool)
	GetByPort(port int) (Row, bool)
	IndexByKey(key string) (int, bool)
	Drafts() []Row
	Loading() bool
}
