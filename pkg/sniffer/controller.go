package sniffer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
)

// Sentinel errors for controller operations.
var (
	// ErrNotAllowed is returned when a guard rejects an operation.
	// No request is issued and nothing is notified.
	ErrNotAllowed = errors.New("operation not allowed in current row state")
	// ErrBusy is returned when the row already has an operation in flight.
	ErrBusy = errors.New("row has an operation in flight")
)

// saveDraftsLimit bounds concurrent creates issued by SaveDrafts.
const saveDraftsLimit = 4

// Op is the kind of request in flight for a row.
type Op int

const (
	OpNone Op = iota
	OpCreate
	OpSave
	OpStart
	OpStop
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "creating"
	case OpSave:
		return "saving"
	case OpStart:
		return "starting"
	case OpStop:
		return "stopping"
	case OpDelete:
		return "removing"
	}
	return ""
}

// Controller mediates row transitions against the control service.
// Every successful mutation except delete is followed by a full reload.
type Controller struct {
	store    config.RowStoreInterface
	backend  Backend
	notifier Notifier

	pending map[string]Op
	mutex   sync.Mutex
}

// NewController wires a store, a backend and a notification sink.
func NewController(store config.RowStoreInterface, backend Backend, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Controller{
		store:    store,
		backend:  backend,
		notifier: notifier,
		pending:  make(map[string]Op),
	}
}

// Store returns the row store the controller mutates.
func (c *Controller) Store() config.RowStoreInterface {
	return c.store
}

// Pending returns the operation in flight for key, or OpNone.
func (c *Controller) Pending(key string) Op {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pending[key]
}

// Init performs the first load. When the backend has no sniffers, or the
// load fails on an empty store, one draft is added to start from.
func (c *Controller) Init(ctx context.Context) error {
	_, err := c.reload(ctx)
	if c.store.Len() == 0 {
		c.store.AppendDraft()
	}
	return err
}

// Reload replaces the rows with the backend listing. A reload requested
// while another is in flight is dropped.
func (c *Controller) Reload(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

// Create saves the draft with key on the backend.
func (c *Controller) Create(ctx context.Context, key string) error {
	row, err := c.row(key)
	if err != nil {
		return err
	}
	if !CanCreate(row) {
		return ErrNotAllowed
	}
	if err := c.begin(key, OpCreate); err != nil {
		return err
	}
	defer c.end(key)

	if err := c.create(ctx, row.Config); err != nil {
		c.notifier.Notify(MsgCreateFailed, LevelError)
		return err
	}

	c.reload(ctx)
	c.notifier.Notify(MsgCreated, LevelInfo)
	return nil
}

// Edit enters edit mode on a viewed row, or saves an edited row.
func (c *Controller) Edit(ctx context.Context, key string) error {
	row, err := c.row(key)
	if err != nil {
		return err
	}
	if !CanEdit(row) {
		return ErrNotAllowed
	}

	if !row.IsEditing {
		if c.Pending(key) != OpNone {
			return ErrBusy
		}
		if err := c.store.SetEditingByKey(key, true); err != nil {
			return err
		}
		c.notifier.Notify(MsgEditMode, LevelInfo)
		return nil
	}

	if err := c.begin(key, OpSave); err != nil {
		return err
	}
	defer c.end(key)

	logging.LogDebug("Saving sniffer %s (port %d -> %d)", row.Config.ID, row.SavedPort, row.Config.Port)
	if err := c.backend.Update(ctx, row.Config); err != nil {
		logging.LogError("Edit of %s failed: %v", key, err)
		c.notifier.Notify(MsgEditFailed, LevelError)
		return fmt.Errorf("edit %s: %w", key, err)
	}

	c.reload(ctx)
	c.notifier.Notify(MsgSaved, LevelInfo)
	return nil
}

// Start starts the persisted sniffer on port.
func (c *Controller) Start(ctx context.Context, port int) error {
	row, ok := c.store.GetByPort(port)
	if !ok {
		return fmt.Errorf("%w: port %d", config.ErrRowNotFound, port)
	}
	if !CanStart(row) {
		return ErrNotAllowed
	}
	if err := c.begin(row.Key, OpStart); err != nil {
		return err
	}
	defer c.end(row.Key)

	if err := c.backend.Start(ctx, port); err != nil {
		logging.LogError("Start of port %d failed: %v", port, err)
		c.notifier.Notify(MsgStartFailed, LevelError)
		return fmt.Errorf("start %d: %w", port, err)
	}

	c.reload(ctx)
	return nil
}

// Stop stops the running sniffer on port.
func (c *Controller) Stop(ctx context.Context, port int) error {
	row, ok := c.store.GetByPort(port)
	if !ok {
		return fmt.Errorf("%w: port %d", config.ErrRowNotFound, port)
	}
	if !CanStop(row) {
		return ErrNotAllowed
	}
	if err := c.begin(row.Key, OpStop); err != nil {
		return err
	}
	defer c.end(row.Key)

	if err := c.backend.Stop(ctx, port); err != nil {
		logging.LogError("Stop of port %d failed: %v", port, err)
		c.notifier.Notify(MsgStopFailed, LevelError)
		return fmt.Errorf("stop %d: %w", port, err)
	}

	c.reload(ctx)
	return nil
}

// Delete removes the row with key. Drafts are removed locally; persisted
// rows are removed only after the backend confirms the delete.
func (c *Controller) Delete(ctx context.Context, key string) error {
	row, err := c.row(key)
	if err != nil {
		return err
	}
	if !CanDelete(row) {
		return ErrNotAllowed
	}

	if row.IsNew {
		if c.Pending(key) != OpNone {
			return ErrBusy
		}
		return c.store.RemoveByKey(key)
	}

	if err := c.begin(key, OpDelete); err != nil {
		return err
	}
	defer c.end(key)

	// Config.Port may hold an unsaved edit.
	port := row.SavedPort
	if err := c.backend.Delete(ctx, port); err != nil {
		logging.LogError("Delete of port %d failed: %v", port, err)
		c.notifier.Notify(MsgRemoveFailed, LevelError)
		return fmt.Errorf("delete %d: %w", port, err)
	}

	// A reload may have already dropped the row.
	if err := c.store.RemoveByKey(key); err != nil && !errors.Is(err, config.ErrRowNotFound) {
		return err
	}
	c.notifier.Notify(MsgRemoved, LevelInfo)
	return nil
}

// Import replaces all rows with drafts parsed from raw. On a parse error
// the rows are left untouched.
func (c *Controller) Import(raw []byte) error {
	configs, err := config.ParseImport(raw)
	if err != nil {
		logging.LogError("Import failed: %v", err)
		c.notifier.Notify(MsgImportFailed, LevelError)
		return err
	}

	c.store.Replace(config.DraftsFromConfigs(configs))
	logging.LogInfo("Imported %d sniffer configs", len(configs))
	c.notifier.Notify(MsgImported, LevelInfo)
	return nil
}

// Export delivers the current configs to sink as config.json.
func (c *Controller) Export(sink config.FileSink) error {
	data, err := config.Export(c.store.GetAll())
	if err == nil {
		err = sink.Deliver(config.ExportFileName, data)
	}
	if err != nil {
		logging.LogError("Export failed: %v", err)
		c.notifier.Notify(MsgExportFailed, LevelError)
		return err
	}
	c.notifier.Notify(MsgExported, LevelInfo)
	return nil
}

// SaveDrafts creates every complete draft concurrently and reloads once.
// Drafts that were not created are kept after the reload.
func (c *Controller) SaveDrafts(ctx context.Context) (int, error) {
	var ready, kept []config.Row
	for _, row := range c.store.Drafts() {
		if CanCreate(row) && c.begin(row.Key, OpCreate) == nil {
			ready = append(ready, row)
		} else {
			kept = append(kept, row)
		}
	}
	if len(ready) == 0 {
		c.notifier.Notify(MsgNothingToSave, LevelInfo)
		return 0, nil
	}

	var (
		created  []config.Row
		failures []error
		mu       sync.Mutex
		g        errgroup.Group
	)
	g.SetLimit(saveDraftsLimit)
	for _, row := range ready {
		g.Go(func() error {
			defer c.end(row.Key)
			err := c.create(ctx, row.Config)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.notifier.Notify(fmt.Sprintf(MsgDraftSaveError, row.Config.Port), LevelError)
				failures = append(failures, err)
				kept = append(kept, row)
				return nil
			}
			created = append(created, row)
			return nil
		})
	}
	_ = g.Wait()

	if len(created) > 0 {
		replaced, _ := c.reload(ctx)
		if replaced {
			for _, row := range kept {
				c.store.Append(row)
			}
		} else {
			for _, row := range created {
				_ = c.store.RemoveByKey(row.Key)
			}
		}
		c.notifier.Notify(fmt.Sprintf(MsgDraftsCreated, len(created)), LevelInfo)
	}

	return len(created), errors.Join(failures...)
}

func (c *Controller) create(ctx context.Context, cfg config.SnifferConfig) error {
	cfg.ID = strconv.Itoa(cfg.Port)
	logging.LogDebug("Creating sniffer on port %d -> %s", cfg.Port, cfg.DownstreamURL)
	if err := c.backend.Create(ctx, cfg); err != nil {
		logging.LogError("Create on port %d failed: %v", cfg.Port, err)
		return fmt.Errorf("create %d: %w", cfg.Port, err)
	}
	return nil
}

// reload reports whether the rows were replaced. Failures are notified.
func (c *Controller) reload(ctx context.Context) (bool, error) {
	_, err := c.store.Load(ctx)
	if errors.Is(err, config.ErrLoadInFlight) {
		return false, nil
	}
	if err != nil {
		logging.LogError("Reload failed: %v", err)
		c.notifier.Notify(MsgLoadFailed, LevelError)
		return false, err
	}
	return true, nil
}

func (c *Controller) row(key string) (config.Row, error) {
	row, ok := c.store.GetByKey(key)
	if !ok {
		return config.Row{}, fmt.Errorf("%w: key %s", config.ErrRowNotFound, key)
	}
	return row, nil
}

func (c *Controller) begin(key string, op Op) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, busy := c.pending[key]; busy {
		return ErrBusy
	}
	c.pending[key] = op
	return nil
}

func (c *Controller) end(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.pending, key)
}
