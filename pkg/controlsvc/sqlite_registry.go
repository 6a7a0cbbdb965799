package controlsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"

	_ "modernc.org/sqlite"
)

// Sentinel errors for registry operations.
var (
	ErrSnifferNotFound = errors.New("sniffer not found")
	ErrPortTaken       = errors.New("port already registered")
	ErrIDTaken         = errors.New("id already registered")
	ErrAlreadyStarted  = errors.New("sniffer already started")
	ErrNotStarted      = errors.New("sniffer not started")
	ErrSnifferRunning  = errors.New("sniffer is running")
)

// MemoryPath opens a private in-memory registry.
const MemoryPath = ":memory:"

// Registry records sniffer configurations and their running status in SQLite.
type Registry struct {
	db     *sql.DB
	mutex  sync.Mutex
	dbPath string
}

// DefaultRegistryPath returns ~/.sniffctl/sniffers.db.
func DefaultRegistryPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".sniffctl", "sniffers.db"), nil
}

// OpenRegistry opens (creating if needed) the registry at dbPath.
func OpenRegistry(dbPath string) (*Registry, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Registry{db: db, dbPath: dbPath}
	if err := r.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.LogDebug("Sniffer registry initialized at: %s", dbPath)
	return r, nil
}

func (r *Registry) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sniffers (
		port INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		downstream_url TEXT NOT NULL,
		started INTEGER NOT NULL DEFAULT 0
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_sniffers_id ON sniffers(id);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Registry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// List returns all sniffers ordered by port.
func (r *Registry) List(ctx context.Context) ([]config.Sniffer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, port, downstream_url, started FROM sniffers ORDER BY port`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sniffers: %w", err)
	}
	defer rows.Close()

	sniffers := []config.Sniffer{}
	for rows.Next() {
		var s config.Sniffer
		if err := rows.Scan(&s.ID, &s.Name, &s.Port, &s.DownstreamURL, &s.IsStarted); err != nil {
			return nil, fmt.Errorf("failed to scan sniffer row: %w", err)
		}
		sniffers = append(sniffers, s)
	}
	return sniffers, rows.Err()
}

// Get returns the sniffer registered on port.
func (r *Registry) Get(ctx context.Context, port int) (config.Sniffer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.getUnsafe(ctx, port)
}

// Create registers a new stopped sniffer.
func (r *Registry) Create(ctx context.Context, cfg config.SnifferConfig) (config.Sniffer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if cfg.ID == "" {
		cfg.ID = portID(cfg.Port)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sniffers (id, name, port, downstream_url, started) VALUES (?, ?, ?, ?, 0)`,
		cfg.ID, cfg.Name, cfg.Port, cfg.DownstreamURL)
	if err != nil {
		if cerr := constraintErr(err, cfg); cerr != nil {
			return config.Sniffer{}, cerr
		}
		return config.Sniffer{}, fmt.Errorf("failed to add sniffer: %w", err)
	}

	logging.LogDebug("Registered sniffer %s on port %d", cfg.ID, cfg.Port)
	return config.Sniffer{SnifferConfig: cfg}, nil
}

// Update replaces the configuration of the sniffer identified by cfg.ID.
// The port may change as long as the new one is free. An id derived from
// the old port follows the sniffer to its new port, leaving the old port's
// id free for a later create.
func (r *Registry) Update(ctx context.Context, cfg config.SnifferConfig) (config.Sniffer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var (
		oldPort int
		started bool
	)
	err := r.db.QueryRowContext(ctx, `SELECT port, started FROM sniffers WHERE id = ?`, cfg.ID).Scan(&oldPort, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Sniffer{}, fmt.Errorf("%w: id %s", ErrSnifferNotFound, cfg.ID)
	} else if err != nil {
		return config.Sniffer{}, fmt.Errorf("failed to query sniffer: %w", err)
	}
	if started {
		return config.Sniffer{}, fmt.Errorf("%w: id %s", ErrSnifferRunning, cfg.ID)
	}

	oldID := cfg.ID
	if cfg.Port != oldPort && cfg.ID == portID(oldPort) {
		cfg.ID = portID(cfg.Port)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE sniffers SET id = ?, name = ?, port = ?, downstream_url = ? WHERE id = ?`,
		cfg.ID, cfg.Name, cfg.Port, cfg.DownstreamURL, oldID)
	if err != nil {
		if cerr := constraintErr(err, cfg); cerr != nil {
			return config.Sniffer{}, cerr
		}
		return config.Sniffer{}, fmt.Errorf("failed to update sniffer: %w", err)
	}

	logging.LogDebug("Updated sniffer %s (port %d -> %d)", cfg.ID, oldPort, cfg.Port)
	return config.Sniffer{SnifferConfig: cfg}, nil
}

// Delete removes the stopped sniffer on port.
func (r *Registry) Delete(ctx context.Context, port int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, err := r.getUnsafe(ctx, port)
	if err != nil {
		return err
	}
	if s.IsStarted {
		return fmt.Errorf("%w: port %d", ErrSnifferRunning, port)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM sniffers WHERE port = ?`, port); err != nil {
		return fmt.Errorf("failed to delete sniffer: %w", err)
	}

	logging.LogDebug("Deleted sniffer on port %d", port)
	return nil
}

// SetStarted records the running status of the sniffer on port.
func (r *Registry) SetStarted(ctx context.Context, port int, started bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, err := r.getUnsafe(ctx, port)
	if err != nil {
		return err
	}
	if started && s.IsStarted {
		return fmt.Errorf("%w: port %d", ErrAlreadyStarted, port)
	}
	if !started && !s.IsStarted {
		return fmt.Errorf("%w: port %d", ErrNotStarted, port)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE sniffers SET started = ? WHERE port = ?`, started, port); err != nil {
		return fmt.Errorf("failed to update sniffer status: %w", err)
	}

	logging.LogDebug("Sniffer on port %d started=%t", port, started)
	return nil
}

// CountRunning returns the number of started sniffers.
func (r *Registry) CountRunning(ctx context.Context) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sniffers WHERE started = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count running sniffers: %w", err)
	}
	return count, nil
}

// Helper methods (must be called with mutex already held)

func (r *Registry) getUnsafe(ctx context.Context, port int) (config.Sniffer, error) {
	var s config.Sniffer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, port, downstream_url, started FROM sniffers WHERE port = ?`, port).
		Scan(&s.ID, &s.Name, &s.Port, &s.DownstreamURL, &s.IsStarted)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Sniffer{}, fmt.Errorf("%w: port %d", ErrSnifferNotFound, port)
	} else if err != nil {
		return config.Sniffer{}, fmt.Errorf("failed to query sniffer: %w", err)
	}
	return s, nil
}

func portID(port int) string {
	return strconv.Itoa(port)
}

// constraintErr maps a uniqueness violation to the column that clashed.
func constraintErr(err error, cfg config.SnifferConfig) error {
	msg := err.Error()
	switch {
	case !strings.Contains(msg, "constraint failed"):
		return nil
	case strings.Contains(msg, "sniffers.id"):
		return fmt.Errorf("%w: %s", ErrIDTaken, cfg.ID)
	default:
		return fmt.Errorf("%w: %d", ErrPortTaken, cfg.Port)
	}
}
