package sniffer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xlttj/sniffctl/pkg/config"
)

var errBackendDown = errors.New("backend down")

// fakeBackend is an in-memory control service that records every call.
type fakeBackend struct {
	mu       sync.Mutex
	sniffers map[int]config.Sniffer
	calls    []string
	fail     map[string]error

	// startHook runs before Start takes the lock; it may block.
	startHook func(port int)
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend(sniffers ...config.Sniffer) *fakeBackend {
	b := &fakeBackend{sniffers: make(map[int]config.Sniffer), fail: make(map[string]error)}
	for _, s := range sniffers {
		b.sniffers[s.Port] = s
	}
	return b
}

func persisted(port int, url string, started bool) config.Sniffer {
	return config.Sniffer{
		SnifferConfig: config.SnifferConfig{ID: fmt.Sprint(port), Port: port, DownstreamURL: url},
		IsStarted:     started,
	}
}

func (b *fakeBackend) failOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[op] = err
}

func (b *fakeBackend) record(call string) error {
	b.calls = append(b.calls, call)
	op, _, _ := strings.Cut(call, " ")
	return b.fail[op]
}

// count returns how many recorded calls start with prefix.
func (b *fakeBackend) count(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, call := range b.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) has(port int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sniffers[port]
	return ok
}

// mutations returns every recorded call except list.
func (b *fakeBackend) mutations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, call := range b.calls {
		if call != "list" {
			out = append(out, call)
		}
	}
	return out
}

func (b *fakeBackend) List(ctx context.Context) ([]config.Sniffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("list"); err != nil {
		return nil, err
	}
	out := make([]config.Sniffer, 0, len(b.sniffers))
	for _, s := range b.sniffers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out, nil
}

func (b *fakeBackend) Create(ctx context.Context, cfg config.SnifferConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(fmt.Sprintf("create %d", cfg.Port)); err != nil {
		return err
	}
	if _, exists := b.sniffers[cfg.Port]; exists {
		return &APIError{Op: "create", Status: http.StatusConflict}
	}
	b.sniffers[cfg.Port] = config.Sniffer{SnifferConfig: cfg}
	return nil
}

func (b *fakeBackend) Update(ctx context.Context, cfg config.SnifferConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(fmt.Sprintf("update %s", cfg.ID)); err != nil {
		return err
	}
	for port, s := range b.sniffers {
		if s.ID != cfg.ID {
			continue
		}
		if s.IsStarted {
			return &APIError{Op: "update", Status: http.StatusConflict}
		}
		if _, taken := b.sniffers[cfg.Port]; taken && cfg.Port != port {
			return &APIError{Op: "update", Status: http.StatusConflict}
		}
		// ids derived from the port follow a port change
		if cfg.Port != port && cfg.ID == fmt.Sprint(port) {
			cfg.ID = fmt.Sprint(cfg.Port)
		}
		delete(b.sniffers, port)
		b.sniffers[cfg.Port] = config.Sniffer{SnifferConfig: cfg}
		return nil
	}
	return &APIError{Op: "update", Status: http.StatusNotFound}
}

func (b *fakeBackend) Delete(ctx context.Context, port int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(fmt.Sprintf("delete %d", port)); err != nil {
		return err
	}
	s, ok := b.sniffers[port]
	if !ok {
		return &APIError{Op: "delete", Status: http.StatusNotFound}
	}
	if s.IsStarted {
		return &APIError{Op: "delete", Status: http.StatusConflict}
	}
	delete(b.sniffers, port)
	return nil
}

func (b *fakeBackend) Start(ctx context.Context, port int) error {
	if b.startHook != nil {
		b.startHook(port)
	}
	return b.setStarted(fmt.Sprintf("start %d", port), port, true)
}

func (b *fakeBackend) Stop(ctx context.Context, port int) error {
	return b.setStarted(fmt.Sprintf("stop %d", port), port, false)
}

func (b *fakeBackend) setStarted(call string, port int, started bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(call); err != nil {
		return err
	}
	s, ok := b.sniffers[port]
	if !ok {
		return &APIError{Op: call, Status: http.StatusNotFound}
	}
	if s.IsStarted == started {
		return &APIError{Op: call, Status: http.StatusConflict}
	}
	s.IsStarted = started
	b.sniffers[port] = s
	return nil
}

type note struct {
	text  string
	level Level
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Notify(message string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{text: message, level: level})
}

func (r *recorder) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

func (r *recorder) texts(level Level) []string {
	var out []string
	for _, n := range r.all() {
		if n.level == level {
			out = append(out, n.text)
		}
	}
	return out
}

func newTestController(b Backend) (*Controller, *recorder) {
	rec := &recorder{}
	return NewController(config.NewRowStore(b), b, rec), rec
}

// assertRowInvariants checks the lifecycle invariants every row must hold.
func assertRowInvariants(t *testing.T, rows []config.Row) {
	t.Helper()
	ports := make(map[int]bool)
	keys := make(map[string]bool)
	for _, row := range rows {
		assert.False(t, keys[row.Key], "duplicate key %s", row.Key)
		keys[row.Key] = true
		if row.IsNew {
			assert.False(t, row.IsStarted, "draft %s is started", row.Key)
			continue
		}
		assert.False(t, row.IsStarted && row.IsEditing, "row %s is started and editing", row.Key)
		assert.False(t, ports[row.Config.Port], "duplicate persisted port %d", row.Config.Port)
		ports[row.Config.Port] = true
	}
}

// memSink keeps delivered documents in memory.
type memSink struct {
	files map[string][]byte
	err   error
}

func (s *memSink) Deliver(name string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = data
	return nil
}
