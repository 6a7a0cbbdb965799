package sniffer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/controlsvc"
)

func newServiceClient(t *testing.T) *Client {
	t.Helper()
	registry, err := controlsvc.OpenRegistry(controlsvc.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	srv := httptest.NewServer(controlsvc.NewServer("", registry).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func TestClientLifecycle(t *testing.T) {
	client := newServiceClient(t)
	ctx := context.Background()

	sniffers, err := client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sniffers)

	cfg := config.SnifferConfig{ID: "8080", Name: "api", Port: 8080, DownstreamURL: "http://a.example"}
	require.NoError(t, client.Create(ctx, cfg))

	sniffers, err = client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []config.Sniffer{{SnifferConfig: cfg}}, sniffers)

	require.NoError(t, client.Start(ctx, 8080))
	sniffers, err = client.List(ctx)
	require.NoError(t, err)
	require.Len(t, sniffers, 1)
	assert.True(t, sniffers[0].IsStarted)

	var apiErr *APIError
	require.ErrorAs(t, client.Start(ctx, 8080), &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	require.ErrorAs(t, client.Delete(ctx, 8080), &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	require.NoError(t, client.Stop(ctx, 8080))

	cfg.Name = "renamed"
	require.NoError(t, client.Update(ctx, cfg))
	sniffers, err = client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []config.Sniffer{{SnifferConfig: cfg}}, sniffers)

	require.NoError(t, client.Delete(ctx, 8080))
	require.ErrorAs(t, client.Delete(ctx, 8080), &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "sniffer not found")
}

func TestClientRejectsDuplicatePort(t *testing.T) {
	client := newServiceClient(t)
	ctx := context.Background()
	cfg := config.SnifferConfig{Port: 8080, DownstreamURL: "http://a.example"}

	require.NoError(t, client.Create(ctx, cfg))
	var apiErr *APIError
	require.ErrorAs(t, client.Create(ctx, cfg), &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "create", apiErr.Op)
}

func TestClientUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.List(context.Background())
	assert.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestControllerAgainstService(t *testing.T) {
	client := newServiceClient(t)
	c, rec := newTestController(client)
	ctx := context.Background()

	require.NoError(t, c.Init(ctx))
	draft, _ := c.Store().Get(0)
	fillDraft(t, c.Store(), draft.Key, "8080", "http://example.com")
	require.NoError(t, c.Create(ctx, draft.Key))

	require.NoError(t, c.Start(ctx, 8080))
	row, ok := c.Store().GetByPort(8080)
	require.True(t, ok)
	assert.True(t, row.IsStarted)
	assert.Equal(t, "8080", row.Config.ID)

	require.NoError(t, c.Stop(ctx, 8080))
	require.NoError(t, c.Delete(ctx, row.Key))
	assert.Zero(t, c.Store().Len())

	require.NoError(t, c.Reload(ctx))
	assert.Zero(t, c.Store().Len())
	assert.Empty(t, rec.texts(LevelError))
}
