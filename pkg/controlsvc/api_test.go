package controlsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlttj/sniffctl/pkg/config"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPILifecycle(t *testing.T) {
	h := NewServer("", newTestRegistry(t)).Handler()

	w := serve(t, h, http.MethodPost, "/sniffers", `{"port":8080,"downstreamUrl":"http://a.example"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created config.Sniffer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "8080", created.ID)

	w = serve(t, h, http.MethodPost, "/sniffers/8080/start", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, h, http.MethodGet, "/sniffers", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sniffers []config.Sniffer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sniffers))
	require.Len(t, sniffers, 1)
	assert.True(t, sniffers[0].IsStarted)

	w = serve(t, h, http.MethodDelete, "/sniffers/8080", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, h, http.MethodPost, "/sniffers/8080/stop", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, h, http.MethodPut, "/sniffers", `{"id":"8080","name":"api","port":8080,"downstreamUrl":"http://b.example"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, h, http.MethodDelete, "/sniffers/8080", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(t, h, http.MethodDelete, "/sniffers/8080", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIValidation(t *testing.T) {
	h := NewServer("", newTestRegistry(t)).Handler()

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"bad json", http.MethodPost, "/sniffers", `{`, http.StatusBadRequest},
		{"missing port", http.MethodPost, "/sniffers", `{"downstreamUrl":"http://a.example"}`, http.StatusBadRequest},
		{"port out of range", http.MethodPost, "/sniffers", `{"port":70000,"downstreamUrl":"http://a.example"}`, http.StatusBadRequest},
		{"relative url", http.MethodPost, "/sniffers", `{"port":8080,"downstreamUrl":"a.example"}`, http.StatusBadRequest},
		{"update without id", http.MethodPut, "/sniffers", `{"port":8080,"downstreamUrl":"http://a.example"}`, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/sniffers", `{"id":"x","port":8080,"downstreamUrl":"http://a.example"}`, http.StatusNotFound},
		{"bad port param", http.MethodPost, "/sniffers/abc/start", "", http.StatusBadRequest},
		{"stop unknown", http.MethodPost, "/sniffers/8080/stop", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAPIDuplicatePort(t *testing.T) {
	h := NewServer("", newTestRegistry(t)).Handler()
	body := `{"port":8080,"downstreamUrl":"http://a.example"}`

	assert.Equal(t, http.StatusCreated, serve(t, h, http.MethodPost, "/sniffers", body).Code)
	assert.Equal(t, http.StatusConflict, serve(t, h, http.MethodPost, "/sniffers", body).Code)
}

func TestAPIMetrics(t *testing.T) {
	h := NewServer("", newTestRegistry(t)).Handler()
	serve(t, h, http.MethodPost, "/sniffers", `{"port":8080,"downstreamUrl":"http://a.example"}`)
	serve(t, h, http.MethodPost, "/sniffers/8080/start", "")

	w := serve(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sniffctl_controlsvc_requests_total{op="create",result="ok"} 1`)
	assert.Contains(t, w.Body.String(), "sniffctl_controlsvc_sniffers_running 1")
}

func TestAPIMetricsSeededFromRegistry(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()
	_, err := registry.Create(ctx, config.SnifferConfig{Port: 8080, DownstreamURL: "http://a.example"})
	require.NoError(t, err)
	require.NoError(t, registry.SetStarted(ctx, 8080, true))

	h := NewServer("", registry).Handler()
	w := serve(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sniffctl_controlsvc_sniffers_running 1")
}

func TestAPIRecreateAfterPortMove(t *testing.T) {
	h := NewServer("", newTestRegistry(t)).Handler()

	w := serve(t, h, http.MethodPost, "/sniffers", `{"id":"8080","port":8080,"downstreamUrl":"http://a.example"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = serve(t, h, http.MethodPut, "/sniffers", `{"id":"8080","port":9090,"downstreamUrl":"http://a.example"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = serve(t, h, http.MethodPost, "/sniffers", `{"id":"8080","port":8080,"downstreamUrl":"http://b.example"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
