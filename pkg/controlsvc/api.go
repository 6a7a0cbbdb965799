package controlsvc

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error string `json:"error"`
}

func Register(r *gin.Engine, registry *Registry, metrics *Metrics, reg *prometheus.Registry) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	root := r.Group("/sniffers")
	root.GET("", snifferList(registry, metrics))
	root.POST("", snifferCreate(registry, metrics))
	root.PUT("", snifferUpdate(registry, metrics))
	root.DELETE("/:port", snifferDelete(registry, metrics))
	root.POST("/:port/start", snifferSetStarted(registry, metrics, true))
	root.POST("/:port/stop", snifferSetStarted(registry, metrics, false))
}

func snifferList(registry *Registry, metrics *Metrics) func(*gin.Context) {
	return func(c *gin.Context) {
		sniffers, err := registry.List(c)
		if err != nil {
			fail(c, metrics, "list", err)
			return
		}
		metrics.RequestsTotal.WithLabelValues("list", "ok").Inc()
		c.JSON(http.StatusOK, sniffers)
	}
}

func snifferCreate(registry *Registry, metrics *Metrics) func(*gin.Context) {
	return func(c *gin.Context) {
		in, ok := bindConfig(c, metrics, "create")
		if !ok {
			return
		}

		created, err := registry.Create(c, in)
		if err != nil {
			fail(c, metrics, "create", err)
			return
		}
		metrics.RequestsTotal.WithLabelValues("create", "ok").Inc()
		c.JSON(http.StatusCreated, created)
	}
}

func snifferUpdate(registry *Registry, metrics *Metrics) func(*gin.Context) {
	return func(c *gin.Context) {
		in, ok := bindConfig(c, metrics, "update")
		if !ok {
			return
		}
		if in.ID == "" {
			badRequest(c, metrics, "update", "id is required")
			return
		}

		updated, err := registry.Update(c, in)
		if err != nil {
			fail(c, metrics, "update", err)
			return
		}
		metrics.RequestsTotal.WithLabelValues("update", "ok").Inc()
		c.JSON(http.StatusOK, updated)
	}
}

func snifferDelete(registry *Registry, metrics *Metrics) func(*gin.Context) {
	return func(c *gin.Context) {
		port, ok := portParam(c, metrics, "delete")
		if !ok {
			return
		}
		if err := registry.Delete(c, port); err != nil {
			fail(c, metrics, "delete", err)
			return
		}
		metrics.RequestsTotal.WithLabelValues("delete", "ok").Inc()
		c.Status(http.StatusNoContent)
	}
}

func snifferSetStarted(registry *Registry, metrics *Metrics, started bool) func(*gin.Context) {
	op := "stop"
	if started {
		op = "start"
	}

	return func(c *gin.Context) {
		port, ok := portParam(c, metrics, op)
		if !ok {
			return
		}
		if err := registry.SetStarted(c, port, started); err != nil {
			fail(c, metrics, op, err)
			return
		}
		if running, err := registry.CountRunning(c); err == nil {
			metrics.SniffersRunning.Set(float64(running))
		}
		metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
		c.Status(http.StatusNoContent)
	}
}

func bindConfig(c *gin.Context, metrics *Metrics, op string) (config.SnifferConfig, bool) {
	var in config.SnifferConfig
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, metrics, op, "invalid JSON: "+err.Error())
		return in, false
	}
	if in.Port <= 0 || in.Port > 65535 {
		badRequest(c, metrics, op, "port must be between 1 and 65535")
		return in, false
	}
	if !strings.HasPrefix(in.DownstreamURL, "http://") && !strings.HasPrefix(in.DownstreamURL, "https://") {
		badRequest(c, metrics, op, "downstreamUrl must be an absolute http(s) URL")
		return in, false
	}
	return in, true
}

func portParam(c *gin.Context, metrics *Metrics, op string) (int, bool) {
	port, err := strconv.Atoi(c.Param("port"))
	if err != nil || port <= 0 {
		badRequest(c, metrics, op, "invalid port")
		return 0, false
	}
	return port, true
}

func badRequest(c *gin.Context, metrics *Metrics, op, msg string) {
	metrics.RequestsTotal.WithLabelValues(op, "bad_request").Inc()
	c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Error: msg})
}

func fail(c *gin.Context, metrics *Metrics, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSnifferNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrPortTaken),
		errors.Is(err, ErrIDTaken),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrNotStarted),
		errors.Is(err, ErrSnifferRunning):
		status = http.StatusConflict
	default:
		logging.LogError("%s failed: %v", op, err)
	}
	metrics.RequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	c.AbortWithStatusJSON(status, APIError{Error: err.Error()})
}
