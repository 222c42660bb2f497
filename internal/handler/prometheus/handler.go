package prometheus

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/alert-engine/pkg/metrics"
)

type Handler struct {
	registry *prometheus.Registry
}

// New builds a registry holding the alert-engine collectors.
func New(m *metrics.Metrics) *Handler {
	registry := prometheus.NewRegistry()
	m.Register(registry)
	return &Handler{registry: registry}
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
}
