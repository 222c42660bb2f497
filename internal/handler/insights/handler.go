package insights

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/alert-engine/internal/handler"
	"github.com/jwalitptl/alert-engine/internal/middleware"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/service/engagement"
)

// Handler serves the engagement insights screen and diagnostics.
type Handler struct {
	svc  *engagement.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *engagement.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/metrics/engagement", h.GetMetrics)

	// Diagnostics carry the full interaction log; token required.
	diag := r.Group("", h.auth.RequireToken())
	{
		diag.GET("/interactions/export", h.ExportInteractions)
		diag.POST("/diagnostics/self-test", h.SelfTest)
	}
}

func (h *Handler) GetMetrics(c *gin.Context) {
	r, err := model.ParseTimeRange(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.svc.Metrics(r)))
}

func (h *Handler) ExportInteractions(c *gin.Context) {
	r, err := model.ParseTimeRange(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	payload, err := h.svc.ExportInteractions(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (h *Handler) SelfTest(c *gin.Context) {
	status, counters := h.svc.SelfTest(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"status":   string(status),
		"counters": counters,
	}))
}
