package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/alert-engine/internal/handler"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/service/engagement"
)

type Handler struct {
	svc *engagement.Service
}

func NewHandler(svc *engagement.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/settings")
	{
		group.GET("/quiet-hours", h.GetQuietHours)
		group.PATCH("/quiet-hours", h.UpdateQuietHours)
		group.GET("/quiet-hours/next-transition", h.NextTransition)
	}
}

func (h *Handler) GetQuietHours(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.svc.QuietHours()))
}

type quietHoursRequest struct {
	Enabled               *bool `json:"enabled"`
	StartHour             *int  `json:"start_hour" binding:"omitempty,min=0,max=23"`
	EndHour               *int  `json:"end_hour" binding:"omitempty,min=0,max=23"`
	AllowCriticalOverride *bool `json:"allow_critical_override"`
	AllowHighOverride     *bool `json:"allow_high_override"`
}

func (h *Handler) UpdateQuietHours(c *gin.Context) {
	var req quietHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated := h.svc.UpdateQuietHours(c.Request.Context(), model.QuietHoursPatch{
		Enabled:               req.Enabled,
		StartHour:             req.StartHour,
		EndHour:               req.EndHour,
		AllowCriticalOverride: req.AllowCriticalOverride,
		AllowHighOverride:     req.AllowHighOverride,
	})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) NextTransition(c *gin.Context) {
	transition, ok := h.svc.NextQuietTransition()
	if !ok {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"transition": nil}))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"transition": transition}))
}
