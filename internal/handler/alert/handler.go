package alert

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/alert-engine/internal/handler"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/service/engagement"
	"github.com/jwalitptl/alert-engine/internal/trigger"
)

type Handler struct {
	svc *engagement.Service
}

func NewHandler(svc *engagement.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.POST("/utilization", h.SubmitUtilization)
		alerts.POST("/payment", h.SubmitPayment)
		alerts.POST("/generic", h.SubmitGeneric)
		alerts.GET("/current", h.Current)
		alerts.POST("/current/dismiss", h.Dismiss)
		alerts.POST("/clear", h.ClearAll)
	}

	interactions := r.Group("/interactions")
	{
		interactions.POST("/:id/opened", h.RecordOpened)
		interactions.POST("/:id/dismissed", h.RecordDismissed)
		interactions.POST("/:id/action", h.RecordAction)
		interactions.POST("/:id/deep-link", h.RecordDeepLink)
	}
}

type utilizationRequest struct {
	CardRef            string   `json:"card_ref" binding:"required"`
	UtilizationPercent *float64 `json:"utilization_percent" binding:"required"`
	TargetPercent      float64  `json:"target_percent"`
	CurrentBalance     float64  `json:"current_balance"`
	CreditLimit        float64  `json:"credit_limit"`
}

type submitResponse struct {
	Alert  *model.Alert `json:"alert"`
	Status string       `json:"status"`
}

func (h *Handler) SubmitUtilization(c *gin.Context) {
	var req utilizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	alert, status := h.svc.SubmitUtilization(c.Request.Context(), trigger.UtilizationInput{
		CardRef:   req.CardRef,
		Percent:   *req.UtilizationPercent,
		TargetPct: req.TargetPercent,
		Balance:   req.CurrentBalance,
		Limit:     req.CreditLimit,
	})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(submitResponse{Alert: alert, Status: string(status)}))
}

type paymentRequest struct {
	CardRef        string  `json:"card_ref" binding:"required"`
	DaysUntilDue   *int    `json:"days_until_due" binding:"required"`
	MinimumPayment float64 `json:"minimum_payment"`
}

func (h *Handler) SubmitPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	alert, status := h.svc.SubmitPayment(c.Request.Context(), trigger.PaymentInput{
		CardRef:        req.CardRef,
		DaysUntilDue:   *req.DaysUntilDue,
		MinimumPayment: req.MinimumPayment,
	})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(submitResponse{Alert: alert, Status: string(status)}))
}

type genericRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Priority string `json:"priority" binding:"required,oneof=low medium high critical"`
	Title    string `json:"title" binding:"required"`
	Message  string `json:"message"`
}

func (h *Handler) SubmitGeneric(c *gin.Context) {
	var req genericRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	alert, status, err := h.svc.SubmitGeneric(c.Request.Context(), model.AlertKind(req.Kind), priority, req.Title, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(submitResponse{Alert: alert, Status: string(status)}))
}

func (h *Handler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"alert": h.svc.Current()}))
}

func (h *Handler) Dismiss(c *gin.Context) {
	if !h.svc.Dismiss() {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("no alert is currently presented"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ClearAll(c *gin.Context) {
	h.svc.ClearAll()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RecordOpened(c *gin.Context) {
	rec := h.svc.RecordOpened(c.Param("id"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

type dismissedRequest struct {
	Source string `json:"source"`
}

func (h *Handler) RecordDismissed(c *gin.Context) {
	var req dismissedRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if req.Source == "" {
		req.Source = "system"
	}
	rec := h.svc.RecordDismissed(c.Param("id"), req.Source)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) RecordAction(c *gin.Context) {
	rec := h.svc.RecordActionClicked(c.Param("id"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

type deepLinkRequest struct {
	TargetScreenID string `json:"target_screen_id" binding:"required"`
}

func (h *Handler) RecordDeepLink(c *gin.Context) {
	var req deepLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	rec := h.svc.RecordDeepLinkFollow(c.Param("id"), req.TargetScreenID)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}
