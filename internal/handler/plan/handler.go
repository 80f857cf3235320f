package plan

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/handler"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/plan"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/scheduler"
)

type Handler struct {
	service   *plan.Service
	scheduler *scheduler.Service
}

func NewHandler(service *plan.Service, schedulerSvc *scheduler.Service) *Handler {
	return &Handler{service: service, scheduler: schedulerSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.POST("", h.CreatePlan)
		plans.GET("/:id", h.GetPlan)
		plans.GET("/:id/sessions", h.ListSessions)
		plans.POST("/:id/sessions/recurring", h.GenerateRecurring)
		plans.POST("/:id/sessions/pending", h.GeneratePending)
		plans.POST("/:id/finalize", h.FinalizePlan)
		plans.POST("/:id/state", h.ChangeState)
		plans.DELETE("/:id", h.DeletePlan)
	}
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var req model.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	p, err := h.service.GetPlan(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ListSessions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sessions))
}

// GenerateRecurring creates appointment+session pairs from a weekly
// pattern until the plan's remaining session count is satisfied.
func (h *Handler) GenerateRecurring(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	var req model.GenerateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.scheduler.GenerateRecurring(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) GeneratePending(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	var req model.GeneratePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sessions, err := h.scheduler.GeneratePending(c.Request.Context(), id, req.Count)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sessions))
}

func (h *Handler) FinalizePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	var req model.FinalizePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Finalize(c.Request.Context(), id, req.ClosingNotes)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ChangeState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	var req model.ChangePlanStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.ChangeState(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// DeletePlan removes a plan and cascades to its sessions and their
// appointments. Plans with completed sessions are refused unless
// force=true.
func (h *Handler) DeletePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid plan ID"))
		return
	}

	force := c.Query("force") == "true"

	result, err := h.service.Delete(c.Request.Context(), id, force)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
