package availability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/handler"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/availability"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/availability", h.CheckAvailability)
}

// CheckAvailability reports whether [start, end) is free for a
// practitioner, and the conflicting appointments when it is not. An
// optional exclude_id leaves one appointment out of the check, for
// reschedule flows.
func (h *Handler) CheckAvailability(c *gin.Context) {
	practitionerID, err := uuid.Parse(c.Query("practitioner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practitioner ID"))
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("end must be RFC3339"))
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid exclude ID"))
			return
		}
		excludeID = &id
	}

	available, conflicts, err := h.service.CheckAvailability(c.Request.Context(), practitionerID, start, end, excludeID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"available": available,
		"conflicts": model.NewConflictInfos(conflicts),
	}))
}
