package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/service"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
	"github.com/studysync/studysync-api/pkg/response"
)

// AvailabilityHandler exposes the meeting-window resolver.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler creates a new handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// OptimalTimes godoc
// @Summary Find optimal meeting windows
// @Description Rank meeting windows across the group's submitted schedules.
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.OptimalTimesRequest true "Search parameters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups/{id}/optimal-times [post]
func (h *AvailabilityHandler) OptimalTimes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.OptimalTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}

	resp, err := h.service.OptimalTimes(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
