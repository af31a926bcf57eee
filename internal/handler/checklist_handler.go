package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/service"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
	"github.com/studysync/studysync-api/pkg/response"
)

// ChecklistHandler exposes study checklist endpoints.
type ChecklistHandler struct {
	service *service.ChecklistService
}

// NewChecklistHandler creates a new handler.
func NewChecklistHandler(svc *service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{service: svc}
}

// Create godoc
// @Summary Create checklist
// @Tags Checklists
// @Accept json
// @Produce json
// @Param payload body dto.CreateChecklistRequest true "Checklist payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /checklists [post]
func (h *ChecklistHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checklist payload"))
		return
	}

	list, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, list)
}

// List godoc
// @Summary List own checklists
// @Tags Checklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /checklists [get]
func (h *ChecklistHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	lists, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lists, nil)
}

// Delete godoc
// @Summary Delete checklist
// @Tags Checklists
// @Param id path string true "Checklist ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /checklists/{id} [delete]
func (h *ChecklistHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddItem godoc
// @Summary Add checklist item
// @Tags Checklists
// @Accept json
// @Produce json
// @Param id path string true "Checklist ID"
// @Param payload body dto.AddChecklistItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /checklists/{id}/items [post]
func (h *ChecklistHandler) AddItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AddChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Items godoc
// @Summary List checklist items
// @Tags Checklists
// @Produce json
// @Param id path string true "Checklist ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /checklists/{id}/items [get]
func (h *ChecklistHandler) Items(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.Items(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ToggleItem godoc
// @Summary Toggle checklist item
// @Tags Checklists
// @Accept json
// @Param id path string true "Checklist ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.ToggleChecklistItemRequest true "Done state"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /checklists/{id}/items/{itemId} [patch]
func (h *ChecklistHandler) ToggleItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ToggleChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ToggleItem(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("itemId"), req.Done); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteItem godoc
// @Summary Delete checklist item
// @Tags Checklists
// @Param id path string true "Checklist ID"
// @Param itemId path string true "Item ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /checklists/{id}/items/{itemId} [delete]
func (h *ChecklistHandler) DeleteItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
