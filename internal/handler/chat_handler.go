package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/service"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
	"github.com/studysync/studysync-api/pkg/response"
)

// ChatHandler exposes group chat endpoints.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Post godoc
// @Summary Post group message
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.PostMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups/{id}/messages [post]
func (h *ChatHandler) Post(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	msg, err := h.service.Post(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// History godoc
// @Summary Group message history
// @Tags Chat
// @Produce json
// @Param id path string true "Group ID"
// @Param limit query int false "Max messages"
// @Param before query string false "Cursor message ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups/{id}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ChatHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	messages, err := h.service.History(c.Request.Context(), c.Param("id"), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}
