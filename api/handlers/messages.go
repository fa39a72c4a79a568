package handlers

import (
	"chirp/errs"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var messageService = services.NewMessageService()

func SendMessage(c *gin.Context) {
	toID, err := paramID(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("message text is required"))
		return
	}

	msg, err := messageService.Send(c.Request.Context(), currentUserID(c), toID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, msg)
}

func ListConversation(c *gin.Context) {
	peerID, err := paramID(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := pageParams(c)

	list, err := messageService.ListConversation(c.Request.Context(), currentUserID(c), peerID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, list.Messages, len(list.Messages), list.HasMore)
}
