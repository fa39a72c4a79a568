package handlers

import (
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var socialGraphService = services.NewSocialGraphService()

func FollowUser(c *gin.Context) {
	targetID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := socialGraphService.Follow(c.Request.Context(), currentUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func UnfollowUser(c *gin.Context) {
	targetID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := socialGraphService.Unfollow(c.Request.Context(), currentUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func BlockUser(c *gin.Context) {
	targetID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := socialGraphService.Block(c.Request.Context(), currentUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func UnblockUser(c *gin.Context) {
	targetID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := socialGraphService.Unblock(c.Request.Context(), currentUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func GetUser(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := authService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user.Summary())
}
