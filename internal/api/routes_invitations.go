package api

import "github.com/gin-gonic/gin"

func registerInvitationRoutes(group *gin.RouterGroup, h Handlers) {
	invitationGroup := group.Group("/invitations")
	invitationGroup.POST("", h.Invitations.Create)
	invitationGroup.GET("", h.Invitations.ListMine)
	invitationGroup.POST("/:id/accept", h.Invitations.Accept)
	invitationGroup.POST("/:id/reject", h.Invitations.Reject)
	invitationGroup.DELETE("/:id", h.Invitations.Revoke)
}
