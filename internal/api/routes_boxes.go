package api

import "github.com/gin-gonic/gin"

func registerBoxRoutes(group *gin.RouterGroup, h Handlers) {
	group.GET("/auth/me", h.Auth.Me)

	profileGroup := group.Group("/profile")
	profileGroup.GET("", h.Profiles.Get)
	profileGroup.PATCH("", h.Profiles.Update)

	boxGroup := group.Group("/boxes")
	boxGroup.POST("", h.Boxes.Create)
	boxGroup.GET("", h.Boxes.List)
	boxGroup.GET("/:id", h.Boxes.Get)
	boxGroup.PATCH("/:id", h.Boxes.Update)
	boxGroup.DELETE("/:id", h.Boxes.Deactivate)

	boxGroup.GET("/:id/members", h.Memberships.ListForBox)
	boxGroup.GET("/:id/disciplines", h.Disciplines.List)
	boxGroup.GET("/:id/schedules", h.Schedules.ListByBox)
	boxGroup.GET("/:id/week-templates", h.Templates.List)
	boxGroup.GET("/:id/invitations", h.Invitations.ListByBox)

	membershipGroup := group.Group("/memberships")
	membershipGroup.GET("", h.Memberships.ListMine)
	membershipGroup.PATCH("/:id", h.Memberships.Update)
	membershipGroup.DELETE("/:id", h.Memberships.Remove)

	disciplineGroup := group.Group("/disciplines")
	disciplineGroup.POST("", h.Disciplines.Create)
	disciplineGroup.GET("/:id", h.Disciplines.Get)
	disciplineGroup.PATCH("/:id", h.Disciplines.Update)
	disciplineGroup.DELETE("/:id", h.Disciplines.Delete)
}
