package api

import "github.com/gin-gonic/gin"

func registerTemplateRoutes(group *gin.RouterGroup, h Handlers) {
	templateGroup := group.Group("/week-templates")
	templateGroup.POST("", h.Templates.Create)
	templateGroup.POST("/import-week", h.Templates.ImportFromWeek)
	templateGroup.GET("/:id", h.Templates.Get)
	templateGroup.PATCH("/:id", h.Templates.Update)
	templateGroup.DELETE("/:id", h.Templates.Delete)
	templateGroup.POST("/:id/items", h.Templates.AddItem)
	templateGroup.POST("/:id/apply", h.Templates.Apply)
	templateGroup.GET("/:id/conflicts", h.Templates.CheckConflicts)

	itemGroup := group.Group("/week-template-items")
	itemGroup.DELETE("/:id", h.Templates.RemoveItem)
}
