package api

import "github.com/gin-gonic/gin"

func registerScheduleRoutes(group *gin.RouterGroup, h Handlers) {
	scheduleGroup := group.Group("/schedules")
	scheduleGroup.POST("", h.Schedules.Create)
	scheduleGroup.POST("/bulk", h.Schedules.CreateBulk)
	scheduleGroup.POST("/cancel", h.Schedules.CancelMany)
	scheduleGroup.POST("/reactivate", h.Schedules.ReactivateMany)
	scheduleGroup.POST("/delete", h.Schedules.DeleteMany)
	scheduleGroup.POST("/publish-week", h.Schedules.PublishWeek)
	scheduleGroup.POST("/copy-week", h.Schedules.CopyWeek)
	scheduleGroup.GET("/:id", h.Schedules.Get)
	scheduleGroup.PATCH("/:id", h.Schedules.Update)
	scheduleGroup.DELETE("/:id", h.Schedules.Delete)
	scheduleGroup.POST("/:id/cancel", h.Schedules.Cancel)
	scheduleGroup.POST("/:id/reactivate", h.Schedules.Reactivate)

	scheduleGroup.POST("/:id/book", h.Bookings.Book)
	scheduleGroup.DELETE("/:id/book", h.Bookings.Unsubscribe)
	scheduleGroup.GET("/:id/bookings", h.Bookings.ListForSchedule)

	group.GET("/bookings", h.Bookings.ListMine)
}
