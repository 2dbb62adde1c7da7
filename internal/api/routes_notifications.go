package api

import "github.com/gin-gonic/gin"

func registerNotificationRoutes(group *gin.RouterGroup, h Handlers) {
	notificationGroup := group.Group("/notifications")
	notificationGroup.GET("", h.Notifications.ListAll)
	notificationGroup.GET("/unread", h.Notifications.ListUnread)
	notificationGroup.POST("/:id/read", h.Notifications.MarkRead)
	notificationGroup.POST("/read-all", h.Notifications.MarkAllRead)
	notificationGroup.GET("/preferences", h.Notifications.GetPreferences)
	notificationGroup.PATCH("/preferences", h.Notifications.UpdatePreferences)
	notificationGroup.GET("/stream", h.Notifications.Stream)
}
