package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoosight/internal/api/handlers"
	"github.com/yoockh/yoosight/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	WS      *handlers.WSHandler

	// JWTSecret enables bearer auth on everything except /ping when set.
	JWTSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/")
	if d.JWTSecret != "" {
		api.Use(middleware.JWTAuth(d.JWTSecret))
	}

	api.POST("/session/trigger", d.Session.Trigger)
	api.POST("/session/toggle", d.Session.Toggle)
	api.POST("/session/interrupt", d.Session.Interrupt)
	api.POST("/session/permission", d.Session.Permission)
	api.GET("/session", d.Session.Current)
	api.GET("/session/:session_id", d.Session.Get)

	// WebSocket
	if d.WS != nil {
		api.GET("/ws/overlay", d.WS.Overlay)
	}
}
