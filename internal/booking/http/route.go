package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, teamMiddleware gin.HandlerFunc) {
	bookings := g.Group("/bookings")

	// === Authenticated Routes ===
	bookings.Use(authMiddleware)
	{
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.POST("", h.Create)
		bookings.PATCH("/:id", h.Update)
		bookings.POST("/:id/cancel", h.Cancel)

		// === Rental Team Routes ===
		bookings.POST("/:id/status", teamMiddleware, h.Transition)
	}

	items := g.Group("/items")
	items.Use(authMiddleware)
	{
		items.GET("/:id/availability", h.Availability)
		items.POST("/:id/block", teamMiddleware, h.Block)
	}
}
