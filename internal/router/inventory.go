package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/handler"
	"github.com/Stockline-Systems/inventory/internal/middleware"
)

func registerInventoryRoutes(authed *gin.RouterGroup, items *handler.ItemHandler, orders *handler.OrderHandler, reports *handler.ReportHandler, users middleware.UserLookup) {
	verified := authed.Group("", middleware.RequireVerified(users))

	item := verified.Group("/items")
	{
		item.POST("", items.Create)
		item.GET("", items.List)
		item.GET("/:id", items.Get)
		item.PUT("/:id", items.Update)
		item.POST("/:id/adjust", items.AdjustQuantity)
		item.DELETE("/:id", items.Delete)
	}

	order := verified.Group("/orders")
	{
		order.POST("", orders.Create)
		order.GET("", orders.List)
		order.GET("/:id", orders.Get)
		order.PUT("/:id/status", orders.UpdateStatus)
		order.POST("/:id/deliveries", orders.ScheduleDelivery)
		order.PUT("/:id/deliveries/:delivery_id", orders.UpdateDelivery)
	}

	verified.GET("/reports/summary", reports.OrgSummary)
}
