package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/handler"
	"github.com/Stockline-Systems/inventory/internal/middleware"
)

func registerOrganizationRoutes(authed *gin.RouterGroup, orgs *handler.OrganizationHandler, employees *handler.EmployeeHandler, users middleware.UserLookup) {
	verified := authed.Group("", middleware.RequireVerified(users))

	org := verified.Group("/org")
	{
		org.POST("", orgs.Create)
		org.GET("/:id", orgs.Get)
		org.PATCH("/:id", orgs.Update)
		org.DELETE("/:id", orgs.Delete)
		org.POST("/:id/transfer", orgs.TransferOwnership)
	}

	emp := verified.Group("/emp")
	{
		emp.GET("", employees.List)
		emp.POST("/sendInvite", employees.SendInvite)
		emp.POST("/acceptInvite", employees.AcceptInvite)
		emp.GET("/invites", employees.ListInvitations)
		emp.DELETE("/invites/:id", employees.RevokeInvite)
		emp.PATCH("/:id/role", employees.UpdateRole)
		emp.DELETE("/:id", employees.Remove)
	}
}
