package routes

import (
	"kioskcms/controllers"

	"github.com/gin-gonic/gin"
)

// SetupBubbleRoutes sets up the navigation bubble routes
func SetupBubbleRoutes(public, protected *gin.RouterGroup, bc *controllers.BubbleController) {
	public.GET("/bubbles", bc.ListBubbles)
	public.GET("/bubbles/:id", bc.GetBubble)

	protected.POST("/bubbles", bc.CreateBubble)
	protected.PUT("/bubbles/:id", bc.UpdateBubble)
	protected.DELETE("/bubbles/:id", bc.DeleteBubble)
}
