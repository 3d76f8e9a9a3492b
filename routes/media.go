package routes

import (
	"kioskcms/controllers"

	"github.com/gin-gonic/gin"
)

// SetupMediaRoutes sets up media and website link routes
func SetupMediaRoutes(public, protected *gin.RouterGroup, mc *controllers.MediaController) {
	public.GET("/media", mc.GetMediaByTitle)
	public.GET("/media/all", mc.ListMedia)
	public.GET("/media/:id/download", mc.DownloadMedia)
	public.GET("/websites", mc.GetWebsiteByTitle)

	protected.POST("/media", mc.CreateMedia)
	protected.PUT("/media/:id", mc.UpdateMedia)
	protected.DELETE("/media/:id", mc.DeleteMedia)
	protected.POST("/websites", mc.CreateWebsite)
}
