package routes

import (
	"kioskcms/controllers"

	"github.com/gin-gonic/gin"
)

// SetupSpeakerRoutes sets up speaker schedule routes
func SetupSpeakerRoutes(public, protected *gin.RouterGroup, sc *controllers.SpeakerController) {
	public.GET("/speakers", sc.ListSpeakers)
	public.GET("/speakers/live", sc.GetLiveSpeaker)
	public.GET("/speakers/:id", sc.GetSpeaker)

	protected.POST("/speakers", sc.CreateSpeaker)
	protected.PUT("/speakers/:id", sc.UpdateSpeaker)
	protected.DELETE("/speakers/:id", sc.DeleteSpeaker)
}
