package routes

import (
	"kioskcms/controllers"

	"github.com/gin-gonic/gin"
)

func SetupHomeRoutes(public, protected *gin.RouterGroup, hc *controllers.HomeController) {
	public.GET("/home", hc.GetHome)
	protected.PUT("/home", hc.UpdateHome)
}

func SetupKioskRoutes(public *gin.RouterGroup, kc *controllers.KioskController, feed gin.HandlerFunc) {
	public.GET("/kiosk", kc.GetSnapshot)
	if feed != nil {
		public.GET("/ws/kiosk", feed)
	}
}

func SetupAuthRoutes(public, protected *gin.RouterGroup, ac *controllers.AuthController, guard ...gin.HandlerFunc) {
	public.POST("/auth/login", append(guard, ac.Login)...)
	protected.GET("/auth/session", ac.Session)
}
