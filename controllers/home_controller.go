package controllers

import (
	"net/http"
	"time"

	"kioskcms/services"

	"github.com/gin-gonic/gin"
)

type HomeController struct {
	home *services.HomeScreen
}

func NewHomeController(home *services.HomeScreen) *HomeController {
	return &HomeController{home: home}
}

func (hc *HomeController) GetHome(c *gin.Context) {
	home, err := hc.home.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, home)
}

// UpdateHome takes either a multipart "video" file or JSON {videoUrl}.
func (hc *HomeController) UpdateHome(c *gin.Context) {
	if isMultipart(c) {
		video, err := formUpload(c, "video")
		if err != nil {
			respondError(c, err)
			return
		}
		if video == nil {
			respondMessage(c, http.StatusBadRequest, "No video file provided")
			return
		}
		home, err := hc.home.UploadVideo(c.Request.Context(), video)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, home)
		return
	}

	var req struct {
		VideoURL string `json:"videoUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	home, err := hc.home.SetVideoURL(c.Request.Context(), req.VideoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, home)
}

type KioskController struct {
	kiosk *services.Kiosk
	now   func() time.Time
}

func NewKioskController(kiosk *services.Kiosk) *KioskController {
	return &KioskController{kiosk: kiosk, now: time.Now}
}

// GetSnapshot returns everything the public screen renders.
func (kc *KioskController) GetSnapshot(c *gin.Context) {
	snapshot, err := kc.kiosk.Snapshot(c.Request.Context(), kc.now())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, snapshot)
}
