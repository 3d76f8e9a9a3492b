package controllers

import (
	"net/http"
	"strings"
	"time"

	"kioskcms/services"

	"github.com/gin-gonic/gin"
)

type SpeakerController struct {
	schedule *services.SpeakerSchedule
	now      func() time.Time
}

func NewSpeakerController(schedule *services.SpeakerSchedule) *SpeakerController {
	return &SpeakerController{schedule: schedule, now: time.Now}
}

// imageFile is the legacy {data, type} image object.
type imageFile struct {
	Data string `json:"data"`
	Type string `json:"type"`
}

// speakerRequest carries images as base64 data URLs. File is the legacy
// name for Thumbnail.
type speakerRequest struct {
	Name          *string    `json:"name"`
	Designation   *string    `json:"designation"`
	StartTime     *string    `json:"startTime"`
	EndTime       *string    `json:"endTime"`
	Order         *int       `json:"order"`
	Thumbnail     string     `json:"thumbnail"`
	PopupImage    string     `json:"popupImage"`
	File          *imageFile `json:"file"`
	ImageURL      *string    `json:"imageUrl"`
	PopupImageURL *string    `json:"popupImageUrl"`
}

func (r speakerRequest) images() (thumbnail, popup *services.Upload, err error) {
	switch {
	case strings.TrimSpace(r.Thumbnail) != "":
		thumbnail, err = services.DecodeDataURL(r.Thumbnail, "image/png")
	case r.File != nil && strings.TrimSpace(r.File.Data) != "":
		thumbnail, err = services.DecodeDataURL(r.File.Data, r.File.Type)
	}
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(r.PopupImage) != "" {
		if popup, err = services.DecodeDataURL(r.PopupImage, "image/png"); err != nil {
			return nil, nil, err
		}
	}
	return thumbnail, popup, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListSpeakers returns every speaker with its live flag at the current time.
func (sc *SpeakerController) ListSpeakers(c *gin.Context) {
	views, _, err := sc.schedule.Views(c.Request.Context(), sc.now())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, views)
}

// GetLiveSpeaker returns the live speaker, or null when nobody is on stage.
func (sc *SpeakerController) GetLiveSpeaker(c *gin.Context) {
	live, err := sc.schedule.LiveAt(c.Request.Context(), sc.now())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, live)
}

func (sc *SpeakerController) GetSpeaker(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "speaker")
	if !ok {
		return
	}
	speaker, err := sc.schedule.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, speaker)
}

func (sc *SpeakerController) CreateSpeaker(c *gin.Context) {
	var req speakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	thumbnail, popup, err := req.images()
	if err != nil {
		respondError(c, err)
		return
	}

	in := services.CreateSpeakerInput{
		Name:        deref(req.Name),
		Designation: deref(req.Designation),
		Thumbnail:   thumbnail,
		Popup:       popup,
		StartTime:   deref(req.StartTime),
		EndTime:     deref(req.EndTime),
	}
	if req.Order != nil {
		in.Order = *req.Order
	}

	speaker, err := sc.schedule.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, speaker)
}

func (sc *SpeakerController) UpdateSpeaker(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "speaker")
	if !ok {
		return
	}
	var req speakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	thumbnail, popup, err := req.images()
	if err != nil {
		respondError(c, err)
		return
	}

	speaker, err := sc.schedule.Update(c.Request.Context(), id, services.UpdateSpeakerInput{
		Name:          req.Name,
		Designation:   req.Designation,
		Thumbnail:     thumbnail,
		Popup:         popup,
		ImageURL:      req.ImageURL,
		PopupImageURL: req.PopupImageURL,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Order:         req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, speaker)
}

func (sc *SpeakerController) DeleteSpeaker(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "speaker")
	if !ok {
		return
	}
	if err := sc.schedule.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id.Hex()})
}
