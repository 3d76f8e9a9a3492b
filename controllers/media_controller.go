package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"kioskcms/internal/assets"
	"kioskcms/models"
	"kioskcms/services"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	store *services.MediaStore
}

func NewMediaController(store *services.MediaStore) *MediaController {
	return &MediaController{store: store}
}

// GetMediaByTitle serves the kiosk lookup ?title=<exact title>.
func (mc *MediaController) GetMediaByTitle(c *gin.Context) {
	media, err := mc.store.FindByTitle(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, media)
}

func (mc *MediaController) ListMedia(c *gin.Context) {
	media, err := mc.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if media == nil {
		media = []models.Media{}
	}
	respond(c, http.StatusOK, media)
}

// CreateMedia accepts multipart title, type and a file under a field named
// after the type or "file". Type website takes websiteUrl instead.
func (mc *MediaController) CreateMedia(c *gin.Context) {
	if !isMultipart(c) {
		respondMessage(c, http.StatusBadRequest, "Expected multipart/form-data")
		return
	}
	kind := c.PostForm("type")
	in := services.CreateMediaInput{
		Title:      c.PostForm("title"),
		Kind:       kind,
		WebsiteURL: c.PostForm("websiteUrl"),
	}
	if models.MediaKind(strings.ToLower(kind)).IsUpload() {
		file, err := formUpload(c, strings.ToLower(kind), "file")
		if err != nil {
			respondError(c, err)
			return
		}
		in.File = file
	}

	media, err := mc.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, media)
}

func (mc *MediaController) UpdateMedia(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "media")
	if !ok {
		return
	}
	if !isMultipart(c) {
		respondMessage(c, http.StatusBadRequest, "Expected multipart/form-data")
		return
	}

	var in services.UpdateMediaInput
	if title, ok := c.GetPostForm("title"); ok {
		in.Title = &title
	}
	kind, hasKind := c.GetPostForm("type")
	if hasKind {
		in.Kind = &kind
	}
	if websiteURL, ok := c.GetPostForm("websiteUrl"); ok {
		in.WebsiteURL = &websiteURL
	}
	file, err := formUpload(c, strings.ToLower(kind), "file")
	if err != nil {
		respondError(c, err)
		return
	}
	in.File = file

	media, err := mc.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, media)
}

func (mc *MediaController) DeleteMedia(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "media")
	if !ok {
		return
	}
	if err := mc.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id.Hex()})
}

// DownloadMedia streams the stored file as an attachment named after the
// media title.
func (mc *MediaController) DownloadMedia(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "media")
	if !ok {
		return
	}
	media, rc, err := mc.store.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	contentType := media.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := strings.ReplaceAll(media.Title, `"`, "") + assets.ExtensionFor(contentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}

func (mc *MediaController) GetWebsiteByTitle(c *gin.Context) {
	media, err := mc.store.FindWebsiteByTitle(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, media)
}

func (mc *MediaController) CreateWebsite(c *gin.Context) {
	var req struct {
		Title      string `json:"title"`
		WebsiteURL string `json:"websiteUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	media, err := mc.store.CreateWebsite(c.Request.Context(), req.Title, req.WebsiteURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, media)
}
