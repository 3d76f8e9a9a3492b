package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"kioskcms/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// respondError maps a service error to its HTTP status. Server-side failures
// are attached to the gin context so the request logger records the cause.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		_ = c.Error(err)
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		_ = c.Error(err)
	}
	respondMessage(c, status, se.Message)
}

// objectIDParam parses a hex id path parameter, answering 400 when it is
// malformed.
func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid "+label+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// formUpload reads the first present multipart file among fields. It returns
// nil without error when none of the fields carry a file.
func formUpload(c *gin.Context, fields ...string) (*services.Upload, error) {
	var header *multipart.FileHeader
	for _, field := range fields {
		if field == "" {
			continue
		}
		if fh, err := c.FormFile(field); err == nil {
			header = fh
			break
		}
	}
	if header == nil {
		return nil, nil
	}
	if header.Size > services.MaxUploadBytes {
		return nil, services.ValidationError("File too large (max 25MB)")
	}

	f, err := header.Open()
	if err != nil {
		return nil, services.ValidationError("Failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadBytes+1))
	if err != nil {
		return nil, services.ValidationError("Failed to read uploaded file")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &services.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
