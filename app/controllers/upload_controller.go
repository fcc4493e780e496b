package controllers

import (
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

// multipart overhead allowed on top of the file itself
const formSlack = 64 << 10

type UploadController struct {
	uploads *services.UploadService
}

func NewUploadController(uploads *services.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

// Store accepts one multipart "file" and answers with its public URL.
func (h *UploadController) Store(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, services.MaxUploadBytes+formSlack)
	file, _, err := c.R.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.Error(http.StatusRequestEntityTooLarge, "File exceeds 5 MB")
			return
		}
		c.Error(http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	url, err := h.uploads.Upload(c.Context(), c.UserID(), file)
	switch {
	case errors.Is(err, services.ErrUploadTooLarge):
		c.Error(http.StatusRequestEntityTooLarge, "File exceeds 5 MB")
	case errors.Is(err, services.ErrUnsupportedType):
		c.Error(http.StatusUnsupportedMediaType, "Only JPEG, PNG and WebP images are accepted")
	case err != nil:
		c.ServerError("Could not store the file.", err)
	default:
		c.JSON(http.StatusCreated, map[string]string{"url": url})
	}
}
