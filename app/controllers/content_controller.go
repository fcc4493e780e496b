package controllers

import (
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

type ContentController struct {
	content *services.ContentService
}

func NewContentController(content *services.ContentService) *ContentController {
	return &ContentController{content: content}
}

func (h *ContentController) Generate(c *ctx.Context) {
	var in services.ContentInput
	_ = c.DecodeJSON(&in)

	out, err := h.content.Generate(c.Context(), in.Keywords)
	switch {
	case errors.Is(err, services.ErrNoKeywords):
		c.Error(http.StatusBadRequest, "No keywords provided")
	case err != nil:
		c.Error(http.StatusInternalServerError, "Failed to generate content from AI.")
	default:
		c.JSON(http.StatusOK, out)
	}
}
