// Package controllers maps HTTP requests onto the services and shapes their
// results as JSON.
package controllers

import (
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

const (
	msgMailFailed = "An internal error occurred sending the email."
	msgInternal   = "An internal error occurred."
)

// fail answers with the status a repository or recipe error stands for,
// falling back to a logged 500.
func fail(c *ctx.Context, err error, notFound string) {
	var recipe *services.RecipeError
	switch {
	case errors.As(err, &recipe):
		c.ValidationError(recipe.Fields)
	case errors.Is(err, repositories.ErrNotFound):
		c.NotFound(notFound)
	case errors.Is(err, repositories.ErrForbidden):
		c.Forbidden("Unauthorized")
	default:
		c.ServerError(msgInternal, err)
	}
}

func idParam(c *ctx.Context, notFound string) (uint, bool) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.Error(http.StatusNotFound, notFound)
	}
	return id, ok
}
