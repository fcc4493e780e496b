package controllers

import (
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

type WorkshopController struct {
	workshop *services.WorkshopService
}

func NewWorkshopController(workshop *services.WorkshopService) *WorkshopController {
	return &WorkshopController{workshop: workshop}
}

// Index returns every material and product of the signed-in user with
// derived costs.
func (h *WorkshopController) Index(c *ctx.Context) {
	w, err := h.workshop.Workshop(c.Context(), c.UserID())
	if err != nil {
		c.ServerError(msgInternal, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkshopController) StoreMaterial(c *ctx.Context) {
	var in services.MaterialInput
	if !c.BindJSON(&in) {
		return
	}
	m, err := h.workshop.AddMaterial(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err, "Material not found")
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{"message": "Material added", "id": m.ID})
}

func (h *WorkshopController) UpdateMaterial(c *ctx.Context) {
	id, ok := idParam(c, "Material not found")
	if !ok {
		return
	}
	var in services.MaterialInput
	if !c.BindJSON(&in) {
		return
	}
	if _, err := h.workshop.UpdateMaterial(c.Context(), c.UserID(), id, in); err != nil {
		fail(c, err, "Material not found")
		return
	}
	c.Message(http.StatusOK, "Material updated")
}

// DestroyMaterial refuses while products use the material unless called
// with ?force=true, which also drops those recipe lines.
func (h *WorkshopController) DestroyMaterial(c *ctx.Context) {
	id, ok := idParam(c, "Material not found")
	if !ok {
		return
	}
	force := c.Query("force") == "true" || c.Query("force") == "1"

	err := h.workshop.DeleteMaterial(c.Context(), c.UserID(), id, force)
	if errors.Is(err, repositories.ErrConflict) {
		c.Error(http.StatusConflict, "Material is used by one or more products")
		return
	}
	if err != nil {
		fail(c, err, "Material not found")
		return
	}
	c.Message(http.StatusOK, "Material deleted")
}

func (h *WorkshopController) StoreProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := h.workshop.AddProduct(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{"message": "Product added", "id": p.ID})
}

func (h *WorkshopController) UpdateProduct(c *ctx.Context) {
	id, ok := idParam(c, "Product not found")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	if _, err := h.workshop.UpdateProduct(c.Context(), c.UserID(), id, in); err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.Message(http.StatusOK, "Product updated")
}

func (h *WorkshopController) DestroyProduct(c *ctx.Context) {
	id, ok := idParam(c, "Product not found")
	if !ok {
		return
	}
	if err := h.workshop.DeleteProduct(c.Context(), c.UserID(), id); err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.Message(http.StatusOK, "Product deleted")
}
