package controllers

import (
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/integrations/ebay"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/ctx"
)

type EbayController struct {
	publisher *services.PublisherService
}

func NewEbayController(publisher *services.PublisherService) *EbayController {
	return &EbayController{publisher: publisher}
}

func (h *EbayController) AuthURL(c *ctx.Context) {
	u, err := h.publisher.AuthURL(c.UserID())
	if err != nil {
		c.ServerError(msgInternal, err)
		return
	}
	c.JSON(http.StatusOK, map[string]string{"auth_url": u})
}

// Callback is where eBay sends the seller back after consent. It always
// redirects to the publisher page with a success or error flag.
func (h *EbayController) Callback(c *ctx.Context) {
	target := config.FrontendURL() + "/publisher"
	if err := h.publisher.HandleCallback(c.Context(), c.Query("code"), c.Query("state")); err != nil {
		c.Log().Warn("ebay callback failed", "error", err)
		c.Redirect(http.StatusFound, target+"?error=true")
		return
	}
	c.Redirect(http.StatusFound, target+"?success=true")
}

func (h *EbayController) CreateDraft(c *ctx.Context) {
	var in services.DraftInput
	if !c.BindJSON(&in) {
		return
	}

	res, err := h.publisher.CreateDraft(c.Context(), c.UserID(), in)
	switch {
	case errors.Is(err, services.ErrEbayNotConnected), errors.Is(err, services.ErrEbayAuth):
		c.Error(http.StatusInternalServerError, "Could not authenticate with eBay. Please reconnect your account.")
	case errors.Is(err, ebay.ErrLocation):
		c.ErrorDetails(http.StatusInternalServerError, "Could not verify or create your eBay inventory location.", ebay.Details(err))
	case err != nil:
		c.Log().Error("create draft failed", "error", err)
		c.ErrorDetails(http.StatusInternalServerError, "Failed to create draft on eBay.", ebay.Details(err))
	default:
		c.JSON(http.StatusCreated, map[string]string{
			"message": "Successfully created a draft offer on eBay!",
			"offerId": res.OfferID,
			"sku":     res.SKU,
		})
	}
}
