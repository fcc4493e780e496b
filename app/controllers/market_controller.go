package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

type MarketController struct {
	market *services.MarketService
}

func NewMarketController(market *services.MarketService) *MarketController {
	return &MarketController{market: market}
}

// Analyse handles GET /api/analyse?cost=&query=&marketplace=.
func (h *MarketController) Analyse(c *ctx.Context) {
	cost, err := strconv.ParseFloat(c.DefaultQuery("cost", "0"), 64)
	if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
		c.Error(http.StatusBadRequest, "Invalid request parameters")
		return
	}
	query := c.DefaultQuery("query", services.DefaultQuery)
	marketplace := c.DefaultQuery("marketplace", services.DefaultMarketplace)

	c.JSON(http.StatusOK, h.market.Analyse(c.Context(), query, marketplace, cost))
}

func (h *MarketController) RelatedItems(c *ctx.Context) {
	listings, err := h.market.RelatedItems(c.Context(), c.Param("item_id"))
	switch {
	case errors.Is(err, services.ErrEbayAuth):
		c.Error(http.StatusInternalServerError, "Could not authenticate with eBay")
	case errors.Is(err, services.ErrMarketplaceUnavailable):
		c.Error(http.StatusBadGateway, "The marketplace is currently unavailable.")
	case err != nil:
		c.ServerError("An unexpected error occurred", err)
	default:
		c.JSON(http.StatusOK, map[string]interface{}{"listings": listings})
	}
}
