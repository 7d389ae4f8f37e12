package main

import (
	"errors"
	"net/http"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/labstack/echo/v4"
)

type checkoutRequest struct {
	IdempotencyToken string           `json:"idempotency_token"`
	Items            []model.CartLine `json:"items"`
}

// registerCheckoutRoutes mounts the checkout endpoint.
//
//	POST /store/checkout (authenticated) -> receipt {orders: [{title,key}], total}
//
// Card details never reach the server; the payment form is a client-side
// fixture. The charged amount per unit is the catalog price at
// fulfillment time, not the price snapshot the cart carries.
func registerCheckoutRoutes(g *echo.Group, fs *services.FulfillmentService) {
	checkout := g.Group("/store")
	checkout.Use(middleware.JWTMiddleware())

	checkout.POST("/checkout", func(c echo.Context) error {
		claims := middleware.GetClaims(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		}
		req := new(checkoutRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}

		receipt, err := fs.Fulfill(c.Request().Context(), claims.UserID, req.IdempotencyToken, req.Items)
		if err != nil {
			return c.JSON(checkoutStatus(err), checkoutBody(err))
		}
		return c.JSON(http.StatusOK, receipt)
	})
}

func checkoutStatus(err error) int {
	var oos *services.OutOfStockError
	var store *services.StoreError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateCheckout):
		return http.StatusConflict
	case errors.As(err, &oos):
		return http.StatusConflict
	case errors.As(err, &store):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func checkoutBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	var oos *services.OutOfStockError
	if errors.As(err, &oos) {
		body["game_id"] = oos.GameID
	}
	return body
}
