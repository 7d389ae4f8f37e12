package main

import (
	"net/http"
	"strconv"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/labstack/echo/v4"
)

// registerOrderRoutes mounts order views.
//
//	GET /orders       (authenticated) -> caller's purchased keys
//	GET /admin/orders (admin)         -> all orders, newest first
//	GET /admin/stats  (admin)         -> dashboard counters
func registerOrderRoutes(g *echo.Group, svc *services.OrderService) {
	mine := g.Group("")
	mine.Use(middleware.JWTMiddleware())
	mine.GET("/orders", func(c echo.Context) error {
		claims := middleware.GetClaims(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		}
		keys, err := svc.MyKeys(c.Request().Context(), claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, keys)
	})

	admin := g.Group("/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.GET("/orders", func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		offset, _ := strconv.Atoi(c.QueryParam("offset"))
		list, err := svc.ListAll(c.Request().Context(), limit, offset)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	})

	admin.GET("/stats", func(c echo.Context) error {
		stats, err := svc.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, stats)
	})
}
