package main

import (
	"net/http"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/labstack/echo/v4"
)

type addKeysRequest struct {
	Keys     []string `json:"keys,omitempty"`
	Generate int      `json:"generate,omitempty"`
}

// registerKeyRoutes mounts key inventory management for staff
// (admin or moderator).
//
//	POST   /admin/games/:id/keys -> bulk add (explicit strings and/or generate N)
//	GET    /admin/keys           -> list (?game_id=, ?unsold=true)
//	GET    /admin/keys/stock     -> per-game available/sold counts
//	DELETE /admin/keys/:id       -> delete, only while unsold
func registerKeyRoutes(g *echo.Group, ks *services.KeyService) {
	staff := g.Group("/admin")
	staff.Use(middleware.JWTMiddleware())
	staff.Use(middleware.RequireRole(model.RoleAdmin, model.RoleModerator))

	staff.POST("/games/:id/keys", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		req := new(addKeysRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		added, err := ks.AddKeys(c.Request().Context(), c.Param("id"), req.Keys, req.Generate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, map[string]int{"added": added})
	})

	staff.GET("/keys", func(c echo.Context) error {
		list, err := ks.List(c.Request().Context(), c.QueryParam("game_id"), c.QueryParam("unsold") == "true")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	})

	staff.GET("/keys/stock", func(c echo.Context) error {
		stock, err := ks.Stock(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, stock)
	})

	staff.DELETE("/keys/:id", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		if err := ks.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "deleted"})
	})
}
