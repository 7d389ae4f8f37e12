package main

import (
	"net/http"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/labstack/echo/v4"
)

type setRoleRequest struct {
	Role string `json:"role"`
}

// registerUserRoutes mounts user administration (admin only).
//
//	GET /admin/users          -> profiles with resolved roles
//	PUT /admin/users/:id/role -> grant/revoke a role
func registerUserRoutes(g *echo.Group, us *services.UserService) {
	admin := g.Group("/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.GET("/users", func(c echo.Context) error {
		list, err := us.List(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	})

	admin.PUT("/users/:id/role", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		claims := middleware.GetClaims(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		}
		req := new(setRoleRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		if err := us.SetRole(c.Request().Context(), claims.UserID, c.Param("id"), req.Role); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "role updated"})
	})
}
