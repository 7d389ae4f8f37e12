package main

import (
	"net/http"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/labstack/echo/v4"
)

type signupRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerAuthRoutes mounts signup and login.
//
//	POST /auth/signup -> create account (role defaults to "user")
//	POST /auth/login  -> JWT with id/email/role claims
func registerAuthRoutes(g *echo.Group, as *services.AuthService) {
	g.POST("/auth/signup", func(c echo.Context) error {
		req := new(signupRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		id, err := as.Signup(c.Request().Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, map[string]string{"id": id})
	})

	g.POST("/auth/login", func(c echo.Context) error {
		req := new(loginRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		u, role, err := as.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		token, err := middleware.GenerateToken(u.ID, u.Email, role, 24)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"token": token,
			"user":  map[string]string{"id": u.ID, "email": u.Email, "role": role},
		})
	})
}
