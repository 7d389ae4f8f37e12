package main

import (
	"net/http"
	"strconv"

	"github.com/jabsona1985/digital-game-hub/internal/middleware"
	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// validID guards :id params before they reach a query.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

type gameRequest struct {
	Title         string           `json:"title"`
	TitleGe       *string          `json:"title_ge,omitempty"`
	TitleRu       *string          `json:"title_ru,omitempty"`
	Description   *string          `json:"description,omitempty"`
	DescriptionGe *string          `json:"description_ge,omitempty"`
	DescriptionRu *string          `json:"description_ru,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Platform      []string         `json:"platform"`
	IsActive      *bool            `json:"is_active,omitempty"`
	IsFeatured    bool             `json:"is_featured"`
	Rating        *float64         `json:"rating,omitempty"`
}

func (r *gameRequest) toModel(id string) *model.Game {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &model.Game{
		ID:            id,
		Title:         r.Title,
		TitleGe:       r.TitleGe,
		TitleRu:       r.TitleRu,
		Description:   r.Description,
		DescriptionGe: r.DescriptionGe,
		DescriptionRu: r.DescriptionRu,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		ImageURL:      r.ImageURL,
		Category:      r.Category,
		Platform:      r.Platform,
		IsActive:      active,
		IsFeatured:    r.IsFeatured,
		Rating:        r.Rating,
	}
}

func filterFromQuery(c echo.Context) repository.GameFilter {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return repository.GameFilter{
		Category:     c.QueryParam("category"),
		Platform:     c.QueryParam("platform"),
		Search:       c.QueryParam("search"),
		FeaturedOnly: c.QueryParam("featured") == "true",
		Sort:         c.QueryParam("sort"),
		Limit:        limit,
		Offset:       offset,
	}
}

// registerGameRoutes mounts the catalog.
// Public:
//
//	GET /store/games      -> active games (filters: category, platform, search, featured; sort; pagination)
//	GET /store/games/:id  -> one active game (staff also see inactive)
//
// Staff (admin or moderator):
//
//	GET /admin/games, POST /admin/games, PUT /admin/games/:id, DELETE /admin/games/:id
func registerGameRoutes(g *echo.Group, gs *services.GameService) {
	g.GET("/store/games", func(c echo.Context) error {
		list, err := gs.ListStore(c.Request().Context(), filterFromQuery(c))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	})

	g.GET("/store/games/:id", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		claims := middleware.TryGetClaimsFromAuthHeader(c)
		staff := claims != nil && (claims.Role == model.RoleAdmin || claims.Role == model.RoleModerator)
		game, err := gs.Get(c.Request().Context(), c.Param("id"), staff)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "game not found"})
		}
		return c.JSON(http.StatusOK, game)
	})

	staff := g.Group("/admin")
	staff.Use(middleware.JWTMiddleware())
	staff.Use(middleware.RequireRole(model.RoleAdmin, model.RoleModerator))

	staff.GET("/games", func(c echo.Context) error {
		list, err := gs.ListAdmin(c.Request().Context(), filterFromQuery(c))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	})

	staff.POST("/games", func(c echo.Context) error {
		req := new(gameRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		id, err := gs.Create(c.Request().Context(), req.toModel(""))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, map[string]string{"id": id})
	})

	staff.PUT("/games/:id", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		req := new(gameRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		}
		if err := gs.Update(c.Request().Context(), req.toModel(c.Param("id"))); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
	})

	staff.DELETE("/games/:id", func(c echo.Context) error {
		if !validID(c.Param("id")) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
		}
		if err := gs.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "deleted"})
	})
}
