package main

import (
	"os"

	"github.com/jabsona1985/digital-game-hub/internal/db"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
	"github.com/jabsona1985/digital-game-hub/internal/services"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

func main() {
	// ======================
	// CONFIG
	// ======================
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using process environment")
	}
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	// ======================
	// INFRA
	// ======================
	pool, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	// ======================
	// REPOSITORIES
	// ======================
	gameRepo := repository.NewGameRepository(pool)
	keyRepo := repository.NewKeyRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	fulfillRepo := repository.NewFulfillmentRepository(pool)
	checkoutRepo := repository.NewCheckoutRepository(pool)

	// ======================
	// SERVICES
	// ======================
	authSvc := services.NewAuthService(userRepo, roleRepo)
	gameSvc := services.NewGameService(gameRepo)
	keySvc := services.NewKeyService(keyRepo, gameRepo)
	orderSvc := services.NewOrderService(orderRepo, gameRepo, keyRepo, userRepo)
	userSvc := services.NewUserService(userRepo, roleRepo)
	fulfillSvc := services.NewFulfillmentService(fulfillRepo, checkoutRepo)

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := e.Group("/api")

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerAuthRoutes(api, authSvc)
	registerGameRoutes(api, gameSvc)
	registerKeyRoutes(api, keySvc)
	registerCheckoutRoutes(api, fulfillSvc)
	registerOrderRoutes(api, orderSvc)
	registerUserRoutes(api, userSvc)

	// ======================
	// SERVER
	// ======================
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
