package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"mercadito/internal/catalog"
	"mercadito/internal/config"
	"mercadito/internal/database"
	"mercadito/internal/handlers"
	"mercadito/internal/middleware"
	"mercadito/internal/outbox"
	"mercadito/internal/realtime"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] user index:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] order index:", err)
	}
	if err := database.EnsureNotificationIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] notification index:", err)
	}
	if err := database.EnsureRatingIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] rating index:", err)
	}
	if err := database.EnsureOutboxIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] outbox index:", err)
	}
	if err := database.EnsureDriverIndexes(db); err != nil {
		log.Println("[INDEX] [WARN] driver index:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppEnv.RedisAddr,
		Password: config.AppEnv.RedisPassword,
	})
	bridge := realtime.NewBridge(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go outbox.NewDispatcher(db, bridge, config.AppEnv.OutboxInterval).Run(ctx)
	go catalog.NewSweeper(db, config.AppEnv.SweepInterval).Run(ctx)

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(db, secret, accessTTL, refreshTTL))
	r.POST("/auth/login", handlers.Login(db, secret, accessTTL, refreshTTL))
	r.POST("/auth/refresh", handlers.Refresh(db, secret, accessTTL, refreshTTL))
	r.POST("/auth/logout", handlers.Logout(db))
	r.GET("/auth/me", middleware.UserAuth(secret), handlers.GetMe(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/daily", handlers.GetDailyProducts(db))
	r.GET("/categories", handlers.GetCategories(db))

	user := r.Group("/user")
	user.Use(middleware.UserAuth(secret))
	{
		user.GET("/addresses", handlers.GetUserAddresses(db))
		user.POST("/addresses", handlers.CreateUserAddress(db))
		user.PUT("/addresses/:id", handlers.UpdateUserAddress(db))
		user.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))

		user.GET("/notifications", handlers.GetNotifications(db))
		user.GET("/notifications/unread", handlers.GetUnreadNotificationCount(db))

		user.GET("/ratings/pending", handlers.GetPendingRatings(db))
		user.POST("/ratings/:id", handlers.SubmitRating(db))

		user.GET("/events", handlers.StreamEvents(bridge))
	}

	orders := r.Group("/orders")
	orders.Use(middleware.UserAuth(secret))
	{
		orders.POST("", handlers.CreateOrder(db, bridge, config.AppEnv.DeliveryFee))
		orders.GET("", handlers.GetMyOrders(db))
		orders.POST("/:id/cancel", handlers.CancelOrder(db, bridge))
	}

	seller := r.Group("/seller")
	seller.Use(middleware.SellerAuth(secret))
	{
		seller.GET("/products", handlers.GetSellerProducts(db))
		seller.POST("/products", handlers.CreateProduct(db))
		seller.PATCH("/products/:id", handlers.UpdateProduct(db))
		seller.DELETE("/products/:id", handlers.DeleteProduct(db))

		seller.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(db, bridge))
	}

	driver := r.Group("/driver")
	driver.Use(middleware.DriverAuth(secret))
	{
		driver.GET("/me", handlers.GetDriverMe(db, bridge))
		driver.POST("/status", handlers.SetDriverStatus(db, bridge))
		driver.POST("/location", handlers.UpdateDriverLocation(db, bridge))

		driver.GET("/orders/available", handlers.GetAvailableOrders(db))
		driver.GET("/orders/active", handlers.GetActiveOrders(db))
		driver.GET("/orders/completed", handlers.GetCompletedOrders(db))

		driver.POST("/orders/:id/accept", handlers.AcceptOrder(db, bridge))
		driver.POST("/orders/:id/pickup", handlers.MarkPickedUp(db, bridge))
		driver.POST("/orders/:id/transit", handlers.MarkInTransit(db, bridge))
		driver.POST("/orders/:id/deliver", handlers.MarkDelivered(db, bridge))
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/users", handlers.AdminGetUsers(db))
		admin.POST("/drivers/:id/verify", handlers.AdminVerifyDriver(db))

		admin.GET("/orders", handlers.AdminGetOrders(db))
		admin.DELETE("/orders/:id", handlers.AdminDeleteOrder(db))

		admin.POST("/categories", handlers.AdminCreateCategory(db))
		admin.PATCH("/categories/:id", handlers.AdminUpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.AdminDeleteCategory(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
