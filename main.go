package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/email"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payment"
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
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Printf("coupon index warning: %v", err)
	}
	if err := database.EnsureReelIndexes(db); err != nil {
		log.Printf("reel index warning: %v", err)
	}

	gateway := payment.NewClient(payment.Config{
		BaseURL:    config.AppEnv.GatewayBaseURL,
		MerchantID: config.AppEnv.GatewayMerchantID,
		SaltKey:    config.AppEnv.GatewaySaltKey,
		SaltIndex:  config.AppEnv.GatewaySaltIndex,
	})
	producer := events.NewProducer(config.AppEnv.KafkaBrokers)
	defer producer.Close()
	mailer := email.NewService(config.AppEnv.PostmarkToken, config.AppEnv.EmailSender)

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/login", handlers.Login(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.GET("/auth/me", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetMe(db))
	r.POST("/auth/refresh", handlers.Refresh(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/logout", handlers.Logout(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))
	r.GET("/reels", handlers.GetReels(db))
	r.POST("/reels/:id/view", handlers.CountReelView(db))
	r.POST("/coupons/validate", handlers.ValidateCoupon(db))

	user := r.Group("/user")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/addresses", handlers.GetUserAddresses(db))
		user.POST("/addresses", handlers.CreateUserAddress(db))
		user.PUT("/addresses/:id", handlers.UpdateUserAddress(db))
		user.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))

		user.GET("/cart", handlers.GetUserCart(db))
		user.POST("/cart", handlers.SyncUserCart(db))

		user.GET("/wishlist", handlers.GetWishlist(db))
		user.POST("/wishlist", handlers.ToggleWishlist(db))
		user.PUT("/wishlist", handlers.ReplaceWishlist(db))
	}

	auth := r.Group("/")
	auth.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		auth.POST("/reels/:id/like", handlers.SetReelLike(db))

		auth.POST("/orders", handlers.CreateOrder(db, producer))
		auth.POST("/orders/cod", handlers.CreateCODOrder(db, producer, mailer))
		auth.GET("/orders", handlers.GetMyOrders(db))
		auth.GET("/orders/tracking", handlers.GetOrderTracking(db))

		auth.POST("/payments", handlers.InitiatePayment(db, gateway))
	}

	r.GET("/payments/status", handlers.PaymentStatus(db, gateway, producer, mailer))
	r.POST("/webhooks/phonepe", handlers.PhonePeWebhook(db, gateway, producer, mailer))
	// Older gateway dashboards only accept one callback path.
	r.POST("/webhook", handlers.PhonePeWebhook(db, gateway, producer, mailer))

	cron := r.Group("/cron")
	cron.Use(middleware.CronAuth(config.AppEnv.CronSecret))
	{
		cron.GET("/cleanup-failed-orders", handlers.CleanupStaleOrders(db, config.AppEnv.StaleOrderMaxAge))
		cron.POST("/orders/tracking", handlers.AppendTrackingUpdate(db, producer))
	}

	r.Run(":" + config.AppEnv.Port)
}
