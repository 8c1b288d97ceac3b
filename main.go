package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/config"
	"quickbite/internal/database"
	"quickbite/internal/geo"
	"quickbite/internal/handlers"
	"quickbite/internal/jobs"
	"quickbite/internal/mail"
	"quickbite/internal/middleware"
	"quickbite/internal/models"
	"quickbite/internal/notify"
	"quickbite/internal/payments"
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
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureShopIndexes(db); err != nil {
		log.Printf("⚠️ shop index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureAssignmentIndexes(db); err != nil {
		log.Printf("⚠️ assignment index warning: %v", err)
	}
	if err := database.EnsureRatingIndexes(db); err != nil {
		log.Printf("⚠️ rating index warning: %v", err)
	}

	mailer := mail.NewService(config.AppEnv.SendGridKey, config.AppEnv.MailSender)
	geocoder := geo.NewGeocoder(config.AppEnv.GeocoderBaseURL)

	onlineGateway := payments.Gateway(payments.CashOnDelivery{})
	if config.AppEnv.PaymentBaseURL != "" {
		onlineGateway = payments.NewRestGateway(
			config.AppEnv.PaymentBaseURL,
			config.AppEnv.PaymentKeyID,
			config.AppEnv.PaymentKeySecret,
		)
	}
	gateways := map[string]payments.Gateway{
		models.PaymentCOD:    payments.CashOnDelivery{},
		models.PaymentOnline: onlineGateway,
	}

	hub := notify.NewHub()

	jobManager := jobs.NewManager(db, hub, config.AppEnv.BroadcastTTL, config.AppEnv.BroadcastRadiusKm)
	if err := jobManager.StartAll(); err != nil {
		log.Fatal(err)
	}
	defer jobManager.StopAll()

	secret := config.AppEnv.JWTSecret
	ttl := config.AppEnv.AccessTokenTTL

	r := gin.Default()
	r.Static("/public", "./public")

	r.POST("/api/auth/signup", handlers.Register(db, secret, ttl))
	r.POST("/api/auth/signin", handlers.Login(db, secret, ttl))
	r.POST("/api/auth/signout", middleware.AuthGuard(secret), handlers.Logout(db))
	r.POST("/api/auth/send-otp", handlers.SendOtp(db, mailer))
	r.POST("/api/auth/verify-otp", handlers.VerifyOtp(db))
	r.POST("/api/auth/reset-password", handlers.ResetPassword(db))

	r.POST("/api/contact", handlers.Contact(mailer, config.AppEnv.ContactInbox))
	r.GET("/api/geocode", middleware.AuthGuard(secret), handlers.Geocode(geocoder))

	r.GET("/ws", middleware.AuthGuard(secret), notify.ServeWS(hub,
		func(userID primitive.ObjectID, sessionID string) {
			handlers.OnSocketConnect(db, userID, sessionID)
		},
		func(userID primitive.ObjectID, sessionID string) {
			handlers.OnSocketDisconnect(db, userID, sessionID)
		},
	))

	user := r.Group("/api/user")
	user.Use(middleware.AuthGuard(secret))
	{
		user.GET("/me", handlers.GetMe(db))
		user.POST("/location", handlers.UpdateLocation(db))
	}

	shop := r.Group("/api/shop")
	{
		shop.GET("/city/:city", handlers.GetShopsByCity(db))
		shop.GET("/my", middleware.OwnerAuth(secret), handlers.GetMyShop(db))
		shop.POST("", middleware.OwnerAuth(secret), handlers.CreateOrEditShop(db))
	}

	item := r.Group("/api/item")
	{
		item.GET("/shop/:shopId", handlers.GetItemsByShop(db))
		item.GET("/search", handlers.SearchItems(db))
		item.GET("/recommended", handlers.GetRecommendedItems(db))
		item.POST("", middleware.OwnerAuth(secret), handlers.AddItem(db))
		item.PUT("/:id", middleware.OwnerAuth(secret), handlers.EditItem(db))
		item.DELETE("/:id", middleware.OwnerAuth(secret), handlers.DeleteItem(db))
		item.POST("/rate", middleware.AuthGuard(secret, models.RoleCustomer), handlers.RateItem(db))
	}

	order := r.Group("/api/order")
	order.Use(middleware.AuthGuard(secret))
	{
		order.POST("", handlers.PlaceOrder(db, hub, gateways, config.AppEnv.DeliveryFee))
		order.POST("/verify-payment", handlers.VerifyPayment(db, onlineGateway, mailer))
		order.GET("/my", handlers.GetMyOrders(db))
		order.GET("/:orderId", handlers.GetOrderByID(db))
		order.POST("/:orderId/status/:shopId", middleware.OwnerAuth(secret),
			handlers.UpdateShopOrderStatus(db, hub, config.AppEnv.BroadcastRadiusKm))
	}

	delivery := r.Group("/api/delivery")
	{
		delivery.GET("/broadcasts", middleware.CourierAuth(secret), handlers.GetAvailableBroadcasts(db))
		delivery.GET("/current", middleware.CourierAuth(secret), handlers.GetCurrentDelivery(db))
		delivery.POST("/accept/:assignmentId", middleware.CourierAuth(secret), handlers.AcceptAssignment(db, hub))
		delivery.POST("/assign/:assignmentId", middleware.OwnerAuth(secret), handlers.OwnerAssignCourier(db, hub))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
