package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/controllers"
	"github.com/comanda-app/comanda-api/middleware"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

func main() {
	log.Println("Starting Comanda API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentSplit{},
		&models.Reservation{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Image storage is optional; menu photo uploads 503 without it
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
		log.Println("S3 image storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, menu image uploads disabled")
	}

	// Notifications are best-effort; the server runs without Redis, it
	// just stops telling the kitchen/waiters/cashier screens about changes
	var publisher services.NotificationPublisher
	if redisPublisher, err := services.NewRedisPublisher(cfg.RedisURL); err != nil {
		log.Printf("Redis publisher unavailable, notifications disabled: %v", err)
	} else {
		publisher = redisPublisher
		log.Println("Redis notification publisher connected")
	}

	// Wire up services
	tableService := services.NewTableService(db)
	orderService := services.NewOrderService(db, tableService, publisher)
	kitchenService := services.NewKitchenService(db, orderService, publisher)
	paymentService := services.NewPaymentService(db, orderService, publisher)
	reservationService := services.NewReservationService(db, tableService)

	orderController := controllers.NewOrderController(orderService)
	kitchenController := controllers.NewKitchenController(kitchenService)
	paymentController := controllers.NewPaymentController(paymentService)
	tableController := controllers.NewTableController(tableService)
	reservationController := controllers.NewReservationController(reservationService)

	// Initialize Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		authed := v1.Group("")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			// Staff profiles
			authed.POST("/users", controllers.CreateUser)
			authed.GET("/users/me", controllers.GetCurrentUser)
			authed.PATCH("/users/me", controllers.UpdateCurrentUser)
			authed.PATCH("/users/:id/role", controllers.SetUserRole)

			// Menu
			authed.GET("/menu", controllers.ListMenuItems)
			authed.GET("/menu/:id", controllers.GetMenuItem)
			authed.POST("/menu", controllers.CreateMenuItem)
			authed.PATCH("/menu/:id", controllers.UpdateMenuItem)
			authed.DELETE("/menu/:id", controllers.DeleteMenuItem)
			authed.POST("/menu/:id/image", controllers.UploadMenuItemImage)

			// Orders
			authed.POST("/orders", orderController.Create)
			authed.GET("/orders", orderController.List)
			authed.GET("/orders/:id", orderController.Get)
			authed.PATCH("/orders/:id/status", orderController.UpdateStatus)
			authed.DELETE("/orders/:id", orderController.Delete)

			// Kitchen
			authed.GET("/kitchen/queue", kitchenController.Queue)
			authed.PATCH("/kitchen/items/:id/status", kitchenController.AdvanceItem)

			// Payments
			authed.POST("/payments", paymentController.Process)
			authed.GET("/payments/settleable", paymentController.Settleable)
			authed.GET("/payments/history", paymentController.History)

			// Tables
			authed.GET("/tables", tableController.List)
			authed.POST("/tables", tableController.Create)
			authed.PATCH("/tables/:id", tableController.Update)
			authed.PATCH("/tables/:id/status", tableController.UpdateStatus)
			authed.DELETE("/tables/:id", tableController.Deactivate)

			// Reservations
			authed.GET("/reservations", reservationController.List)
			authed.POST("/reservations", reservationController.Create)
			authed.PATCH("/reservations/:id/status", reservationController.UpdateStatus)

			// Dashboard
			authed.GET("/dashboard/summary", controllers.GetDashboardSummary)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comanda API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
