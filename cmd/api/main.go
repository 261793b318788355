package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"
)

// @title           Pi Purchase Order API
// @version         1.0
// @description     Merchant backend for Pi-denominated purchase orders with signed payment webhooks.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Shared secret for verifying provider webhook signatures. Loaded once at
	// startup; never mutated at runtime.
	webhookSecret := os.Getenv("PI_WEBHOOK_SECRET")
	if webhookSecret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			log.Fatal("FATAL: PI_WEBHOOK_SECRET environment variable is required in production mode")
		}
		webhookSecret = "dev_webhook_secret" // Development fallback only — DO NOT use in production
	}

	merchantKeyHash := []byte(os.Getenv("MERCHANT_API_KEY_HASH"))
	if len(merchantKeyHash) == 0 {
		if os.Getenv("GIN_MODE") == "release" {
			log.Fatal("FATAL: MERCHANT_API_KEY_HASH environment variable is required in production mode")
		}
		merchantKeyHash, err = bcrypt.GenerateFromPassword([]byte("dev_merchant_key"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to derive development merchant key hash: %v", err)
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	orderRepo := repository.NewPurchaseOrderRepository(db, txManager)
	eventRepo := repository.NewWebhookEventRepository(db)

	orderService := service.NewOrderService(orderRepo)
	webhookService := service.NewWebhookService(orderRepo, eventRepo, wsHub, webhookSecret)
	authService := service.NewAuthService(merchantKeyHash, middleware.GetJWTSecret())

	// Initialize Handlers
	orderHandler := handler.NewPurchaseOrderHandler(orderService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	authHandler := handler.NewAuthHandler(authService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Merchant dashboard URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for live order status updates
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	webhookHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
