package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"mess_portal_backend/internal/database"
	"mess_portal_backend/internal/events"
	routerpkg "mess_portal_backend/internal/router"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	// Initialize Logger
	utils.InitLogger()

	// JWT secret must be set before any token is minted or checked
	utils.SetJWTSecret(utils.Getenv("JWT_SECRET", "dev-secret-change-me"))

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "mess_portal_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "mess_portal_password")
	dbName := utils.Getenv("DB_NAME", "mess_portal_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	// Initialize Database
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Change feed: in-process hub always runs; AMQP fan-out is opt-in.
	hub := events.NewHub()
	publishers := events.MultiPublisher{hub}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(amqpURL)
		if err != nil {
			utils.LogError(err, "Failed to connect to AMQP broker, continuing without it")
		} else {
			defer amqpPublisher.Close()
			publishers = append(publishers, amqpPublisher)
			utils.LogInfo("AMQP change feed enabled")
		}
	}

	// Setup all application routes
	dbConn := database.GetDB()
	routerpkg.Setup(engine, dbConn, hub, publishers)

	// Server port configuration
	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port, "configured_from_env": true})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
