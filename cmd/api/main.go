package main

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ctsr-api/config"
	"ctsr-api/middleware"
	"ctsr-api/routes"
)

func main() {
	log := config.GetLogger()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := config.InitDB()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Optional schema migration and lookup seeding
	if strings.EqualFold(os.Getenv("DB_AUTO_MIGRATE"), "true") {
		if err := config.AutoMigrate(db); err != nil {
			log.WithError(err).Fatal("Failed to migrate database schema")
		}
		log.Info("Database schema migrated")
	}

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(middleware.SecurityHeaders())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, db)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Info("Server starting")
	if strings.EqualFold(os.Getenv("AUTH_ENABLED"), "false") {
		log.Warn("Authentication disabled, all requests run as a mock admin")
	}

	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
