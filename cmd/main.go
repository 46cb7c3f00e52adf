package main

import (
	"log"

	_ "notification-feed/docs" // Import generated docs
	"notification-feed/internal/app"
)

// @title Notification Feed API
// @version 1.0
// @description Merged, cursor-paginated notification feed over local watch events and the aggregator API

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
