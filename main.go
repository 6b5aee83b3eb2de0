package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"checkin-server-go/config"
	"checkin-server-go/db"
	"checkin-server-go/handlers"
	"checkin-server-go/printer"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Initialize Redis Client
	redisClient, err := db.InitializeRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer redisClient.Close()

	kv := db.NewRedisKV(redisClient)
	settings := db.NewSettingsStore(kv, cfg.Defaults)

	// Create API Handler (injecting the stores and the print bridge client)
	apiHandler := handlers.NewAPIHandler(kv, settings, printer.NewClient(cfg.PrintEndpoint))
	router := handlers.SetupRouter(apiHandler)

	log.Printf("Starting server on port %s (print bridge %s)", cfg.Port, cfg.PrintEndpoint)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
