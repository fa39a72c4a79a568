package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"chirp/api/middleware"
	"chirp/api/routes"
	"chirp/config"
	"chirp/db"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	// Redis and RabbitMQ are optimizations around the store; the server
	// still comes up without them, falling back to direct delivery.
	if err := services.InitRedis(); err != nil {
		log.Println("Warning: Redis initialization failed:", err)
	}
	defer services.CloseRedis()

	ctx := context.Background()
	if err := services.InitRabbitMQ(); err != nil {
		log.Println("Warning: RabbitMQ initialization failed, using direct WebSocket delivery:", err)
	} else {
		defer services.CloseRabbitMQ()
		if err := services.StartUserEventConsumer(ctx, "chirp_push"); err != nil {
			log.Println("Warning: failed to start event consumer:", err)
		}
	}

	services.InitMailer()
	if err := services.InitMediaStore(); err != nil {
		panic("Failed to initialize media storage: " + err.Error())
	}

	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("chirp"))

	routes.PublicApi(router)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
