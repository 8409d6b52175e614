// @title Chitchat
// @version 0.1
// @description Accounts with email verification, friends and chat history. Live relay at /ws.

// @host localhost:8080
// @BasePath /api
// @query.collection.format multi
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"

	_ "tush00nka/chitchat/docs"
	"tush00nka/chitchat/internal/app"
	"tush00nka/chitchat/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if err := app.Run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
