package main

import (
	"flag"
	"log"

	"tush00nka/chitchat/internal/app"
	"tush00nka/chitchat/internal/config"
)

func main() {
	envFile := flag.String("env", ".env", "path to the env file")
	flag.Parse()

	cfg, err := config.LoadMailer(*envFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if err := app.RunMailer(cfg); err != nil {
		log.Fatalf("Mailer error: %v", err)
	}
}
