package main

import (
	"log"
	"os"

	"github.com/aussiebroadwan/gatehouse/internal/idp/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Printf("gatehouse init failed: %v", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Printf("gatehouse exited: %v", err)
		os.Exit(1)
	}
}
