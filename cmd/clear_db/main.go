package main

import (
	"context"
	"flag"
	"log"

	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/services"

	firebase "firebase.google.com/go"
)

func main() {
	confirm := flag.Bool("yes", false, "confirm deleting all orders, kitchen tickets, bills and ratings")
	flag.Parse()

	if !*confirm {
		log.Fatal("Refusing to clear the database without -yes")
	}

	// Load configuration
	cfg := config.LoadConfig()
	ctx := context.Background()

	var app *firebase.App
	if cfg.StoreDriver == "firestore" {
		var err error
		if app, err = services.NewFirebaseApp(ctx, cfg); err != nil {
			log.Fatal("Failed to initialize Firebase:", err)
		}
	}

	db, err := services.OpenStore(ctx, cfg, app)
	if err != nil {
		log.Fatal("Failed to initialize store:", err)
	}
	defer db.Close()

	if err := db.Clear(ctx); err != nil {
		log.Fatal("Failed to clear database:", err)
	}

	log.Println("✅ Orders, kitchen tickets, bills and ratings cleared; order numbering reset")
}
