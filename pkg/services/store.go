package services

import (
	"context"
	"fmt"
	"log"

	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/database"
	"restaurant_backend/pkg/store"

	firebase "firebase.google.com/go"
)

// OpenStore connects the record store selected by STORE_DRIVER. app is only
// used by the firestore driver and may be nil otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, app *firebase.App) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		log.Println("🔌 Initializing database connection...")
		db, err := database.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			database.CloseDatabase(db)
			return nil, err
		}
		return store.NewGormStore(db), nil

	case "firestore":
		if app == nil {
			return nil, fmt.Errorf("firestore store needs a Firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		log.Println("✅ Firestore connection established")
		return store.NewFirestoreStore(client), nil

	case "memory":
		log.Println("⚠️  Using the in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
