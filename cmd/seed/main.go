package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"restaurant_backend/pkg/analytics"
	"restaurant_backend/pkg/auth"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/services"
	"restaurant_backend/pkg/store"

	firebase "firebase.google.com/go"
	"github.com/google/uuid"
)

var starterMenu = []models.MenuItem{
	{Name: "Masala Dosa", Description: "Rice crepe with spiced potato", Price: 120, Category: "Mains", PrepTime: 15},
	{Name: "Paneer Tikka", Description: "Chargrilled cottage cheese", Price: 220, Category: "Starters", PrepTime: 20},
	{Name: "Veg Biryani", Description: "Dum cooked basmati with vegetables", Price: 260, Category: "Mains", PrepTime: 25},
	{Name: "Filter Coffee", Description: "South Indian drip coffee", Price: 60, Category: "Beverages", PrepTime: 5},
	{Name: "Gulab Jamun", Description: "Two pieces, warm", Price: 90, Category: "Desserts", PrepTime: 5},
}

func main() {
	importFile := flag.String("import", "", "JSON file with legacy orders to import")
	adminPhone := flag.String("phone", "9000000000", "admin phone number")
	adminPassword := flag.String("password", "admin123", "admin password")
	flag.Parse()

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

	seedAdmin(ctx, db, cfg, *adminPhone, *adminPassword)
	seedMenu(ctx, db)

	if *importFile != "" {
		n, err := importOrders(ctx, db, *importFile)
		if err != nil {
			log.Fatal("Failed to import orders:", err)
		}
		log.Printf("✅ Imported %d order(s) from %s", n, *importFile)
	}
}

func seedAdmin(ctx context.Context, db store.Store, cfg *config.Config, phone, password string) {
	svc := auth.NewService(db, auth.SettingsFromConfig(cfg))

	if _, err := db.FindStaffByPhone(ctx, auth.NormalizePhone(phone)); err == nil {
		log.Printf("Admin %s already exists", phone)
		return
	}

	admin, err := svc.Register(ctx, auth.RegisterRequest{
		Name:     "Admin",
		Phone:    phone,
		Role:     models.RoleAdmin,
		Password: password,
	})
	if err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Printf("✅ Admin %s created successfully", admin.Email)
}

func seedMenu(ctx context.Context, db store.Store) {
	existing, err := db.ListMenuItems(ctx)
	if err != nil {
		log.Fatal("Failed to list menu:", err)
	}
	if len(existing) > 0 {
		log.Printf("Menu already has %d item(s)", len(existing))
		return
	}

	for _, item := range starterMenu {
		item.ID = uuid.NewString()
		item.Available = true
		if err := db.CreateMenuItem(ctx, &item); err != nil {
			log.Fatal("Failed to create menu item:", err)
		}
	}

	log.Printf("✅ %d menu items created successfully", len(starterMenu))
}

// timeFields are the order keys legacy exports wrote in mixed timestamp formats
var timeFields = []string{"orderTime", "completedTime"}

// importOrders loads an exported JSON array of orders. Timestamps may be ISO
// strings, epoch milliseconds or {"_seconds", "_nanoseconds"} objects.
func importOrders(ctx context.Context, db store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	imported := 0
	for i, record := range records {
		for _, key := range timeFields {
			raw, ok := record[key]
			if !ok || raw == nil {
				continue
			}
			t, err := analytics.ToInstant(raw)
			if err != nil {
				return imported, fmt.Errorf("order %d: %s: %w", i, key, err)
			}
			record[key] = t
		}

		data, err := json.Marshal(record)
		if err != nil {
			return imported, err
		}
		var order models.Order
		if err := json.Unmarshal(data, &order); err != nil {
			return imported, fmt.Errorf("order %d: %w", i, err)
		}
		if order.ID == "" {
			return imported, fmt.Errorf("order %d has no id", i)
		}

		if err := db.CreateOrder(ctx, &order, nil); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Printf("Order %s already exists, skipping", order.ID)
				continue
			}
			return imported, fmt.Errorf("order %s: %w", order.ID, err)
		}
		imported++
	}
	return imported, nil
}
