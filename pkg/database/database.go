package database

import (
	"fmt"
	"log"

	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// QuotedNamingStrategy wraps the default naming strategy and quotes all identifiers
// This ensures PostgreSQL uses case-sensitive column names as defined in the schema
type QuotedNamingStrategy struct {
	schema.NamingStrategy
}

// ColumnName quotes column names for PostgreSQL case-sensitivity
func (q QuotedNamingStrategy) ColumnName(table, column string) string {
	return fmt.Sprintf("\"%s\"", q.NamingStrategy.ColumnName(table, column))
}

// TableName quotes table names
func (q QuotedNamingStrategy) TableName(table string) string {
	return fmt.Sprintf("\"%s\"", q.NamingStrategy.TableName(table))
}

// JoinTableName quotes join table names
func (q QuotedNamingStrategy) JoinTableName(joinTable string) string {
	return fmt.Sprintf("\"%s\"", q.NamingStrategy.JoinTableName(joinTable))
}

// InitDatabase opens the PostgreSQL connection described by cfg
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		NamingStrategy: QuotedNamingStrategy{
			schema.NamingStrategy{
				SingularTable: false,
			},
		},
	}

	// Development mode - verbose logging
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		// Production mode - only errors
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	}

	// Connect to PostgreSQL with implicit prepared statements disabled
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	log.Println("✅ Database connection established")

	return db, nil
}

// AutoMigrate runs auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	err := db.AutoMigrate(
		// Menu & staff
		&models.MenuItem{},
		&models.Staff{},

		// Order lifecycle
		&models.Order{},
		&models.KitchenOrder{},
		&models.Bill{},
		&models.Counter{},

		// Feedback
		&models.Rating{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database migrations completed")

	createIndexes(db)

	return nil
}

// createIndexes creates indexes AutoMigrate does not derive from struct tags
func createIndexes(db *gorm.DB) {
	log.Println("🔄 Creating additional indexes...")

	db.Exec(`CREATE INDEX IF NOT EXISTS "Order_orderTime_idx" ON "Order"("orderTime")`)
	db.Exec(`CREATE INDEX IF NOT EXISTS "Order_status_idx" ON "Order"("status")`)
	db.Exec(`CREATE INDEX IF NOT EXISTS "Bill_generatedAt_idx" ON "Bill"("generatedAt")`)
	db.Exec(`CREATE INDEX IF NOT EXISTS "Rating_menuItemId_idx" ON "Rating"("menuItemId")`)

	log.Println("✅ Additional indexes created")
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database instance: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	} else {
		log.Println("✅ Database connection closed")
	}
}
