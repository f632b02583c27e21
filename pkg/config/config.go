package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Rates holds the tax and service-charge rates used by each pricing call site.
// The three tax rates differ on purpose; they are not unified.
type Rates struct {
	Customer      float64 // customer self-service orders
	Waiter        float64 // waiter-assisted orders
	Bill          float64 // bill generation
	ServiceCharge float64 // optional, applied on bills only
}

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	Environment string

	// Store: postgres, firestore or memory
	StoreDriver string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret    string
	JWTExpiresIn string

	// Session
	SessionSecret string

	// Firebase
	FirebaseProjectID string
	FirebaseAuth      string

	// Razorpay
	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	// Security
	CookieSecure string

	// GCP Storage
	GCPProjectID                 string
	GCPBucketName                string
	GoogleApplicationCredentials string

	// Notifications
	FCMTopic string

	// Staff
	StaffEmailDomain string
	TOTPIssuer       string

	// Pricing
	Rates Rates

	// Allowed Origins
	AllowedOrigins string
}

var AppConfig *Config

// LoadConfig loads environment variables into Config struct
func LoadConfig() *Config {
	// Load .env file if it exists (optional in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	AppConfig = cfg
	log.Println("✅ Configuration loaded successfully")
	return cfg
}

// FromEnv builds a Config from the process environment and validates it
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                         getEnv("PORT", "5500"),
		Environment:                  getEnv("APP_ENV", "development"),
		StoreDriver:                  getEnv("STORE_DRIVER", "postgres"),
		DatabaseURL:                  getEnv("DATABASE_URL", ""),
		JWTSecret:                    getEnv("JWT_SECRET", ""),
		JWTExpiresIn:                 getEnv("JWT_EXPIRES_IN", "7d"),
		SessionSecret:                getEnv("SESSION_SECRET", "change-me"),
		FirebaseProjectID:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAuth:                 getEnv("FIREBASE_AUTH", "false"),
		RazorpayKeyID:                getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:            getEnv("RAZORPAY_KEY_SECRET", ""),
		Currency:                     getEnv("CURRENCY", "INR"),
		CookieSecure:                 getEnv("COOKIE_SECURE", "false"),
		GCPProjectID:                 getEnv("GCP_PROJECT_ID", ""),
		GCPBucketName:                getEnv("GCP_BUCKET_NAME", ""),
		GoogleApplicationCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		FCMTopic:                     getEnv("FCM_TOPIC", "orders"),
		StaffEmailDomain:             getEnv("STAFF_EMAIL_DOMAIN", "staff.restaurant.local"),
		TOTPIssuer:                   getEnv("TOTP_ISSUER", "Restaurant OMS"),
		AllowedOrigins:               getEnv("ALLOWED_ORIGINS", ""),
	}

	var err error
	if cfg.Rates, err = loadRates(); err != nil {
		return nil, err
	}

	// Validate required config
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "firestore":
		if cfg.FirebaseProjectID == "" {
			return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore store")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func loadRates() (Rates, error) {
	var r Rates
	var err error
	if r.Customer, err = getEnvFloat("TAX_RATE_CUSTOMER", 0.10); err != nil {
		return r, err
	}
	if r.Waiter, err = getEnvFloat("TAX_RATE_WAITER", 0.18); err != nil {
		return r, err
	}
	if r.Bill, err = getEnvFloat("TAX_RATE_BILL", 0.05); err != nil {
		return r, err
	}
	if r.ServiceCharge, err = getEnvFloat("SERVICE_CHARGE_RATE", 0); err != nil {
		return r, err
	}
	return r, nil
}

// DefaultRates returns the rates used when nothing is configured
func DefaultRates() Rates {
	return Rates{Customer: 0.10, Waiter: 0.18, Bill: 0.05}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f >= 1 {
		return 0, fmt.Errorf("%s must be a rate between 0 and 1, got %q", key, value)
	}
	return f, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == ""
}

// FirebaseAuthEnabled reports whether staff accounts are mirrored to Firebase Auth
func (c *Config) FirebaseAuthEnabled() bool {
	return c.FirebaseAuth == "true"
}

// IsProduction returns true if the loaded config runs in production mode
func IsProduction() bool {
	return AppConfig != nil && AppConfig.IsProduction()
}

// IsDevelopment returns true if the loaded config runs in development mode
func IsDevelopment() bool {
	return AppConfig == nil || AppConfig.IsDevelopment()
}
