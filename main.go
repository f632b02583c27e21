package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restaurant_backend/pkg/auth"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/controllers/menu"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/routes"
	"restaurant_backend/pkg/services"

	firebase "firebase.google.com/go"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	ctx := context.Background()

	// Initialize Firebase (Firestore, FCM and Auth share the app)
	var app *firebase.App
	if cfg.FirebaseProjectID != "" || cfg.GoogleApplicationCredentials != "" {
		var err error
		if app, err = services.NewFirebaseApp(ctx, cfg); err != nil {
			log.Printf("⚠️  Warning: Firebase initialization failed: %v", err)
		} else {
			log.Println("✅ Firebase initialized successfully")
		}
	}

	// Initialize the record store
	db, err := services.OpenStore(ctx, cfg, app)
	if err != nil {
		log.Fatal("Failed to initialize store:", err)
	}
	defer db.Close()

	// Initialize FCM service
	var sender services.MessageSender
	if app != nil {
		if client, err := app.Messaging(ctx); err != nil {
			log.Printf("⚠️  Warning: FCM initialization failed: %v", err)
		} else {
			sender = client
			log.Println("✅ FCM initialized successfully")
		}
	}

	// Initialize GCP Storage service
	var images menu.ImageUploader
	if cfg.GCPBucketName != "" {
		imageStore, err := services.NewImageStore(ctx, cfg.GCPBucketName)
		if err != nil {
			log.Printf("⚠️  Warning: GCP Storage initialization failed: %v", err)
		} else {
			defer imageStore.Close()
			images = imageStore
			log.Println("✅ GCP Storage initialized successfully")
		}
	}

	// Initialize Razorpay service
	payments := services.NewPaymentGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.Currency)
	if payments.Enabled() {
		log.Println("✅ Razorpay initialized successfully")
	} else {
		log.Println("⚠️  Warning: Razorpay keys missing, online payments disabled")
	}

	// Staff accounts, optionally mirrored to Firebase Auth
	var authOpts []auth.Option
	if cfg.FirebaseAuthEnabled() && app != nil {
		if client, err := app.Auth(ctx); err != nil {
			log.Printf("⚠️  Warning: Firebase Auth initialization failed: %v", err)
		} else {
			authOpts = append(authOpts, auth.WithIdentityProvider(services.NewFirebaseIdentity(client)))
			log.Println("✅ Firebase Auth initialized successfully")
		}
	}
	authService := auth.NewService(db, auth.SettingsFromConfig(cfg), authOpts...)

	// Order lifecycle
	manager := orders.NewManager(db, cfg.Rates,
		orders.WithNotifier(services.NewOrderNotifier(sender, cfg.FCMTopic)),
	)
	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start order manager:", err)
	}
	defer manager.Stop()
	if n, err := manager.ReconcileKitchen(ctx); err != nil {
		log.Printf("⚠️  Warning: kitchen reconciliation failed: %v", err)
	} else if n > 0 {
		log.Printf("🔧 Reconciled %d kitchen ticket(s)", n)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize Gin router
	router := gin.Default()

	// Session middleware, holds the customer cart
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure == "true",
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("session", sessionStore))

	setupCORS(router, cfg)

	router.MaxMultipartMemory = 10 << 20 // 10 MB

	// Routes
	routes.Setup(router, routes.Dependencies{
		Config:   cfg,
		Store:    db,
		Orders:   manager,
		Auth:     authService,
		Images:   images,
		Payments: payments,
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server running in %s mode\n", cfg.Environment)
		log.Printf("📡 Server listening on http://localhost:%s\n", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

// setupCORS allows any origin in development and the configured list in production
func setupCORS(router *gin.Engine, cfg *config.Config) {
	defaultOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Range", "X-Content-Range"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if cfg.IsProduction() {
		allowOrigins := defaultOrigins
		if cfg.AllowedOrigins != "" {
			allowOrigins = parseOrigins(cfg.AllowedOrigins)
		}
		corsConfig.AllowOrigins = allowOrigins
		log.Printf("🔒 CORS enabled for origins: %v\n", allowOrigins)
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return true
		}
		log.Println("🔓 CORS enabled for all origins (development mode)")
	}

	router.Use(cors.New(corsConfig))
}

// parseOrigins splits comma-separated origin string
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
