package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vitalog/internal/baas"
	"vitalog/internal/config"
	"vitalog/internal/kvstore"
	"vitalog/internal/localstore"
	"vitalog/internal/logging"
	"vitalog/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting vitalog sync daemon...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (data dir: %s)", cfg.DataDir)

	if cfg.BaaSURL == "" || cfg.BaaSAnonKey == "" {
		log.Fatal("❌ BAAS_URL and BAAS_ANON_KEY environment variables are required")
	}

	// Open the local key-value store
	store, err := kvstore.Open(kvstore.DefaultConfig(cfg.DataDir))
	if err != nil {
		log.Fatalf("❌ Failed to open local store: %v", err)
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	metrics := services.InitMetrics()

	// Local history caches
	heartRateStore := localstore.NewHeartRateStore(store, clock, cfg.HeartRateCap, nil)
	dietStore := localstore.NewDietStore(store, clock, cfg.DietCap, nil)

	// Backend client and services
	client := baas.New(cfg.BaaSURL, cfg.BaaSAnonKey)
	authService := services.NewAuthService(client, nil)
	dietService := services.NewDietService(dietStore, client, authService, metrics, nil)
	weatherService := services.NewWeatherService(cfg.WeatherURL, cfg.WeatherTTL, clock, metrics, nil)

	// Heart-rate readings are recorded through the app API; the daemon only
	// keeps the history compacted by loading it once at startup, which also
	// triggers the one-time legacy migration.
	if latest, ok := heartRateStore.LatestWithin(24 * time.Hour); ok {
		log.Printf("💓 Last heart-rate reading: %d bpm at %s", latest.BPM, latest.MeasuredAt.Format("2006-01-02 15:04"))
	}

	// Crash reporting (optional)
	crashReporter := services.NewCrashReporter(cfg.CrashEndpoint, cfg.CrashAPIKey, metrics, nil)
	crashReporter.Start()
	defer crashReporter.Stop()

	// Background jobs
	scheduler, err := services.NewSchedulerService(
		dietService, weatherService, cfg.HomeLatitude, cfg.HomeLongitude, nil)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if err := scheduler.Start(cfg.SyncInterval, cfg.WeatherInterval); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("📊 Metrics listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("⚠️  Metrics server stopped: %v", err)
		}
	}()

	log.Println("✅ Sync daemon started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("⏹️  Received %v, shutting down...", sig)
}
