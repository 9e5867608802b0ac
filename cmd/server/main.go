package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"route-planner-service/internal/adapters/cache"
	"route-planner-service/internal/adapters/geo"
	"route-planner-service/internal/adapters/reasoning"
	"route-planner-service/internal/api"
	"route-planner-service/internal/config"
	"route-planner-service/internal/platform/db"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (Dify, Geoapify, geocode cache backends)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	difyKey := os.Getenv("DIFY_API_KEY")
	if strings.TrimSpace(difyKey) == "" {
		log.Fatal("DIFY_API_KEY is required")
	}
	geoKey := os.Getenv("GEOAPIFY_API_KEY")
	if strings.TrimSpace(geoKey) == "" {
		log.Fatal("GEOAPIFY_API_KEY is required")
	}

	geocodeCache, closeCache, err := openGeocodeCache()
	if err != nil {
		log.Fatal(err)
	}
	if closeCache != nil {
		defer closeCache()
	}

	reasoner, err := reasoning.NewDifyClient(
		difyKey,
		config.Get("DIFY_BASE_URL", ""),
		config.GetDuration("REASONING_TIMEOUT", 60*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}

	geoClient, err := geo.NewGeoapifyClient(
		geoKey,
		geocodeCache,
		config.GetDuration("GEO_TIMEOUT", 10*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}

	planner := &services.Orchestrator{
		Extractor: &services.IntentExtractor{Provider: reasoner},
		Resolver: &services.LocationResolver{
			Provider:    geoClient,
			FanOutLimit: config.GetInt("GEOCODE_FANOUT", 4),
		},
		Validator: &services.ConstraintValidator{},
		Computer: &services.RouteComputer{
			Provider:   geoClient,
			Reoptimize: config.GetBool("ROUTE_REOPTIMIZE", false),
		},
		Retry: services.RetryPolicy{
			MaxRetries:     config.GetInt("MAX_RETRIES", 3),
			InitialBackoff: config.GetDuration("RETRY_BACKOFF", 200*time.Millisecond),
			MaxBackoff:     config.GetDuration("RETRY_MAX_BACKOFF", 5*time.Second),
		},
		UnresolvedTolerance: config.GetFloat("UNRESOLVED_TOLERANCE", 0),
	}

	router := api.NewRouter(planner)

	port := config.Get("PORT", "8080")

	// Timeouts are tuned for cold-cache planning (two external APIs in sequence).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openGeocodeCache builds the configured geocode cache backend. The
// returned close function may be nil when there is nothing to release.
func openGeocodeCache() (ports.GeocodeCache, func(), error) {
	backend := config.Get("CACHE_BACKEND", "sqlite")

	switch backend {
	case "none":
		return nil, nil, nil

	case "sqlite":
		path := config.Get("SQLITE_PATH", "data/app.db")
		conn, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache %q: %w", path, err)
		}
		if err := cache.InitSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSqliteGeocodeCache(conn), func() { conn.Close() }, nil

	case "postgres":
		databaseURL := os.Getenv("DATABASE_URL")
		if strings.TrimSpace(databaseURL) == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres cache backend")
		}
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewSQLGeocodeCache(conn), func() { conn.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.Get("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       config.GetInt("REDIS_DB", 0),
		})
		ttl := config.GetDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour)
		return cache.NewRedisGeocodeCache(client, ttl), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", backend)
	}
}
