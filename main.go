package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parktrackerapi/handlers"
	"parktrackerapi/internal/cache"
	"parktrackerapi/internal/database"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/middleware"
	"parktrackerapi/services"
)

var (
	dbPool              *pgxpool.Pool
	redisCache          *cache.Cache
	userService         *services.UserService
	parkService         *services.ParkService
	activityService     *services.ActivityService
	gamificationService *services.GamificationService
	garminService       *services.GarminService
	fitnessService      *services.FitnessService
	recreationService   *services.RecreationService
	engine              *gamification.Engine
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(dbURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var err error
	dbPool, err = database.Connect(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("Successfully connected to Postgres")

	redisCache, err = cache.New(ctx, os.Getenv("REDIS_URL"))
	if err != nil {
		log.Printf("Warning: Could not connect to Redis, caching disabled: %v", err)
		redisCache = nil
	} else if redisCache != nil {
		log.Println("Redis cache initialized")
	}

	userService = services.NewUserService(dbPool)
	parkService = services.NewParkService(dbPool)
	activityService = services.NewActivityService(dbPool)
	gamificationService = services.NewGamificationService(dbPool)
	garminService = services.NewGarminService()
	fitnessService = services.NewFitnessService(dbPool, garminService)
	recreationService = services.NewRecreationService()
	engine = gamification.NewEngine(gamificationService)

	parksFile := os.Getenv("PARKS_DATA_FILE")
	if parksFile == "" {
		parksFile = "./scripts/parks_data.json"
	}
	if err := parkService.SeedParksFromFile(ctx, parksFile); err != nil {
		log.Printf("Warning: Could not seed parks: %v", err)
	}
	if err := gamificationService.SeedBadges(ctx); err != nil {
		log.Printf("Warning: Could not seed badges: %v", err)
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
		if err := redisCache.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	parkHandler := handlers.NewParkHandler(parkService)
	activityHandler := handlers.NewActivityHandler(activityService, engine)
	gamificationHandler := handlers.NewGamificationHandler(engine, gamificationService, redisCache)
	fitnessHandler := handlers.NewFitnessHandler(fitnessService, activityService, garminService, engine)
	campgroundHandler := handlers.NewCampgroundHandler(recreationService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok", "service": "parktracker-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Users
	api.HandleFunc("/users", userHandler.CreateUser).Methods("POST")
	api.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	api.HandleFunc("/users/email/{email}", userHandler.GetUserByEmail).Methods("GET")
	api.HandleFunc("/users/{userID}", userHandler.GetUser).Methods("GET")
	api.HandleFunc("/users/{userID}", userHandler.DeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{userID}/profile", userHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/users/{userID}/public-profile", userHandler.GetPublicProfile).Methods("GET")

	// Parks, trails, campsites
	api.HandleFunc("/parks", parkHandler.CreatePark).Methods("POST")
	api.HandleFunc("/parks", parkHandler.ListParks).Methods("GET")
	api.HandleFunc("/parks/{parkID}", parkHandler.GetPark).Methods("GET")
	api.HandleFunc("/parks/{parkID}/trails", parkHandler.CreateTrail).Methods("POST")
	api.HandleFunc("/parks/{parkID}/trails", parkHandler.ListTrails).Methods("GET")
	api.HandleFunc("/parks/{parkID}/campsites", parkHandler.CreateCampsite).Methods("POST")
	api.HandleFunc("/parks/{parkID}/campsites", parkHandler.ListCampsites).Methods("GET")

	// Activity log
	api.HandleFunc("/users/{userID}/visits", activityHandler.LogVisit).Methods("POST")
	api.HandleFunc("/users/{userID}/visits", activityHandler.GetVisits).Methods("GET")
	api.HandleFunc("/users/{userID}/visits/{visitID}", activityHandler.DeleteVisit).Methods("DELETE")
	api.HandleFunc("/users/{userID}/hikes", activityHandler.LogHike).Methods("POST")
	api.HandleFunc("/users/{userID}/hikes", activityHandler.GetHikes).Methods("GET")
	api.HandleFunc("/users/{userID}/camping", activityHandler.LogCampingTrip).Methods("POST")
	api.HandleFunc("/users/{userID}/camping", activityHandler.GetCampingTrips).Methods("GET")
	api.HandleFunc("/users/{userID}/sightings", activityHandler.LogSighting).Methods("POST")
	api.HandleFunc("/users/{userID}/sightings", activityHandler.GetSightings).Methods("GET")
	api.HandleFunc("/users/{userID}/wishlist", activityHandler.AddToWishlist).Methods("POST")
	api.HandleFunc("/users/{userID}/wishlist", activityHandler.GetWishlist).Methods("GET")
	api.HandleFunc("/users/{userID}/wishlist/{campsiteID}", activityHandler.UpdateWishlistItem).Methods("PUT")
	api.HandleFunc("/users/{userID}/wishlist/{campsiteID}", activityHandler.RemoveFromWishlist).Methods("DELETE")

	// Passport and stats
	api.HandleFunc("/users/{userID}/passport", activityHandler.GetPassport).Methods("GET")
	api.HandleFunc("/users/{userID}/stats", activityHandler.GetUserStats).Methods("GET")

	// Gamification
	api.HandleFunc("/users/{userID}/achievements", gamificationHandler.GetAchievements).Methods("GET")
	api.HandleFunc("/users/{userID}/challenges", gamificationHandler.GetUserChallenges).Methods("GET")
	api.HandleFunc("/users/{userID}/streaks", gamificationHandler.TrackStreak).Methods("POST")
	api.HandleFunc("/challenges", gamificationHandler.ListActiveChallenges).Methods("GET")
	api.HandleFunc("/leaderboard", gamificationHandler.GetLeaderboard).Methods("GET")

	// Fitness trackers
	api.HandleFunc("/users/{userID}/fitness-auth/{trackerType}", fitnessHandler.ConnectTracker).Methods("POST")
	api.HandleFunc("/users/{userID}/fitness-auth/{trackerType}/disconnect", fitnessHandler.DisconnectTracker).Methods("POST")
	api.HandleFunc("/users/{userID}/fitness-trackers", fitnessHandler.ListConnectedTrackers).Methods("GET")
	api.HandleFunc("/users/{userID}/sync-fitness/{trackerType}", fitnessHandler.SyncTracker).Methods("POST")
	api.HandleFunc("/users/{userID}/sync-logs", fitnessHandler.GetSyncLogs).Methods("GET")

	// Garmin OAuth and import
	api.HandleFunc("/users/{userID}/garmin/auth-url", fitnessHandler.GarminAuthURL).Methods("GET")
	api.HandleFunc("/users/{userID}/garmin/token", fitnessHandler.GarminExchangeToken).Methods("POST")
	api.HandleFunc("/users/{userID}/garmin/status", fitnessHandler.GarminStatus).Methods("GET")
	api.HandleFunc("/users/{userID}/garmin/import", fitnessHandler.GarminImport).Methods("POST")
	api.HandleFunc("/users/{userID}/garmin/disconnect", fitnessHandler.GarminDisconnect).Methods("DELETE")

	// Recreation.gov campground availability
	api.HandleFunc("/campgrounds/search", campgroundHandler.SearchCampgrounds).Methods("GET")
	api.HandleFunc("/campgrounds/{campgroundID}/availability", campgroundHandler.GetAvailability).Methods("GET")
	api.HandleFunc("/campgrounds/{campgroundID}/available-dates", campgroundHandler.GetAvailableDates).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8001"
	}

	// Garmin imports can run long, so the write timeout is generous.
	server := http.Server{
		Addr:         ":" + port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
