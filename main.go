package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"gitalong_server/events"
	"gitalong_server/models"
	"gitalong_server/routes"
	"gitalong_server/services"
	"gitalong_server/socket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Pick the store backend. DynamoDB in production, in-memory for local runs.
	var store services.Store
	if os.Getenv("STORE") == "memory" {
		log.Println("ℹ️ Using in-memory store")
		store = services.NewMemoryStore()
	} else {
		log.Println("Initializing DynamoDB client...")
		dynamoClient := services.InitializeDynamoDBClient()
		store = &services.DynamoService{Client: dynamoClient}
		log.Println("DynamoDB client initialized.")
	}

	// Recommendation cache: Redis when configured, in-memory otherwise.
	cacheTTL := 5 * time.Minute
	var cache services.RecommendationCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := services.NewRedisRecommendationCache(redisURL, cacheTTL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable (%v), falling back to in-memory cache", err)
			cache = services.NewMemoryRecommendationCache(cacheTTL)
		} else {
			log.Println("✅ Connected to Redis recommendation cache")
			cache = redisCache
		}
	} else {
		cache = services.NewMemoryRecommendationCache(cacheTTL)
	}

	engineURL := os.Getenv("MATCHING_ENGINE_URL")
	if engineURL == "" {
		engineURL = "http://localhost:8000"
	}
	pushGatewayURL := os.Getenv("PUSH_GATEWAY_URL")
	if pushGatewayURL == "" {
		pushGatewayURL = "https://exp.host/--/api/v2/push"
	}

	// Event bus and realtime server
	bus := events.NewDispatcher()
	defer bus.Close()
	socketServer := socket.NewServer()

	// Initialize Services
	swipeService := &services.SwipeService{Store: store, Bus: bus}
	recommendationService := services.NewRecommendationService(engineURL, cache, swipeService)
	userProfileService := &services.UserProfileService{Store: store, Engine: recommendationService}
	matchService := &services.MatchService{Store: store, Swipes: swipeService, Profiles: userProfileService, Bus: bus}
	notificationService := &services.NotificationService{Store: store, Profiles: userProfileService, Bus: bus, Realtime: socketServer}
	pushService := &services.PushService{Store: store, Gateway: services.NewHTTPPushGateway(pushGatewayURL)}

	// Wire the pipeline: swipe -> match -> notification jobs -> push
	bus.Subscribe(models.EventSwipeCreated, matchService.HandleSwipeCreated)
	bus.Subscribe(models.EventSwipeCreated, notificationService.HandleSwipeCreated)
	bus.Subscribe(models.EventSwipeCreated, recommendationService.HandleSwipeCreated)
	bus.Subscribe(models.EventMatchCreated, notificationService.HandleMatchCreated)
	bus.Subscribe(models.EventJobCreated, pushService.HandleJobCreated)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to GitAlong")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Register routes
	routes.RegisterUserProfileRoutes(r, userProfileService)
	routes.RegisterSwipeRoutes(r, swipeService)
	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterRecommendationRoutes(r, recommendationService)

	// Socket.IO endpoint for realtime match notifications
	r.Handle("/socket.io/", socketServer.IO())
	go func() {
		if err := socketServer.IO().Serve(); err != nil {
			log.Printf("❌ Socket.IO server error: %v", err)
		}
	}()
	defer socketServer.IO().Close()

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-Id", "X-Email-Verified"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
