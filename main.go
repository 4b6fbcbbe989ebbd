package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/handlers"
	"github.com/taskgrid/taskgrid/services"
)

func main() {
	// Load environment variables from .env file
	err := services.LoadEnv(".env")
	if err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
		return
	}

	// Initialize database
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./taskgrid.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	store := database.NewStore(db)
	authService := services.NewAuthService()
	clickupClient := services.NewClickUpClient(os.Getenv("CLICKUP_API_KEY"))

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, store)
	taskHandler := handlers.NewTaskHandler(store, hub)
	columnHandler := handlers.NewColumnHandler(store, hub)
	userHandler := handlers.NewUserHandler(store)
	assistantHandler := handlers.NewAssistantHandler(store, clickupClient, hub)
	wsHandler := handlers.NewWSHandler(hub)
	authMiddleware := handlers.NewAuthMiddleware(authService, store)

	// Setup router
	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")
	r.HandleFunc("/api/auth/magic-link", authHandler.HandleMagicLink).Methods("GET")

	// Board routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PATCH", "PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	api.HandleFunc("/columns", columnHandler.List).Methods("GET")
	api.HandleFunc("/columns", columnHandler.Create).Methods("POST")
	api.HandleFunc("/columns/{id}", columnHandler.Update).Methods("PATCH", "PUT")
	api.HandleFunc("/columns/{id}", columnHandler.Delete).Methods("DELETE")

	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users", userHandler.Create).Methods("POST")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Update).Methods("PATCH", "PUT")

	api.HandleFunc("/assistant/sync", assistantHandler.SyncTask).Methods("POST")
	api.HandleFunc("/assistant/remote-tasks", assistantHandler.ListRemoteTasks).Methods("GET")

	// WebSocket route for real-time updates
	api.HandleFunc("/ws", wsHandler.Handle)

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./")))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
