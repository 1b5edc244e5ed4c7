package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"filterflix/api"
	"filterflix/config"
	"filterflix/handlers"
	"filterflix/services/accounts"
	"filterflix/services/catalog"
	"filterflix/services/sessions"
)

func main() {
	configFlag := flag.String("config", "", "path to settings.json")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("FilterFlix backend starting...")

	// Determine config path (flag, env or default)
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("FILTERFLIX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Standard log goes to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	accountsSvc, err := accounts.NewService(settings.Accounts.Directory)
	if err != nil {
		log.Fatalf("failed to initialise accounts: %v", err)
	}
	sessionsSvc := sessions.NewService(time.Duration(settings.Sessions.TTLMinutes) * time.Minute)

	sources := make([]catalog.Source, 0, len(settings.Catalog.Sources))
	for _, src := range settings.Catalog.Sources {
		location := settings.Catalog.ResolveLocation(src)
		if location == "" {
			continue
		}
		sources = append(sources, catalog.Source{Service: src.Service, Location: location})
	}
	catalogSvc := catalog.NewService(sources, time.Duration(settings.Catalog.LoadTimeoutSeconds)*time.Second)

	// Warm the index so the first search does not pay the load cost. Failures
	// here are not fatal; the next request retries the load.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Duration(settings.Catalog.LoadTimeoutSeconds)*time.Second)
		defer cancel()
		if err := catalogSvc.EnsureLoaded(ctx); err != nil {
			log.Printf("[catalog] warm-up load failed: %v", err)
		}
	}()

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	favoritesHandler := handlers.NewFavoritesHandler(accountsSvc)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc)

	r := mux.NewRouter()
	api.Register(r, authHandler, favoritesHandler, catalogHandler, sessionsSvc)

	// Root endpoint lists the API surface
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": "FilterFlix Backend API",
			"endpoints": map[string]string{
				"test":      "/api/test",
				"register":  "/api/register",
				"login":     "/api/login",
				"logout":    "/api/logout",
				"search":    "/api/movies/search",
				"genres":    "/api/genres",
				"services":  "/api/services",
				"stats":     "/api/stats",
				"favorites": "/api/user/{username}/favorites",
				"refresh":   "/api/catalog/refresh",
			},
		})
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
