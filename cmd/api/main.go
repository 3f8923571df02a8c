//	@title			Crestline Website API
//	@version		1.0
//	@description	Content-management backend for the Crestline public website.
//
//	@host		localhost:8080
//	@BasePath	/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/crestline/site/internal/blog"
	"github.com/crestline/site/internal/config"
	"github.com/crestline/site/internal/contact"
	"github.com/crestline/site/internal/db"
	appMiddleware "github.com/crestline/site/internal/middleware"
	"github.com/crestline/site/internal/newsletter"
	"github.com/crestline/site/internal/storage"
	"github.com/crestline/site/internal/team"
	"github.com/crestline/site/internal/uploads"

	_ "github.com/crestline/site/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	uploadsRepo := uploads.NewRepository(pool)
	uploadsSvc := uploads.NewService(uploadsRepo, store, cfg.UploadGrantTTL)
	uploadsHandler := uploads.NewHandler(uploadsSvc)

	blogRepo := blog.NewRepository(pool)
	blogSvc := blog.NewService(blogRepo)
	blogHandler := blog.NewHandler(blogSvc)

	teamHandler := team.NewHandler(team.NewRepository(pool))
	contactHandler := contact.NewHandler(contact.NewRepository(pool))
	newsletterHandler := newsletter.NewHandler(newsletter.NewRepository(pool))

	// Background sweep for expired upload grants. Commit decisions never
	// depend on its timing; it only bounds table growth.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go uploadsSvc.RunReaper(reaperCtx, cfg.ReapInterval)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Object serving. The /objects namespace is policy-evaluated (anonymous
	// allowed for public objects); /public-objects is a raw pass-through for
	// assets outside the managed namespace.
	r.With(appMiddleware.OptionalAuth(cfg.JWTSecret)).Get("/objects/*", uploadsHandler.ServeObject)
	r.Get("/public-objects/*", uploadsHandler.ServePublicObject)

	// API
	r.Route("/api", func(r chi.Router) {
		// Public website endpoints
		r.Get("/posts", blogHandler.ListPublished)
		r.Get("/posts/{slug}", blogHandler.GetBySlug)
		r.Get("/categories", blogHandler.ListCategories)
		r.Get("/team", teamHandler.List)
		r.Post("/contact", contactHandler.Submit)
		r.Post("/newsletter/subscribe", newsletterHandler.Subscribe)
		r.Post("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)

		// Upload grant + ownership commit (authenticated)
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/objects/upload", uploadsHandler.CreateUpload)
			r.Put("/featured-images", uploadsHandler.CommitFeaturedImage)
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/posts", blogHandler.ListAll)
			r.Post("/posts", blogHandler.Create)
			r.Put("/posts/{id}", blogHandler.Update)
			r.Delete("/posts/{id}", blogHandler.Delete)
			r.Post("/categories", blogHandler.CreateCategory)
			r.Delete("/categories/{id}", blogHandler.DeleteCategory)
			r.Post("/team", teamHandler.Create)
			r.Put("/team/{id}", teamHandler.Update)
			r.Delete("/team/{id}", teamHandler.Delete)
			r.Get("/contact", contactHandler.List)
			r.Delete("/contact/{id}", contactHandler.Delete)
			r.Get("/newsletter", newsletterHandler.List)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")
	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
