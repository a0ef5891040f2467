package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/CianusDev/synkrone-backend-sub000/internal/appMiddleware"
	"github.com/CianusDev/synkrone-backend-sub000/internal/config"
	"github.com/CianusDev/synkrone-backend-sub000/internal/crypto"
	"github.com/CianusDev/synkrone-backend-sub000/internal/db"
	"github.com/CianusDev/synkrone-backend-sub000/internal/handlers"
	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage/memory"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage/postgres"
	"github.com/CianusDev/synkrone-backend-sub000/internal/ws"
)

type stores struct {
	conversations    storage.ConversationStore
	messages         storage.MessageStore
	media            storage.MediaStore
	messageMedia     storage.LinkStore
	deliverableMedia storage.LinkStore
	freelances       storage.ProfileStore
	companies        storage.ProfileStore
}

func main() {
	cfg := config.Load()

	st, cleanup, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer cleanup()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("Fan-out bridge enabled via Redis at %s", cfg.RedisAddr)
	}
	hub := ws.NewHub(rdb)

	cipher, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid MESSAGE_ENCRYPTION_KEY: %v", err)
	}

	directory := services.NewUserDirectory(st.freelances, st.companies)
	messaging := services.NewMessagingService(st.conversations, st.messages, st.media, st.messageMedia, directory, hub, cipher)
	mediaSvc := services.NewMediaService(st.media, st.messages, st.messageMedia, st.deliverableMedia)

	conversationHandler := handlers.NewConversationHandler(messaging)
	messageHandler := handlers.NewMessageHandler(messaging)
	mediaHandler := handlers.NewMediaHandler(mediaSvc)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.JWTSecret)

	r := chi.NewRouter()

	r.Use(appMiddleware.CorsMiddleware)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.AuthMiddleware(cfg.JWTSecret))

		r.Post("/api/conversations", conversationHandler.CreateOrGet)
		r.Get("/api/conversations", conversationHandler.List)
		r.Get("/api/conversations/{conversationID}/messages", conversationHandler.GetMessages)
		r.Post("/api/conversations/{conversationID}/read", conversationHandler.MarkAllRead)

		r.Post("/api/messages", messageHandler.Send)
		r.Post("/api/messages/{messageID}/read", messageHandler.MarkRead)
		r.Patch("/api/messages/{messageID}", messageHandler.Update)
		r.Delete("/api/messages/{messageID}", messageHandler.Delete)

		r.Post("/api/media", mediaHandler.Create)
		r.Get("/api/media", mediaHandler.List)
		r.Get("/api/media/{mediaID}", mediaHandler.Get)
		r.Patch("/api/media/{mediaID}", mediaHandler.Update)
		r.Delete("/api/media/{mediaID}", mediaHandler.Delete)

		r.Get("/api/messages/{messageID}/media", mediaHandler.ListForMessage)
		r.Post("/api/messages/{messageID}/media/{mediaID}", mediaHandler.AttachToMessage)
		r.Delete("/api/messages/{messageID}/media/{mediaID}", mediaHandler.DetachFromMessage)

		r.Get("/api/deliverables/{deliverableID}/media", mediaHandler.ListForDeliverable)
		r.Post("/api/deliverables/{deliverableID}/media/{mediaID}", mediaHandler.AttachToDeliverable)
		r.Delete("/api/deliverables/{deliverableID}/media/{mediaID}", mediaHandler.DetachFromDeliverable)
		r.Delete("/api/deliverables/{deliverableID}/media", mediaHandler.PurgeDeliverable)
	})

	r.Get("/ws", wsHandler.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server started on port %s\n", cfg.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %s\n", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Println("Stopping the server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %s\n", err)
	}
	log.Println("Server has been successfully stopped")
}

// buildStores wires postgres-backed stores when a database is configured and
// falls back to the in-memory implementations for local development.
func buildStores(cfg *config.Config) (*stores, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, using in-memory storage")
		return &stores{
			conversations:    memory.NewConversationStore(nil),
			messages:         memory.NewMessageStore(nil),
			media:            memory.NewMediaStore(nil),
			messageMedia:     memory.NewMessageMediaStore(nil),
			deliverableMedia: memory.NewDeliverableMediaStore(nil),
			freelances:       memory.NewProfileStore(),
			companies:        memory.NewProfileStore(),
		}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return &stores{
		conversations:    postgres.NewConversationStore(pool),
		messages:         postgres.NewMessageStore(pool),
		media:            postgres.NewMediaStore(pool),
		messageMedia:     postgres.NewMessageMediaStore(pool),
		deliverableMedia: postgres.NewDeliverableMediaStore(pool),
		freelances:       postgres.NewFreelanceStore(pool),
		companies:        postgres.NewCompanyStore(pool),
	}, pool.Close, nil
}
