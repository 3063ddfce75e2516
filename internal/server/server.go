package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/frikords/apiserver/config"
	"github.com/frikords/apiserver/internal/db"
	"github.com/frikords/apiserver/internal/handlers"
	"github.com/frikords/apiserver/internal/mq"
	"github.com/frikords/apiserver/internal/services"
	"github.com/frikords/apiserver/internal/storage"
	"github.com/frikords/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with its full dependency graph.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	events, err := mq.Connect(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)
	reactionRepo := store.NewReactionRepository(dbConn)
	roomRepo := store.NewRoomRepository(dbConn)
	friendRepo := store.NewFriendRepository(dbConn)
	dmRepo := store.NewDirectMessageRepository(dbConn)
	auditRepo := store.NewAuditRepository(dbConn)
	rateRepo := store.NewRateLimitRepository(dbConn)

	auditService := services.NewAuditService(auditRepo, events)
	limiter := services.NewRateLimiter(rateRepo)
	sessionTTL := time.Duration(cfg.Sessions.TTLDays) * 24 * time.Hour
	authService := services.NewAuthService(userRepo, sessionRepo, auditService, sessionTTL)
	messageService := services.NewMessageService(messageRepo, reactionRepo, roomRepo, userRepo, auditService)
	roomService := services.NewRoomService(roomRepo, friendRepo, auditService)
	friendService := services.NewFriendService(friendRepo, userRepo)
	dmService := services.NewDirectMessageService(dmRepo, friendRepo, userRepo)
	userService := services.NewUserService(userRepo, messageRepo, objects, cfg.Storage.PublicBaseURL)
	adminService := services.NewAdminService(userRepo, messageRepo, roomRepo, auditRepo, auditService)

	api := handlers.NewAPI(
		authService, messageService, roomService, friendService,
		dmService, userService, adminService, auditService, limiter,
	)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.CORS,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, auditService, limiter)
	})
	router.Handle("/api", api)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// newObjectStorage selects the avatar storage backend. Uploads are
// disabled when no backend is configured.
func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		s := storage.NewStorage(client)
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
