package handlers

import (
	"context"
	"net/http"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
	"realestate-backend/internal/hub"
	"realestate-backend/internal/jwt"
	"realestate-backend/internal/keyValue"
	"realestate-backend/internal/metrics"
	"realestate-backend/internal/models"
	"realestate-backend/internal/validator"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	playground "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const bcryptCost = 12

type Handler struct {
	cfg        *config.ConfigFile
	store      *database.Store
	tokens     *jwt.Issuer
	guard      *auth.Guard
	relay      *hub.Relay
	ws         *hub.Server
	keyValue   *keyValue.Store
	limiter    *RateLimiter
	validate   *playground.Validate
	sugar      *zap.SugaredLogger
	bcryptCost int
}

func New(cfg *config.ConfigFile, store *database.Store, tokens *jwt.Issuer, kv *keyValue.Store, relay *hub.Relay, sugar *zap.SugaredLogger) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      store,
		tokens:     tokens,
		guard:      auth.NewGuard(tokens, store, time.Duration(cfg.LookupTimeout), sugar),
		relay:      relay,
		ws:         hub.NewServer(relay, store, cfg.CorsOrigins, sugar),
		keyValue:   kv,
		limiter:    NewRateLimiter(cfg.AuthRateLimitRPM),
		validate:   validator.New(),
		sugar:      sugar,
		bcryptCost: bcryptCost,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if h.cfg.PrintHttpRequests {
		r.Use(RequestLogger(zap.NewStdLog(h.sugar.Desugar())))
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(Cors(h.cfg.CorsOrigins))

	r.Handle("/metrics", metrics.Handler())

	// outside the timeout, a websocket lives as long as the client stays connected
	r.With(h.guard.WebSocketVerifier).Get("/ws", h.HandleWebSocket)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Get("/health", h.Health)

		api.Route("/auth", func(r chi.Router) {
			r.With(h.limiter.Handler).Post("/register", h.Register)
			r.With(h.limiter.Handler).Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.guard.UserVerifier)
				r.Get("/me", h.Me)
				r.Get("/users", h.ListUsers)
				r.Get("/users/{id}", h.GetUser)
				r.With(auth.RequireRole(models.RoleAdmin)).Delete("/users/{id}", h.DeleteUser)
				r.With(auth.RequireRole(models.RoleAdmin)).Put("/users/{id}/role", h.SetUserRole)
			})
		})

		api.Route("/message", func(r chi.Router) {
			r.Use(h.guard.UserVerifier)
			r.Post("/messages", h.CreateMessage)
			r.Get("/messages", h.GetMessages)
			r.Delete("/messages/{id}", h.DeleteMessage)
			r.Get("/conversations/{userId}", h.GetConversations)
		})

		api.Route("/realestate", func(r chi.Router) {
			r.Get("/", h.ListListings)
			r.Get("/{id}", h.GetListing)

			r.Group(func(r chi.Router) {
				r.Use(h.guard.UserVerifier)
				r.Post("/add", h.AddListing)
				r.Post("/add-multiple", h.AddListings)
				r.Put("/update/{id}", h.UpdateListing)
				r.Delete("/delete/{id}", h.DeleteListing)
			})
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.DB().PingContext(ctx); err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": h.relay.Connections(),
	})
}
