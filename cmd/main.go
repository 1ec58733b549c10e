package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/auth"
	"github.com/ukydev/dumpster-logistics/internal/config"
	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/dispatch"
	"github.com/ukydev/dumpster-logistics/internal/geocode"
	"github.com/ukydev/dumpster-logistics/internal/handlers"
	"github.com/ukydev/dumpster-logistics/internal/location"
	"github.com/ukydev/dumpster-logistics/internal/middleware"
	"github.com/ukydev/dumpster-logistics/internal/models"
	"github.com/ukydev/dumpster-logistics/internal/scheduler"
)

// routerDeps holds what the HTTP API is built from.
type routerDeps struct {
	authService *auth.Service
	users       db.UserCollection
	clients     db.ClientCollection
	schedules   db.ScheduleCollection
	orders      db.ServiceOrderCollection
	resolver    *location.Resolver
	loc         *time.Location
	// trustedProxies may set X-Forwarded-For for rate limiting.
	trustedProxies []string
	// healthCheck reports whether backing services are reachable. Nil means
	// always healthy.
	healthCheck func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	authMW := middleware.NewAuthMiddleware(d.authService, d.users)
	limiter := middleware.NewRateLimitMiddleware(d.trustedProxies...)

	authHandler := handlers.NewAuthHandler(d.authService, d.users)
	locationHandler := handlers.NewLocationHandler(d.resolver)
	clientHandler := handlers.NewClientHandler(d.clients, d.resolver)
	scheduleHandler := handlers.NewScheduleHandler(d.schedules, d.clients, d.loc)
	orderHandler := handlers.NewServiceOrderHandler(d.orders)

	can := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(h)
	}
	strict := limiter.RateLimit(10, 60)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(d.healthCheck))

	mux.Handle("POST /api/auth/login", strict(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/register", strict(http.HandlerFunc(authHandler.Register)))
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	mux.Handle("GET /api/team", can(models.ActionViewTeam, authHandler.ListTeam))
	mux.Handle("POST /api/team", can(models.ActionManageTeam, authHandler.AddMember))
	mux.Handle("DELETE /api/team/{id}", can(models.ActionDeleteUser, authHandler.RemoveMember))

	mux.Handle("POST /api/locations/resolve", can(models.ActionResolveLocation, locationHandler.Resolve))

	mux.Handle("GET /api/clients", can(models.ActionViewClients, clientHandler.List))
	mux.Handle("POST /api/clients", can(models.ActionManageClients, clientHandler.Create))
	mux.Handle("GET /api/clients/{id}", can(models.ActionViewClients, clientHandler.Get))
	mux.Handle("PUT /api/clients/{id}", can(models.ActionManageClients, clientHandler.Update))
	mux.Handle("DELETE /api/clients/{id}", can(models.ActionManageClients, clientHandler.Delete))

	mux.Handle("GET /api/schedules", can(models.ActionViewSchedules, scheduleHandler.List))
	mux.Handle("POST /api/schedules", can(models.ActionManageSchedules, scheduleHandler.Create))
	mux.Handle("POST /api/schedules/preview", can(models.ActionViewSchedules, scheduleHandler.Preview))
	mux.Handle("GET /api/schedules/{id}", can(models.ActionViewSchedules, scheduleHandler.Get))
	mux.Handle("DELETE /api/schedules/{id}", can(models.ActionManageSchedules, scheduleHandler.Delete))

	mux.Handle("GET /api/service-orders", can(models.ActionViewOrders, orderHandler.List))
	mux.Handle("PATCH /api/service-orders/{id}/status", can(models.ActionUpdateOrders, orderHandler.UpdateStatus))

	return middleware.RequestLogger(limiter.RateLimit(300, 60)(authMW.Authenticate(mux)))
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.WithError(err).Warn("Health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}

func newPublisher(cfg *config.Config) dispatch.Publisher {
	if cfg.MQTTBroker == "" {
		log.Info("MQTT_BROKER not set, dispatch events are disabled")
		return dispatch.NopPublisher{}
	}
	publisher, err := dispatch.NewMQTTPublisher(dispatch.MQTTOptions{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Topic:    cfg.MQTTTopic,
	})
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, dispatch events are disabled")
		return dispatch.NopPublisher{}
	}
	return publisher
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	geocoder := geocode.NewClient(geocode.Options{
		BaseURL:           cfg.GeocoderURL,
		UserAgent:         cfg.GeocoderUserAgent,
		Timeout:           cfg.GeocoderTimeout,
		RequestsPerSecond: cfg.GeocoderRPS,
	})
	resolver := location.NewResolver(geocoder)
	loc := cfg.Location()

	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	clients := &db.MongoClientCollection{Collection: database.Collection(db.ClientsCollection)}
	schedules := &db.MongoScheduleCollection{Collection: database.Collection(db.SchedulesCollection)}
	orders := &db.MongoServiceOrderCollection{Collection: database.Collection(db.ServiceOrdersCollection)}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	sched := scheduler.New(schedules, clients, orders, publisher, loc)
	if err := sched.Start(ctx, cfg.SchedulerSpec); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	router := newRouter(routerDeps{
		authService:    authService,
		users:          users,
		clients:        clients,
		schedules:      schedules,
		orders:         orders,
		resolver:       resolver,
		loc:            loc,
		trustedProxies: cfg.TrustedProxies,
		healthCheck:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
}
