package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
)

type Options struct {
	Port        string
	ServiceName string
	Lot         *parking.InstrumentedLot
	Users       *auth.Directory
	Issuer      *auth.Issuer
	Now         func() time.Time
}

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(opts Options) *Server {
	handler := NewHandler(opts.ServiceName, opts.Lot, opts.Users, opts.Issuer, opts.Now)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := newHTTPMetrics(registry)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(opts.ServiceName))
	r.Use(LoggingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(opts.Issuer))

			r.With(Require(parking.OpListUsers)).Get("/users", handler.ListUsers)

			r.Route("/parking-slots", func(r chi.Router) {
				r.With(Require(parking.OpListSlots)).Get("/", handler.ListSlots)
				r.With(Require(parking.OpListSlots)).Get("/{slotNumber}", handler.GetSlot)
				r.With(Require(parking.OpCheckIn)).Post("/{slotNumber}/check-in", handler.CheckIn)
				r.With(Require(parking.OpCheckOut)).Post("/{slotNumber}/check-out", handler.CheckOut)
			})

			r.With(Require(parking.OpListSlots)).Get("/vehicles/{plate}", handler.FindVehicle)

			r.With(Require(parking.OpListRates)).Get("/pricing", handler.ListRates)
			r.With(Require(parking.OpSetRate)).Put("/pricing/{vehicleType}", handler.SetRate)

			r.With(Require(parking.OpListTransactions)).Get("/transactions", handler.ListTransactions)

			r.Route("/reservations", func(r chi.Router) {
				r.With(Require(parking.OpListReservations)).Get("/", handler.ListReservations)
				r.With(Require(parking.OpCreateReservation)).Post("/", handler.CreateReservation)
				r.With(Require(parking.OpUpdateReservation)).Put("/{id}", handler.UpdateReservation)
			})
		})
	})

	httpServer := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

// Handler exposes the routed handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
