package tripservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"drive-hub/internal/broadcast"
	"drive-hub/internal/duty"
	"drive-hub/internal/general/config"
	"drive-hub/internal/general/jwt"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/general/postgres"
	"drive-hub/internal/general/rabbitmq"
	"drive-hub/internal/general/websocket"
	"drive-hub/internal/jobs"
	dutysvc "drive-hub/internal/software/duty/service"
	"drive-hub/internal/software/trip/handler"
	tripsvc "drive-hub/internal/software/trip/service"
	"drive-hub/internal/tripstate"

	"golang.org/x/sync/semaphore"
)

// Run wires the trip service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("trip-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ and declare the trip topology
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}

	// set up the RabbitMQ publisher
	pub := &rabbitmq.MQPublisher{Client: rmq}

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	tripRepo := postgres.NewTripRepo()
	draftRepo := postgres.NewDraftRepo()
	eventRepo := postgres.NewTripEventRepo()
	userRepo := postgres.NewUserRepo()
	sessionRepo := postgres.NewDutySessionRepo()

	// in-memory state: live trips, priced drafts, on-duty drivers, streams
	registry := tripstate.NewRegistry()
	drafts := tripstate.NewDraftStore()
	dutyReg := duty.NewRegistry(cfg.Trips.StreamBuffer)
	streams := broadcast.New(cfg.Trips.StreamBuffer)

	// set up the duty service
	dutyService := dutysvc.NewDutyService(logger, uow, userRepo, sessionRepo)

	// set up the trip service
	svc := tripsvc.NewTripService(
		logger, uow,
		tripRepo, draftRepo, eventRepo,
		dutyService, pub, rmq,
		registry, drafts, dutyReg, streams,
		cfg.Trips,
	)

	// set up the websocket stream handler
	ws := websocket.NewWebSocket(logger, jwtManager, pub, svc, dutyService, dutyReg, streams)

	// hydrate the registry and start the queue consumers
	svc.RunBackgroundConsumers(ctx)

	// schedule the expired-draft sweep
	sweeper := jobs.NewDraftSweeper(logger, uow, drafts, draftRepo, cfg.Trips.SweepInterval)
	if err := sweeper.Start(ctx); err != nil {
		logger.Error(ctx, "draft_sweeper_failed", "Failed to schedule draft sweeper", err, nil)
		return err
	}
	defer sweeper.Stop()

	// set up the HTTP handler and its routes
	mux := http.NewServeMux()
	httpHandler := handler.NewTripHTTPHandler(svc, logger, jwtManager, ws)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.TripServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// log service start
	logger.Info(ctx, "service_started",
		fmt.Sprintf("Trip Service started on port %d", cfg.Services.TripServicePort),
		map[string]any{"port": cfg.Services.TripServicePort, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.TripServicePort})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := semaphore.NewWeighted(int64(n))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// blocks until capacity frees up or the client gives up
		if err := sem.Acquire(r.Context(), 1); err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		defer sem.Release(1)
		next.ServeHTTP(w, r)
	})
}
