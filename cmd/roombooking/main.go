package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/navikt/roombooking/internal/api"
	"github.com/navikt/roombooking/internal/config"
	"github.com/navikt/roombooking/internal/events"
	"github.com/navikt/roombooking/internal/lock"
	"github.com/navikt/roombooking/internal/logging"
	"github.com/navikt/roombooking/internal/repository"
	redisrepo "github.com/navikt/roombooking/internal/repository/redis"
	"github.com/navikt/roombooking/internal/service"
	"github.com/navikt/roombooking/internal/web"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize the repository using the factory
	repo, err := repository.NewRepository(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Error closing repository", zap.Error(err))
		}
	}()

	// Admission locks live next to the data so that every replica sees them
	var locker lock.Locker
	if redisRepo, ok := repo.(*redisrepo.Repository); ok {
		locker = lock.NewRedisLocker(redisRepo.Client(), lock.RedisOptions{
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Booking.LockTTL,
			Wait:      cfg.Booking.LockWait,
		}, logger)
		logger.Info("Using Redis repository and admission locks")
	} else {
		locker = lock.NewMemoryLocker(cfg.Booking.LockWait)
		logger.Info("Using in-memory repository and admission locks")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
		logger.Info("Publishing booking events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Error closing event publisher", zap.Error(err))
		}
	}()

	// Initialize the service layer
	bookingService := service.NewBookingService(repo, locker, publisher, logger, cfg.Booking.GranularityMinutes)
	roomService := service.NewRoomService(repo, logger, service.RoomOptions{
		Granularity:   cfg.Booking.GranularityMinutes,
		OpeningMinute: cfg.Booking.OpeningMinute,
		ClosingMinute: cfg.Booking.ClosingMinute,
	})

	// Register the SSE update callback with the booking service
	stream := web.NewBookingStream(logger)
	bookingService.RegisterUpdateCallback(stream.NotifyBookingUpdate)

	router := api.SetupRoutes(api.Dependencies{
		Bookings:      bookingService,
		Rooms:         roomService,
		Store:         repo,
		Events:        stream,
		SubmitLimiter: api.NewRequesterLimiter(cfg.Booking.SubmitRatePerMinute, cfg.Booking.SubmitBurst, logger),
		Logger:        logger,
		Now:           time.Now,
	})

	// Configure the HTTP server
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     web.RequestLogger(logger, web.ProtocolMiddleware("/events", router)),
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout, SSE connections stay open
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting roombooking server", zap.String("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))

		// Close SSE connections first, they would otherwise hold Shutdown until the deadline
		stream.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			logger.Error("Error shutting down server", zap.Error(err))
			return
		}

		logger.Info("Server gracefully stopped")
	}
}
