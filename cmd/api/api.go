package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/queue"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/ratelimiter"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/service"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/store/listing"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/store/mongo"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/store/redis"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/worker"
)

type application struct {
	config            config
	logger            *zap.SugaredLogger
	rateLimiter       ratelimiter.Limiter
	storage           *mongo.Storage
	sequences         *redis.SequenceStore
	broker            queue.Broker
	orderRepo         *listing.OrderRepository
	planRepo          *listing.PlanRepository
	paymentRepo       repo.PaymentRecordRepository
	notificationRepo  repo.NotificationRepository
	quotationRepo     repo.QuotationRepository
	transitionService *service.TransitionService
	initiationService *service.InitiationService
	statusService     *service.StatusService
	dispatchWorker    *worker.NotificationDispatchWorker
}

type config struct {
	addr            string
	env             string
	rateLimiter     ratelimiter.Config
	mongo           mongoConfig
	rabbitMQ        rabbitMQConfig
	redisAddr       string
	marketplace     marketplace.Config
	timezone        string
	deliveryHour    int
	notifyWebhook   string
	notifyProviders bool
}

type mongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type rabbitMQConfig struct {
	URL           string
	MaxRetries    int
	RetryDelay    time.Duration
	PrefetchCount int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.rateLimiterMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Post("/transactions/{transaction_id}/transition", app.transitionTransactionHandler)

		r.Post("/orders/{order_id}/plans/{plan_id}/transactions", app.initiateTransactionsHandler)
		r.Post("/orders/{order_id}/status/reconcile", app.reconcileOrderStatusHandler)
		r.Get("/orders/{order_id}/payment-records", app.listPaymentRecordsHandler)
		r.Get("/orders/{order_id}/quotations", app.listQuotationsHandler)

		r.Get("/users/{user_id}/notifications", app.listNotificationsHandler)
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// workers
	if app.dispatchWorker != nil {
		if err := app.dispatchWorker.Start(); err != nil {
			return fmt.Errorf("failed to start notification dispatch worker: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		if app.dispatchWorker != nil {
			app.dispatchWorker.Stop()
		}

		if app.storage != nil {
			if err := app.storage.Close(ctx); err != nil {
				app.logger.Errorw("error closing MongoDB", "error", err)
			} else {
				app.logger.Info("MongoDB connection closed gracefully")
			}
		}

		if app.sequences != nil {
			if err := app.sequences.Close(); err != nil {
				app.logger.Errorw("error closing Redis", "error", err)
			}
		}

		if app.broker != nil {
			if err := app.broker.Close(); err != nil {
				app.logger.Errorw("error closing RabbitMQ", "error", err)
			} else {
				app.logger.Info("RabbitMQ connection closed gracefully")
			}
		}

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server have started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

func (app *application) rateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
