package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/stream"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle. Optional components
// (producer, kafka relay, queue, clickhouse) are nil when disabled in
// config; Run and shutdown skip them.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	pipeline    *mid.IngestPipeline
	producer    *usecase.TickProducer
	broadcaster *stream.Broadcaster
	processor   *usecase.TickProcessor
	consumer    *pkgkafka.Consumer
	ticks       *usecase.KafkaTicksHandler
	queue       *queue.RedisQueue
	notifier    *usecase.AlertNotifierJob
	chClient    *pkgch.Client
	handler     xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	pipeline *mid.IngestPipeline,
	producer *usecase.TickProducer,
	broadcaster *stream.Broadcaster,
	processor *usecase.TickProcessor,
	consumer *pkgkafka.Consumer,
	ticks *usecase.KafkaTicksHandler,
	rq *queue.RedisQueue,
	notifier *usecase.AlertNotifierJob,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		pipeline:    pipeline,
		producer:    producer,
		broadcaster: broadcaster,
		processor:   processor,
		consumer:    consumer,
		ticks:       ticks,
		queue:       rq,
		notifier:    notifier,
		chClient:    chClient,
		handler:     handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.pipeline.Start(ctx)

	if a.producer != nil {
		a.producer.Start(ctx)
		a.logger.Info("tick producer started",
			applogger.Strings("assets", a.cfg.Producer.Assets),
			applogger.Duration("interval", a.cfg.Producer.Interval))
	}

	if a.consumer != nil && a.ticks != nil {
		a.consumer.RegisterHandler(a.ticks)
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer start failed", applogger.Error(err))
			return err
		}
		a.logger.Info("kafka relay consumer started", applogger.String("topic", a.ticks.Topic()))
	}

	if a.queue != nil {
		if a.notifier != nil {
			a.queue.RegisterJob(a.notifier)
		}
		if err := a.queue.Start(); err != nil {
			a.logger.Error("queue start failed", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start failed", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops components in reverse dependency order: sources first
// (producer, relay), then fan-out (broadcaster, pipeline), then the HTTP
// surface and external connections.
func (a *App) shutdown(ctx context.Context) error {
	if a.producer != nil {
		a.producer.Stop()
	}

	if a.broadcaster != nil {
		a.broadcaster.Shutdown()
	}

	a.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			return err
		}
	}

	a.processor.Close()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
