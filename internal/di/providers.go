package di

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/handler/api"
	mid "MarketPulse/internal/middleware"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/summarizer"
	"MarketPulse/internal/stream"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/queue"
	"MarketPulse/pkg/server"
)

// ProvideLogger creates the application logger with an error collector
// attached so /health can report the recent error tail.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lgr, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}
	lgr.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
	})
	return lgr, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesStore creates the in-memory observation store.
func ProvideSeriesStore(cfg *config.Config) repository.SeriesStore {
	var opts []internalrepo.MemoryOption
	if cfg.Series.MaxPerAsset > 0 {
		opts = append(opts, internalrepo.WithMaxPerAsset(cfg.Series.MaxPerAsset))
	}
	return internalrepo.NewMemorySeriesStore(opts...)
}

// ProvideAlertStore creates the in-memory alert rule store.
func ProvideAlertStore() repository.AlertStore {
	return internalrepo.NewMemoryAlertStore()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (asset String, at DateTime64(3), value Float64) ENGINE=MergeTree ORDER BY (asset, at)", table),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the observation archive, or nil without ClickHouse.
func ProvideArchive(chClient *pkgch.Client, cfg *config.Config) repository.Archive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseArchive(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideTickPublisher creates the Kafka relay publisher, or nil.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the relay consumer, or nil when relay mode
// is off.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Relay {
		return nil, nil
	}

	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTicksHandler handles relayed ticks off the Kafka topic.
func ProvideKafkaTicksHandler(store repository.SeriesStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRedisCache creates the Redis cache client, or nil when redis is
// disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	return cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideSummaryCache picks the summary cache backend: layered over Redis
// when available, in-memory otherwise.
func ProvideSummaryCache(rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(rc)
	}
	return cache.NewMemoryCache()
}

// ProvideQueue creates the Redis notification queue, or nil without Redis.
func ProvideQueue(lgr *applogger.Logger, rc *cache.RedisCache) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 3,
		RetryDelay: 10 * time.Second,
	}, rc.Client(), queue.ModeProducerConsumer)
}

// ProvideNotifyService exposes the queue as a publish interface. Returns
// a nil interface (not a typed nil) when the queue is absent.
func ProvideNotifyService(rq *queue.RedisQueue) queue.QueueService {
	if rq == nil {
		return nil
	}
	return rq
}

// ProvideAlertNotifierJob creates the triggered-alert queue job.
func ProvideAlertNotifierJob(lgr *applogger.Logger) *usecase.AlertNotifierJob {
	return usecase.NewAlertNotifierJob(lgr)
}

// ProvideSummarizer creates the summarization client. Returns a nil
// interface when no URL is configured so callers can detect absence.
func ProvideSummarizer(cfg *config.Config) domsvc.Summarizer {
	c := summarizer.New(cfg.Analytics.Summarizer.URL, cfg.Analytics.Summarizer.Timeout)
	if c == nil {
		return nil
	}
	return c
}

// ProvideTickProcessor creates the observation fan-out processor.
func ProvideTickProcessor(store repository.SeriesStore, pub repository.Publisher, archive repository.Archive, m repository.Metrics) *usecase.TickProcessor {
	return usecase.NewTickProcessor(store, pub, archive, m)
}

// ProvideIngestPipeline wraps the processor with validation, throttling,
// and retry buffering.
func ProvideIngestPipeline(proc *usecase.TickProcessor, m repository.Metrics, cfg *config.Config) *mid.IngestPipeline {
	var opts []mid.PipelineOption
	if cfg.Ingest.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Ingest.MaxRPS))
	}
	if cfg.Ingest.RetryBufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Ingest.RetryBufferSize))
	}
	return mid.NewIngestPipeline(proc, m, opts...)
}

// ProvideTickProducer creates the synthetic tick source, or nil when
// disabled.
func ProvideTickProducer(pipe *mid.IngestPipeline, m repository.Metrics, lgr *applogger.Logger, cfg *config.Config) *usecase.TickProducer {
	if !cfg.Producer.Enabled {
		return nil
	}
	return usecase.NewTickProducer(pipe, m, lgr,
		usecase.WithPriceRange(cfg.Producer.PriceMin, cfg.Producer.PriceMax),
		usecase.WithInterval(cfg.Producer.Interval),
		usecase.WithAssets(cfg.Producer.Assets),
	)
}

// ProvideSummaryAggregator creates the market summary use case.
func ProvideSummaryAggregator(store repository.SeriesStore, summ domsvc.Summarizer, lgr *applogger.Logger, sc cache.Service, cfg *config.Config) *usecase.SummaryAggregator {
	opts := []usecase.SummaryOption{
		usecase.WithWindowSize(cfg.Analytics.Window),
	}
	if ttl := cfg.Analytics.Summarizer.CacheTTL; ttl > 0 {
		opts = append(opts, usecase.WithSummaryCache(sc, ttl))
	}
	return usecase.NewSummaryAggregator(store, summ, lgr, opts...)
}

// ProvideAlertChecker creates the alert evaluation use case.
func ProvideAlertChecker(store repository.SeriesStore, alerts repository.AlertStore, m repository.Metrics, notify queue.QueueService) *usecase.AlertChecker {
	return usecase.NewAlertChecker(store, alerts, m, notify)
}

// ProvideBroadcaster creates the stream broadcaster.
func ProvideBroadcaster(store repository.SeriesStore, m repository.Metrics, lgr *applogger.Logger, cfg *config.Config) *stream.Broadcaster {
	return stream.NewBroadcaster(store, m, lgr,
		stream.WithPushInterval(cfg.Stream.Interval),
	)
}

// ProvideRoutes assembles all HTTP handlers.
func ProvideRoutes(
	lgr *applogger.Logger,
	store repository.SeriesStore,
	archive repository.Archive,
	pipe *mid.IngestPipeline,
	alerts repository.AlertStore,
	checker *usecase.AlertChecker,
	agg *usecase.SummaryAggregator,
	bcast *stream.Broadcaster,
) xhttp.Handler {
	health := api.NewHealthHandler(lgr, archive)
	market := api.NewMarketHandler(lgr, store, archive, pipe)
	alertsH := api.NewAlertsHandler(lgr, alerts, checker)
	summary := api.NewSummaryHandler(lgr, agg)
	streamH := api.NewStreamHandler(lgr, bcast)
	return api.NewRoutes(health, market, alertsH, summary, streamH)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	pipe *mid.IngestPipeline,
	producer *usecase.TickProducer,
	bcast *stream.Broadcaster,
	proc *usecase.TickProcessor,
	consumer *pkgkafka.Consumer,
	ticks *usecase.KafkaTicksHandler,
	rq *queue.RedisQueue,
	notifier *usecase.AlertNotifierJob,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, lgr, pipe, producer, bcast, proc, consumer, ticks, rq, notifier, chClient, handler)
}
