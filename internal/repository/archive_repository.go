package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// ClickHouseArchive implements Archive on a ClickHouse table. It is an
// optional long-horizon sink; the in-memory series store stays the source
// of truth for the live contracts.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates a ClickHouse-backed observation archive.
func NewClickHouseArchive(db *sql.DB, table string) domrepo.Archive {
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) StoreBatch(ctx context.Context, os []models.Observation) error {
	if len(os) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips; 2000 rows per chunk.
	const chunkSize = 2000
	for start := 0; start < len(os); start += chunkSize {
		end := start + chunkSize
		if end > len(os) {
			end = len(os)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, o := range os[start:end] {
			if o.Asset == "" || o.At.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, o.Asset, o.At, o.Value)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (asset, at, value) VALUES %s", a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (a *ClickHouseArchive) Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT asset, at, value FROM %s WHERE asset = ? AND at >= ? AND at <= ? ORDER BY at ASC LIMIT ?", a.table)
	rows, err := a.db.QueryContext(ctx, q, asset, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Asset, &o.At, &o.Value); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // connection pool is managed by pkg/clickhouse
}

// KafkaTickPublisher implements Publisher on a Kafka ticks topic, keyed by
// asset so one asset's observations stay ordered within a partition.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka observation publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, o models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Asset), map[string]interface{}{
		"asset": o.Asset,
		"t":     o.At.UnixMilli(),
		"v":     o.Value,
	})
}

func (p *KafkaTickPublisher) Close() error {
	return p.producer.Close()
}
