package logstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// ErrFailedToOpenDBConnection is returned when the PostgreSQL pool cannot
// be established within the configured retry budget.
var ErrFailedToOpenDBConnection = errors.New("logstore: failed to open database connection")

// PGConfig holds PostgreSQL store configuration.
type PGConfig struct {
	ConnectionString string        `env:"NOTIFY_LOG_DATABASE_URL,required"`
	RetryAttempts    int           `env:"NOTIFY_LOG_DB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval    time.Duration `env:"NOTIFY_LOG_DB_RETRY_INTERVAL" envDefault:"2s"`
}

// PGStore persists delivery records in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// Schema is the DDL for the delivery log table. Apply it with your
// migration tooling before using PGStore.
const Schema = `
CREATE TABLE IF NOT EXISTS notification_logs (
    id              UUID PRIMARY KEY,
    notification_id UUID        NOT NULL,
    reference       TEXT        NOT NULL DEFAULT '',
    channel         TEXT        NOT NULL,
    channel_name    TEXT        NOT NULL DEFAULT '',
    status          TEXT        NOT NULL,
    success         BOOLEAN     NOT NULL,
    message_id      TEXT        NOT NULL DEFAULT '',
    error_code      TEXT        NOT NULL DEFAULT '',
    error_message   TEXT        NOT NULL DEFAULT '',
    sent_at         TIMESTAMPTZ NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notification_logs_notification_id_idx ON notification_logs (notification_id);
CREATE INDEX IF NOT EXISTS notification_logs_reference_idx ON notification_logs (reference) WHERE reference <> '';
CREATE INDEX IF NOT EXISTS notification_logs_created_at_idx ON notification_logs (created_at DESC);
`

// NewPGStore connects a PostgreSQL-backed store, retrying transient
// startup failures with linear backoff.
func NewPGStore(ctx context.Context, cfg PGConfig) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &PGStore{pool: pool}, nil
			}
			pool.Close()
		}
		time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
	}

	return nil, ErrFailedToOpenDBConnection
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) Log(ctx context.Context, rec Record) error {
	if rec.NotificationID == "" {
		return errors.New("logstore: notification ID is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_logs
			(id, notification_id, reference, channel, channel_name, status, success, message_id, error_code, error_message, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.NotificationID, rec.Reference, string(rec.Channel), rec.ChannelName,
		string(rec.Status), rec.Success, rec.MessageID, rec.ErrorCode, rec.ErrorMessage,
		rec.SentAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("logstore: insert record: %w", err)
	}
	return nil
}

func (s *PGStore) Query(ctx context.Context, f Filter) ([]Record, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.NotificationID != "" {
		add("notification_id = $%d", f.NotificationID)
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.Channel != "" {
		add("channel = $%d", string(f.Channel))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.OnlyFailed {
		conds = append(conds, "success = false")
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}

	query := `SELECT id, notification_id, reference, channel, channel_name, status, success, message_id, error_code, error_message, sent_at, created_at
		FROM notification_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("logstore: query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec             Record
			channel, status string
		)
		if err := rows.Scan(
			&rec.ID, &rec.NotificationID, &rec.Reference, &channel, &rec.ChannelName,
			&status, &rec.Success, &rec.MessageID, &rec.ErrorCode, &rec.ErrorMessage,
			&rec.SentAt, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("logstore: scan record: %w", err)
		}
		rec.Channel = notify.ChannelType(channel)
		rec.Status = notify.Status(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}
