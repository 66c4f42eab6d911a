// Package store copies generated reservations into Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Table is the destination table of InsertBatch.
const Table = "reservations"

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	batch_id                  UUID             NOT NULL,
	reservation_id            TEXT             NOT NULL,
	user_id                   TEXT             NOT NULL,
	reserved_at               TIMESTAMP        NOT NULL,
	created_at                TIMESTAMP        NOT NULL,
	paid_at                   TIMESTAMP        NOT NULL,
	nbr_place                 INTEGER          NOT NULL,
	number_of_voyageurs       INTEGER          NOT NULL,
	status                    TEXT             NOT NULL,
	reminder_sent             BOOLEAN          NOT NULL,
	vol_id_frequency          INTEGER          NOT NULL,
	account_age_days          INTEGER          NOT NULL,
	payment_delay_days        INTEGER          NOT NULL,
	total_payment_amount      DOUBLE PRECISION NOT NULL,
	payment_failures_count    INTEGER          NOT NULL,
	payment_status            TEXT             NOT NULL,
	payment_mode              TEXT             NOT NULL,
	pays                      TEXT             NOT NULL,
	ville                     TEXT             NOT NULL,
	newsletter_abonne         BOOLEAN          NOT NULL,
	satisfaction_client       INTEGER          NOT NULL,
	annulations_precedentes   INTEGER          NOT NULL,
	modifications_reservation INTEGER          NOT NULL,
	tentatives_paiement       INTEGER          NOT NULL,
	email                     TEXT             NOT NULL,
	email_domain              TEXT             NOT NULL,
	suspicious_email_domain   BOOLEAN          NOT NULL,
	is_fraud                  SMALLINT         NOT NULL
)`

// Columns are the copied columns, in recordValues order.
var Columns = []string{
	"batch_id", "reservation_id", "user_id", "reserved_at", "created_at", "paid_at",
	"nbr_place", "number_of_voyageurs", "status", "reminder_sent", "vol_id_frequency",
	"account_age_days", "payment_delay_days", "total_payment_amount", "payment_failures_count",
	"payment_status", "payment_mode", "pays", "ville", "newsletter_abonne", "satisfaction_client",
	"annulations_precedentes", "modifications_reservation", "tentatives_paiement",
	"email", "email_domain", "suspicious_email_domain", "is_fraud",
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to configure postgres pool: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres not responding: %w", err)
	}

	return &PostgresRepository{pool: p}, nil
}

// EnsureSchema creates the reservations table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewBatchID returns the id tagging one generated dataset.
func NewBatchID() uuid.UUID {
	return uuid.New()
}

// InsertBatch copies records in one COPY statement and returns the number of
// rows written.
func (r *PostgresRepository) InsertBatch(ctx context.Context, batchID uuid.UUID, records []reservation.Record) (int64, error) {
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{Table},
		Columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return recordValues(batchID, &records[i]), nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("failed to copy batch %s: %w", batchID, err)
	}
	return n, nil
}

// CountBatch returns the number of rows stored for batchID.
func (r *PostgresRepository) CountBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reservations WHERE batch_id = $1`, batchID).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func recordValues(batchID uuid.UUID, rec *reservation.Record) []any {
	return []any{
		batchID,
		rec.ReservationID,
		rec.UserID,
		rec.ReservedAt,
		rec.CreatedAt,
		rec.PaidAt,
		rec.Places,
		rec.Travellers,
		rec.Status,
		rec.ReminderSent,
		rec.FlightFrequency,
		rec.AccountAgeDays,
		rec.PaymentDelayDays,
		rec.Amount,
		rec.PaymentFailures,
		rec.PaymentStatus,
		rec.PaymentMode,
		rec.Country,
		rec.City,
		rec.Newsletter,
		rec.Satisfaction,
		rec.PriorCancellations,
		rec.Modifications,
		rec.PaymentAttempts,
		rec.Email,
		rec.EmailDomain,
		rec.SuspiciousDomain,
		int16(rec.Label),
	}
}
