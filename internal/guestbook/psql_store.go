package guestbook

import (
	"context"
	"time"

	"github.com/2beens/guestbook/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Store = (*PsqlStore)(nil)

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

func (s *PsqlStore) ListEntries(ctx context.Context) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "guestbookStore.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := s.db.Query(
		ctx,
		`
			SELECT
				id::text, name, message, created_at
			FROM guestbook
			ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, &StoreQueryError{Err: err}
	}
	defer rows.Close()

	entries, err := rows2entries(rows)
	if err != nil {
		return nil, &StoreQueryError{Err: err}
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, nil
}

func (s *PsqlStore) CreateEntry(ctx context.Context, name, message string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "guestbookStore.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO guestbook (name, message) VALUES ($1, $2);`,
		name, message,
	); err != nil {
		return &StoreWriteError{Err: err}
	}

	return nil
}

func rows2entries(rows pgx.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var id string
		var name string
		var message string
		var createdAt time.Time
		if err := rows.Scan(&id, &name, &message, &createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			ID:        id,
			Name:      name,
			Message:   message,
			CreatedAt: createdAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
