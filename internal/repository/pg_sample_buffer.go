package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

var ErrStaleCursor = errors.New("buffer cursor does not match the last snapshot")

// SampleBufferSchema crea la tabla del buffer. La dimensión del vector es la
// cantidad de features del catálogo.
const SampleBufferSchema = `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS training_samples (
		id         BIGSERIAL PRIMARY KEY,
		sample_id  UUID NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		features   vector(%d) NOT NULL,
		labels     TEXT[] NOT NULL
	);
`

// pgExecutor es la parte de pgxpool.Pool que usa el buffer.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgSampleBuffer guarda las muestras en Postgres. Los ids BIGSERIAL se asignan
// al insertar y no al confirmar, así que un id menor puede aparecer después
// del snapshot: el cursor identifica el snapshot y Drain borra exactamente
// los ids que ese snapshot leyó.
type PgSampleBuffer struct {
	pool pgExecutor

	mu      sync.Mutex
	seq     int64
	pending []int64
}

func NewPgSampleBuffer(pool *pgxpool.Pool) *PgSampleBuffer {
	return newPgSampleBuffer(pool)
}

func newPgSampleBuffer(pool pgExecutor) *PgSampleBuffer {
	return &PgSampleBuffer{pool: pool}
}

// EnsureSchema crea la extensión y la tabla si no existen.
func (r *PgSampleBuffer) EnsureSchema(ctx context.Context, dimensions int) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(SampleBufferSchema, dimensions))
	return err
}

func (r *PgSampleBuffer) Append(ctx context.Context, s domain.Sample) error {
	const query = `
		INSERT INTO training_samples (sample_id, created_at, features, labels)
		VALUES ($1, $2, $3, $4)
	`
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query, s.ID, s.CreatedAt, toVector(s.Features), s.Labels)
	if err != nil {
		return err
	}
	metrics.RecordBufferAppend("postgres")
	return nil
}

func (r *PgSampleBuffer) Snapshot(ctx context.Context) ([]domain.Sample, int64, error) {
	const query = `
		SELECT id, sample_id, created_at, features, labels
		FROM training_samples
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	samples, ids, err := scanSamples(rows)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.pending = ids
	return samples, r.seq, nil
}

// Drain borra las filas del snapshot identificado por cursor. Solo vale el
// último snapshot tomado por esta instancia.
func (r *PgSampleBuffer) Drain(ctx context.Context, cursor int64) error {
	if cursor <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cursor != r.seq || r.pending == nil {
		return fmt.Errorf("%w: %d", ErrStaleCursor, cursor)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM training_samples WHERE id = ANY($1)`, r.pending); err != nil {
		return err
	}
	r.pending = nil
	return nil
}

func scanSamples(rows pgxRows) ([]domain.Sample, []int64, error) {
	var (
		samples []domain.Sample
		ids     []int64
	)
	for rows.Next() {
		var (
			id       int64
			s        domain.Sample
			features pgvector.Vector
		)
		if err := rows.Scan(&id, &s.ID, &s.CreatedAt, &features, &s.Labels); err != nil {
			return nil, nil, err
		}
		s.Features = fromVector(features)
		samples = append(samples, s)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return samples, ids, nil
}

func toVector(values []float64) pgvector.Vector {
	v := make([]float32, len(values))
	for i, x := range values {
		v[i] = float32(x)
	}
	return pgvector.NewVector(v)
}

func fromVector(v pgvector.Vector) []float64 {
	src := v.Slice()
	out := make([]float64, len(src))
	for i, x := range src {
		out[i] = float64(x)
	}
	return out
}

// pgxRows permite escanear filas de pgx y simplifica los tests.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}
