package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"

	"vocational-ai/internal/domain"
)

func newSample(label string, v float64) domain.Sample {
	return domain.Sample{
		ID:        uuid.New(),
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Features:  []float64{v, v + 0.5, 0.25},
		Labels:    []string{label},
	}
}

func TestFileSampleBufferAppendSnapshotDrain(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "buffer.jsonl")
	buf := NewFileSampleBuffer(path)

	samples, cursor, err := buf.Snapshot(ctx)
	if err != nil || len(samples) != 0 || cursor != 0 {
		t.Fatalf("expected empty snapshot for missing file, got %d samples cursor=%d err=%v", len(samples), cursor, err)
	}

	first := newSample("Cyber Security Specialist", 2.0)
	second := newSample("Data Scientist", 1.5)
	for _, s := range []domain.Sample{first, second} {
		if err := buf.Append(ctx, s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	samples, cursor, err = buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].ID != first.ID || samples[1].Labels[0] != "Data Scientist" {
		t.Fatalf("unexpected samples order: %+v", samples)
	}
	if samples[0].Features[1] != 2.5 {
		t.Fatalf("features not preserved: %v", samples[0].Features)
	}

	// Lo agregado después del snapshot sobrevive al drenado.
	late := newSample("Helpdesk Engineer", 1.0)
	if err := buf.Append(ctx, late); err != nil {
		t.Fatalf("append late: %v", err)
	}
	if err := buf.Drain(ctx, cursor); err != nil {
		t.Fatalf("drain: %v", err)
	}
	samples, _, err = buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot after drain: %v", err)
	}
	if len(samples) != 1 || samples[0].ID != late.ID {
		t.Fatalf("expected only the late sample, got %+v", samples)
	}
}

func TestFileSampleBufferDrainAllRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buffer.jsonl")
	buf := NewFileSampleBuffer(path)
	if err := buf.Append(ctx, newSample("Data Scientist", 1.2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, cursor, err := buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := buf.Drain(ctx, cursor); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected buffer file removed, stat err=%v", err)
	}
	if err := buf.Drain(ctx, cursor); err != nil {
		t.Fatalf("drain on missing file should be a no-op: %v", err)
	}
}

func TestFileSampleBufferIgnoresPartialLine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buffer.jsonl")
	buf := NewFileSampleBuffer(path)
	if err := buf.Append(ctx, newSample("Data Scientist", 1.2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(`{"id":"`); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	samples, cursor, err := buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 complete sample, got %d", len(samples))
	}
	if err := buf.Drain(ctx, cursor); err != nil {
		t.Fatalf("drain: %v", err)
	}
	rest, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(rest) != `{"id":"` {
		t.Fatalf("partial line should be kept, got %q", rest)
	}
}

func TestFileSampleBufferCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := NewFileSampleBuffer(path).Snapshot(context.Background())
	if !errors.Is(err, ErrCorruptBuffer) {
		t.Fatalf("expected ErrCorruptBuffer, got %v", err)
	}
}

func TestFileSampleBufferSharedPathKeepsEverySample(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buffer.jsonl")
	writer := NewFileSampleBuffer(path)
	retrainer := NewFileSampleBuffer(path)

	const total = 300
	done := make(chan error, 1)
	go func() {
		for i := 0; i < total; i++ {
			if err := writer.Append(ctx, newSample("Data Scientist", float64(i))); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	seen := 0
	drainOnce := func() {
		samples, cursor, err := retrainer.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if err := retrainer.Drain(ctx, cursor); err != nil {
			t.Fatalf("drain: %v", err)
		}
		seen += len(samples)
	}
	for finished := false; !finished; {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			finished = true
		default:
			drainOnce()
		}
	}
	drainOnce()

	if seen != total {
		t.Fatalf("appended %d samples, drained %d", total, seen)
	}
}

func TestFileSampleBufferWaitsForForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.jsonl")
	other := flock.New(path + ".lock")
	if err := other.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer func() { _ = other.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := NewFileSampleBuffer(path).Append(ctx, newSample("Data Scientist", 1)); err == nil {
		t.Fatalf("append must not write while another process holds the lock")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("buffer should not exist, stat err=%v", err)
	}
}

type fakeRows struct {
	rows [][]interface{}
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	row := f.rows[f.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = row[i].(int64)
		case *uuid.UUID:
			*p = row[i].(uuid.UUID)
		case *time.Time:
			*p = row[i].(time.Time)
		case *pgvector.Vector:
			*p = row[i].(pgvector.Vector)
		case *[]string:
			*p = row[i].([]string)
		default:
			return errors.New("unexpected scan destination")
		}
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }
func (f *fakeRows) Close()     {}

func TestScanSamplesCollectsIDs(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]interface{}{
		{int64(3), id1, ts, pgvector.NewVector([]float32{1.5, 0.5}), []string{"Data Scientist"}},
		{int64(7), id2, ts, pgvector.NewVector([]float32{2, 0.25}), []string{"AI ML Specialist", "Data Scientist"}},
	}}

	samples, ids, err := scanSamples(rows)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("expected ids [3 7], got %v", ids)
	}
	if len(samples) != 2 || samples[1].ID != id2 || len(samples[1].Labels) != 2 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
	if samples[0].Features[0] != 1.5 || samples[1].Features[1] != 0.25 {
		t.Fatalf("vector conversion failed: %+v", samples)
	}
}

func TestScanSamplesPropagatesRowsError(t *testing.T) {
	_, _, err := scanSamples(&fakeRows{err: errors.New("conn reset")})
	if err == nil {
		t.Fatalf("expected rows error")
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float64{1.5, 0.75, 2.25}
	out := fromVector(toVector(in))
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: want %v got %v", i, in[i], out[i])
		}
	}
}

type queryRows struct {
	pgx.Rows
	inner *fakeRows
}

func (q queryRows) Next() bool                     { return q.inner.Next() }
func (q queryRows) Scan(dest ...interface{}) error { return q.inner.Scan(dest...) }
func (q queryRows) Err() error                     { return q.inner.Err() }
func (q queryRows) Close()                         {}

type execCall struct {
	sql  string
	args []interface{}
}

type fakePool struct {
	execs   []execCall
	execErr error
	rows    [][]interface{}
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("OK"), f.execErr
}

func (f *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return queryRows{inner: &fakeRows{rows: f.rows}}, nil
}

func pgRow(id int64, label string) []interface{} {
	return []interface{}{id, uuid.New(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), pgvector.NewVector([]float32{1, 2}), []string{label}}
}

func TestPgSampleBufferAppendFillsDefaults(t *testing.T) {
	pool := &fakePool{}
	buf := newPgSampleBuffer(pool)

	if err := buf.Append(context.Background(), domain.Sample{Features: []float64{1.5, 2}, Labels: []string{"Data Scientist"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(pool.execs) != 1 || len(pool.execs[0].args) != 4 {
		t.Fatalf("expected one insert with 4 args, got %+v", pool.execs)
	}
	args := pool.execs[0].args
	if id, ok := args[0].(uuid.UUID); !ok || id == uuid.Nil {
		t.Fatalf("sample id must be generated, got %v", args[0])
	}
	if ts, ok := args[1].(time.Time); !ok || ts.IsZero() {
		t.Fatalf("timestamp must be filled, got %v", args[1])
	}
	if v, ok := args[2].(pgvector.Vector); !ok || len(v.Slice()) != 2 {
		t.Fatalf("features must be sent as a vector, got %v", args[2])
	}
}

func TestPgSampleBufferAppendError(t *testing.T) {
	pool := &fakePool{execErr: errors.New("conn refused")}
	if err := newPgSampleBuffer(pool).Append(context.Background(), newSample("Data Scientist", 1)); err == nil {
		t.Fatalf("expected exec error")
	}
}

func TestPgSampleBufferDrainDeletesOnlySnapshotIDs(t *testing.T) {
	ctx := context.Background()
	// El id 10 todavía no estaba confirmado cuando se tomó el snapshot.
	pool := &fakePool{rows: [][]interface{}{pgRow(11, "Data Scientist"), pgRow(12, "AI ML Specialist")}}
	buf := newPgSampleBuffer(pool)

	samples, cursor, err := buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(samples) != 2 || cursor == 0 {
		t.Fatalf("unexpected snapshot: %d samples, cursor %d", len(samples), cursor)
	}
	if err := buf.Drain(ctx, cursor); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pool.execs) != 1 {
		t.Fatalf("expected one delete, got %+v", pool.execs)
	}
	del := pool.execs[0]
	ids, ok := del.args[0].([]int64)
	if !ok || len(ids) != 2 || ids[0] != 11 || ids[1] != 12 {
		t.Fatalf("delete must target the snapshot ids, got %v", del.args)
	}
	if err := buf.Drain(ctx, cursor); !errors.Is(err, ErrStaleCursor) {
		t.Fatalf("second drain must be rejected, got %v", err)
	}
}

func TestPgSampleBufferStaleCursor(t *testing.T) {
	ctx := context.Background()
	pool := &fakePool{rows: [][]interface{}{pgRow(1, "Data Scientist")}}
	buf := newPgSampleBuffer(pool)

	_, first, err := buf.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, _, err := buf.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := buf.Drain(ctx, first); !errors.Is(err, ErrStaleCursor) {
		t.Fatalf("expected ErrStaleCursor, got %v", err)
	}
	if len(pool.execs) != 0 {
		t.Fatalf("stale drain must not delete anything")
	}
}

func TestPgSampleBufferEmptySnapshot(t *testing.T) {
	pool := &fakePool{}
	buf := newPgSampleBuffer(pool)

	samples, cursor, err := buf.Snapshot(context.Background())
	if err != nil || samples != nil || cursor != 0 {
		t.Fatalf("expected empty snapshot, got %v %d %v", samples, cursor, err)
	}
	if err := buf.Drain(context.Background(), cursor); err != nil || len(pool.execs) != 0 {
		t.Fatalf("drain of empty snapshot must be a no-op, err=%v execs=%d", err, len(pool.execs))
	}
}
