package repository

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/fsutil"
	"vocational-ai/internal/metrics"
)

var ErrCorruptBuffer = errors.New("corrupt sample buffer")

// SampleBuffer es el log de correcciones pendientes de reentrenar. Snapshot
// devuelve un cursor; Drain borra solo lo que cubre ese cursor, así las
// muestras agregadas durante el reentrenamiento se conservan.
type SampleBuffer interface {
	Append(ctx context.Context, s domain.Sample) error
	Snapshot(ctx context.Context) ([]domain.Sample, int64, error)
	Drain(ctx context.Context, cursor int64) error
}

const lockRetryDelay = 5 * time.Millisecond

// FileSampleBuffer guarda una muestra por línea en JSONL. El cursor es el
// offset en bytes hasta donde se leyó. Append, Snapshot y Drain toman un
// flock exclusivo sobre "<path>.lock", compartido con otros procesos.
type FileSampleBuffer struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFileSampleBuffer(path string) *FileSampleBuffer {
	return &FileSampleBuffer{path: path, lock: flock.New(path + ".lock")}
}

// withLock serializa fn contra goroutines (mu) y contra otros procesos (flock).
func (b *FileSampleBuffer) withLock(ctx context.Context, fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create buffer dir: %w", err)
	}
	locked, err := b.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock buffer: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock buffer: %s busy", b.lock.Path())
	}
	defer func() { _ = b.lock.Unlock() }()
	return fn()
}

func (b *FileSampleBuffer) Path() string { return b.path }

func (b *FileSampleBuffer) Append(ctx context.Context, s domain.Sample) error {
	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	line = append(line, '\n')

	err = b.withLock(ctx, func() error {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open buffer: %w", err)
		}
		// Una sola escritura por línea.
		if _, err := f.Write(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("write buffer: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close buffer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordBufferAppend("file")
	return nil
}

func (b *FileSampleBuffer) Snapshot(ctx context.Context) ([]domain.Sample, int64, error) {
	var (
		samples []domain.Sample
		cursor  int64
	)
	err := b.withLock(ctx, func() error {
		data, err := os.ReadFile(b.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read buffer: %w", err)
		}
		// Una línea sin '\n' final quedó a medio escribir; se deja para el próximo snapshot.
		end := bytes.LastIndexByte(data, '\n') + 1
		samples, err = decodeSamples(data[:end])
		if err != nil {
			return err
		}
		cursor = int64(end)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return samples, cursor, nil
}

func (b *FileSampleBuffer) Drain(ctx context.Context, cursor int64) error {
	if cursor <= 0 {
		return nil
	}
	return b.withLock(ctx, func() error {
		data, err := os.ReadFile(b.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read buffer: %w", err)
		}
		if cursor >= int64(len(data)) {
			if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove buffer: %w", err)
			}
			return nil
		}
		if err := fsutil.WriteFileAtomic(b.path, data[cursor:], 0o644); err != nil {
			return fmt.Errorf("rewrite buffer: %w", err)
		}
		return nil
	})
}

func decodeSamples(data []byte) ([]domain.Sample, error) {
	var samples []domain.Sample
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var s domain.Sample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptBuffer, line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan buffer: %w", err)
	}
	return samples, nil
}
