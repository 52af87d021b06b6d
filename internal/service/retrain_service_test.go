package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vocational-ai/internal/metrics"
)

type mockRedisLocker struct {
	mu        sync.Mutex
	held      map[string]interface{}
	setErr    error
	lastTTL    time.Duration
	evalCalls  int
	renewCalls int
}

func newMockRedisLocker() *mockRedisLocker {
	return &mockRedisLocker{held: make(map[string]interface{})}
}

func (m *mockRedisLocker) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTTL = expiration
	cmd := redis.NewBoolCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	if _, ok := m.held[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.held[key] = value
	cmd.SetVal(true)
	return cmd
}

func (m *mockRedisLocker) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	if script == redisRenewScript && len(keys) == 1 && len(args) == 2 {
		if m.held[keys[0]] == args[0] {
			m.renewCalls++
			cmd.SetVal(int64(1))
			return cmd
		}
		cmd.SetVal(int64(0))
		return cmd
	}
	m.evalCalls++
	if script != redisReleaseScript || len(keys) != 1 || len(args) != 1 {
		cmd.SetErr(errors.New("unexpected eval"))
		return cmd
	}
	if m.held[keys[0]] == args[0] {
		delete(m.held, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func TestMutexRetrainLock(t *testing.T) {
	lock := NewMutexRetrainLock()
	release, err := lock.TryLock(context.Background())
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := lock.TryLock(context.Background()); !errors.Is(err, ErrRetrainInProgress) {
		t.Fatalf("expected ErrRetrainInProgress, got %v", err)
	}
	release()
	release2, err := lock.TryLock(context.Background())
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	release2()
}

func TestRedisRetrainLock(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		if NewRedisRetrainLock(nil, time.Minute) != nil {
			t.Fatalf("expected nil lock without client")
		}
	})

	t.Run("exclusive with token release", func(t *testing.T) {
		mock := newMockRedisLocker()
		lock := &redisRetrainLock{client: mock, ttl: 2 * time.Minute, key: redisRetrainLockKey}

		release, err := lock.TryLock(context.Background())
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		if mock.lastTTL != 2*time.Minute {
			t.Fatalf("expected ttl 2m, got %v", mock.lastTTL)
		}
		if _, err := lock.TryLock(context.Background()); !errors.Is(err, ErrRetrainInProgress) {
			t.Fatalf("expected ErrRetrainInProgress, got %v", err)
		}
		release()
		release()
		if mock.evalCalls != 1 {
			t.Fatalf("release must run once, got %d evals", mock.evalCalls)
		}
		if _, ok := mock.held[redisRetrainLockKey]; ok {
			t.Fatalf("lock key should be deleted")
		}
	})

	t.Run("renews ttl while held", func(t *testing.T) {
		mock := newMockRedisLocker()
		lock := &redisRetrainLock{client: mock, ttl: 30 * time.Millisecond, key: redisRetrainLockKey}

		release, err := lock.TryLock(context.Background())
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
		release()

		mock.mu.Lock()
		renewed := mock.renewCalls
		mock.mu.Unlock()
		if renewed == 0 {
			t.Fatalf("expected the ttl to be renewed while the lock is held")
		}
		time.Sleep(50 * time.Millisecond)
		mock.mu.Lock()
		defer mock.mu.Unlock()
		if mock.renewCalls != renewed {
			t.Fatalf("renewal must stop after release")
		}
	})

	t.Run("redis error fails closed", func(t *testing.T) {
		mock := newMockRedisLocker()
		mock.setErr = errors.New("redis down")
		lock := &redisRetrainLock{client: mock, ttl: time.Minute, key: redisRetrainLockKey}

		if _, err := lock.TryLock(context.Background()); !errors.Is(err, ErrLockUnavailable) {
			t.Fatalf("expected ErrLockUnavailable, got %v", err)
		}
	})
}

type fakeRetrainer struct {
	done    bool
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeRetrainer) Retrain(context.Context) (bool, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.done, f.err
}

func retrainCount(result string) float64 {
	return testutil.ToFloat64(metrics.RetrainTotal.WithLabelValues(result))
}

func TestRetrainServiceOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		retrainer  *fakeRetrainer
		wantDone   bool
		wantErr    bool
		wantMetric string
	}{
		{"success", &fakeRetrainer{done: true}, true, false, "success"},
		{"empty buffer", &fakeRetrainer{}, false, false, "skipped"},
		{"failure", &fakeRetrainer{err: errors.New("save model: disk full")}, false, true, "failure"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := retrainCount(tc.wantMetric)
			svc := NewRetrainService(nil, tc.retrainer, zap.NewNop())

			done, err := svc.Retrain(context.Background())
			if done != tc.wantDone || (err != nil) != tc.wantErr {
				t.Fatalf("want (%v, err=%v), got (%v, %v)", tc.wantDone, tc.wantErr, done, err)
			}
			if retrainCount(tc.wantMetric)-before != 1 {
				t.Fatalf("expected %s to be counted", tc.wantMetric)
			}
		})
	}
}

func TestRetrainServiceIsExclusive(t *testing.T) {
	retrainer := &fakeRetrainer{done: true, entered: make(chan struct{}), block: make(chan struct{})}
	svc := NewRetrainService(NewMutexRetrainLock(), retrainer, zap.NewNop())

	result := make(chan error, 1)
	go func() {
		_, err := svc.Retrain(context.Background())
		result <- err
	}()
	<-retrainer.entered

	if _, err := svc.Retrain(context.Background()); !errors.Is(err, ErrRetrainInProgress) {
		t.Fatalf("expected concurrent retrain to be rejected, got %v", err)
	}
	close(retrainer.block)
	if err := <-result; err != nil {
		t.Fatalf("first retrain: %v", err)
	}
}
