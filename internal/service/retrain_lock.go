package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrRetrainInProgress = errors.New("retrain already in progress")
	// ErrLockUnavailable indica que no se pudo consultar el lock distribuido.
	// El reentrenamiento no se ejecuta en ese caso.
	ErrLockUnavailable = errors.New("retrain lock unavailable")
)

// RetrainLock garantiza un único reentrenamiento a la vez. release libera el
// lock y es seguro llamarla una sola vez.
type RetrainLock interface {
	TryLock(ctx context.Context) (release func(), err error)
}

type mutexRetrainLock struct {
	mu sync.Mutex
}

// NewMutexRetrainLock excluye reentrenamientos dentro del proceso.
func NewMutexRetrainLock() RetrainLock {
	return &mutexRetrainLock{}
}

func (l *mutexRetrainLock) TryLock(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRetrainInProgress
	}
	return l.mu.Unlock, nil
}

// El token evita que un proceso libere un lock que ya expiró y tomó otro.
const redisReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Extiende el TTL solo si el lock sigue siendo nuestro.
const redisRenewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

const (
	defaultRetrainLockTTL = 10 * time.Minute
	redisRetrainLockKey   = "vocational:retrain:lock"
)

type redisLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRetrainLock struct {
	client redisLocker
	ttl    time.Duration
	key    string
}

// NewRedisRetrainLock excluye reentrenamientos entre procesos. Devuelve nil
// sin cliente; el llamador usa entonces el lock en memoria.
func NewRedisRetrainLock(client *redis.Client, ttl time.Duration) RetrainLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRetrainLockTTL
	}
	return &redisRetrainLock{client: client, ttl: ttl, key: redisRetrainLockKey}
}

func (l *redisRetrainLock) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	if !ok {
		return nil, ErrRetrainInProgress
	}
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.keepAlive(token, stop, stopped)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-stopped
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			// Si falla, el TTL termina liberando la clave.
			_ = l.client.Eval(ctx, redisReleaseScript, []string{l.key}, token).Err()
		})
	}
	return release, nil
}

// keepAlive renueva el TTL cada ttl/3 mientras dure el reentrenamiento.
// Deja de renovar si la clave ya pertenece a otro token.
func (l *redisRetrainLock) keepAlive(token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	interval := l.ttl / 3
	if interval <= 0 {
		interval = l.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			n, err := l.client.Eval(ctx, redisRenewScript, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
