package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"vocational-ai/internal/metrics"
)

// ModelRetrainer es la operación de reentrenamiento sin exclusión.
type ModelRetrainer interface {
	Retrain(ctx context.Context) (bool, error)
}

// RetrainService ejecuta el reentrenamiento bajo un lock exclusivo.
type RetrainService struct {
	lock      RetrainLock
	retrainer ModelRetrainer
	logger    *zap.Logger
}

func NewRetrainService(lock RetrainLock, retrainer ModelRetrainer, logger *zap.Logger) *RetrainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = NewMutexRetrainLock()
	}
	return &RetrainService{lock: lock, retrainer: retrainer, logger: logger}
}

// Retrain devuelve true si se publicó un modelo nuevo. Con otro
// reentrenamiento en curso devuelve ErrRetrainInProgress.
func (s *RetrainService) Retrain(ctx context.Context) (bool, error) {
	if s == nil || s.retrainer == nil {
		return false, ErrRecommenderNotConfigured
	}
	release, err := s.lock.TryLock(ctx)
	if err != nil {
		metrics.RecordRetrain("locked")
		if errors.Is(err, ErrRetrainInProgress) {
			s.logger.Info("retrain skipped, another one is running")
		} else {
			s.logger.Warn("retrain lock failed", zap.Error(err))
		}
		return false, err
	}
	defer release()

	done, err := s.retrainer.Retrain(ctx)
	switch {
	case err != nil:
		metrics.RecordRetrain("failure")
		s.logger.Error("retrain failed, previous model kept", zap.Error(err))
		return false, err
	case !done:
		metrics.RecordRetrain("skipped")
		s.logger.Info("retrain skipped, buffer empty")
	default:
		metrics.RecordRetrain("success")
	}
	return done, nil
}
