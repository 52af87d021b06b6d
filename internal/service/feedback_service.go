package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocational-ai/internal/domain"
)

var ErrInvalidFeedback = errors.New("invalid feedback")

// SampleAppender es el lado de escritura del buffer de entrenamiento.
type SampleAppender interface {
	Append(ctx context.Context, s domain.Sample) error
}

// FeedbackService guarda las correcciones confirmadas por el usuario.
type FeedbackService struct {
	buffer  SampleAppender
	catalog CareerCatalog
	logger  *zap.Logger
	now     func() time.Time
}

func NewFeedbackService(buffer SampleAppender, catalog CareerCatalog, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		buffer:  buffer,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record agrega al buffer el perfil con las carreras que debe reforzar.
// Las etiquetas se validan contra el catálogo y se deduplican.
func (s *FeedbackService) Record(ctx context.Context, p domain.Profile, labels []string) (domain.Sample, error) {
	if s == nil || s.buffer == nil || s.catalog == nil {
		return domain.Sample{}, ErrRecommenderNotConfigured
	}
	if p.IsZero() {
		return domain.Sample{}, fmt.Errorf("%w: empty profile", ErrInvalidFeedback)
	}

	seen := make(map[string]struct{}, len(labels))
	var clean []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := s.catalog.Career(l); !ok {
			return domain.Sample{}, fmt.Errorf("%w: unknown career %q", ErrInvalidFeedback, l)
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		clean = append(clean, l)
	}
	if len(clean) == 0 {
		return domain.Sample{}, fmt.Errorf("%w: no labels", ErrInvalidFeedback)
	}

	sample := domain.Sample{
		ID:        uuid.New(),
		CreatedAt: s.now(),
		Features:  p.Vector(),
		Labels:    clean,
	}
	if err := s.buffer.Append(ctx, sample); err != nil {
		return domain.Sample{}, fmt.Errorf("append sample: %w", err)
	}
	s.logger.Info("feedback recorded",
		zap.String("sample_id", sample.ID.String()),
		zap.Strings("labels", clean),
	)
	return sample, nil
}
