package ml

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vocational-ai/internal/domain"
)

// SampleSource es la vista del buffer que necesita el reentrenamiento.
// El cursor marca hasta dónde llega el snapshot; Drain borra solo eso.
type SampleSource interface {
	Snapshot(ctx context.Context) ([]domain.Sample, int64, error)
	Drain(ctx context.Context, cursor int64) error
}

// Retrainer combina el dataset de referencia con las correcciones del buffer.
// No es seguro para llamadas concurrentes; la exclusión la pone el llamador.
type Retrainer struct {
	registry *Registry
	buffer   SampleSource
	logger   *zap.Logger
}

func NewRetrainer(registry *Registry, buffer SampleSource, logger *zap.Logger) *Retrainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrainer{registry: registry, buffer: buffer, logger: logger}
}

// Retrain devuelve false sin error si el buffer está vacío. Si el modelo no se
// puede guardar, el buffer queda intacto y el modelo vigente no cambia.
func (r *Retrainer) Retrain(ctx context.Context) (bool, error) {
	samples, cursor, err := r.buffer.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("snapshot buffer: %w", err)
	}
	x, y, err := expandSamples(samples, len(r.registry.columns))
	if err != nil {
		return false, err
	}
	if len(x) == 0 {
		return false, nil
	}

	if _, err := r.registry.train(ctx, x, y); err != nil {
		return false, err
	}

	// El modelo nuevo ya está publicado; si el drenado falla las muestras se
	// reentrenan de nuevo la próxima vez, pero no se pierden.
	if err := r.buffer.Drain(ctx, cursor); err != nil {
		r.logger.Error("buffer drain failed after retrain", zap.Int64("cursor", cursor), zap.Error(err))
		return true, nil
	}
	r.logger.Info("buffer drained", zap.Int("samples", len(samples)), zap.Int("rows", len(x)))
	return true, nil
}

// expandSamples genera una fila por etiqueta.
func expandSamples(samples []domain.Sample, width int) ([][]float64, []string, error) {
	var x [][]float64
	var y []string
	for _, s := range samples {
		if len(s.Features) != width {
			return nil, nil, fmt.Errorf("%w: sample %s has %d features, want %d", ErrFeatureMismatch, s.ID, len(s.Features), width)
		}
		for _, label := range s.Labels {
			x = append(x, s.Features)
			y = append(y, label)
		}
	}
	return x, y, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
