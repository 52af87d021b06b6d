package ml

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vocational-ai/internal/dataset"
)

// DatasetSource entrega el dataset de referencia ya validado.
type DatasetSource interface {
	Dataset() (*dataset.Dataset, error)
}

// Registry mantiene el modelo vigente detrás de un puntero atómico: las
// predicciones en curso siguen usando el modelo que leyeron aunque otro
// goroutine publique uno nuevo.
type Registry struct {
	store   *Store
	source  DatasetSource
	columns []string
	opts    TrainOptions
	logger  *zap.Logger

	current atomic.Pointer[Model]
	group   singleflight.Group
}

func NewRegistry(store *Store, source DatasetSource, columns []string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:   store,
		source:  source,
		columns: append([]string(nil), columns...),
		opts:    DefaultTrainOptions(),
		logger:  logger,
	}
}

// WithTrainOptions reemplaza los hiperparámetros; se usa antes de entrenar.
func (r *Registry) WithTrainOptions(opts TrainOptions) *Registry {
	r.opts = opts
	return r
}

func (r *Registry) Columns() []string { return append([]string(nil), r.columns...) }

func (r *Registry) Current() (*Model, bool) {
	m := r.current.Load()
	return m, m != nil
}

func (r *Registry) swap(m *Model) {
	r.current.Store(m)
}

// LoadOrTrain usa el modelo en memoria, luego el artefacto en disco si es
// compatible con las columnas actuales, y si no entrena desde el dataset.
// Llamadas concurrentes comparten una sola carga.
func (r *Registry) LoadOrTrain(ctx context.Context) (*Model, error) {
	if m, ok := r.Current(); ok {
		return m, nil
	}
	v, err, _ := r.group.Do("load", func() (interface{}, error) {
		if m, ok := r.Current(); ok {
			return m, nil
		}
		m, err := r.store.Load()
		switch {
		case err == nil && m.Compatible(r.columns):
			r.swap(m)
			r.logger.Info("model artifact loaded",
				zap.String("path", r.store.Path()),
				zap.Int("classes", len(m.Meta.Classes)),
				zap.Time("trained_at", m.Meta.TrainedAt),
			)
			return m, nil
		case err == nil:
			r.logger.Warn("model artifact incompatible, retraining", zap.String("path", r.store.Path()))
		case errors.Is(err, ErrModelUnavailable):
			r.logger.Info("no model artifact, training", zap.String("path", r.store.Path()))
		case errors.Is(err, ErrCorruptArtifact):
			r.logger.Warn("model artifact corrupt, retraining", zap.Error(err))
		default:
			return nil, err
		}
		return r.train(ctx, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// TrainFromDataset entrena de cero, persiste y publica.
func (r *Registry) TrainFromDataset(ctx context.Context) (*Model, error) {
	return r.train(ctx, nil, nil)
}

// train entrena sobre el dataset más las filas extra, guarda el artefacto
// y recién después publica el modelo.
func (r *Registry) train(ctx context.Context, extraX [][]float64, extraY []string) (*Model, error) {
	ds, err := r.source.Dataset()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if !sameColumns(ds.Features, r.columns) {
		return nil, fmt.Errorf("%w: dataset columns differ from model columns", ErrFeatureMismatch)
	}
	x := make([][]float64, 0, len(ds.Rows)+len(extraX))
	x = append(x, ds.Rows...)
	x = append(x, extraX...)
	y := make([]string, 0, len(ds.Labels)+len(extraY))
	y = append(y, ds.Labels...)
	y = append(y, extraY...)

	m, err := Train(ctx, x, y, r.columns, dataset.TargetColumn, r.opts)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	if err := r.store.Save(m); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	r.swap(m)
	r.logger.Info("model trained",
		zap.Int("samples", m.Meta.NSamples),
		zap.Int("extra_samples", len(extraX)),
		zap.Float64("temperature", m.Classifier.Temperature),
	)
	return m, nil
}
