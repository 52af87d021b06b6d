// Package ml implementa el modelo estadístico de ranking: escalado,
// clasificador softmax calibrado, persistencia atómica y reentrenamiento.
package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vocational-ai/internal/domain"
)

var (
	ErrNoSamples        = errors.New("no training samples")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrFeatureMismatch  = errors.New("feature vector does not match model columns")
	ErrCorruptArtifact  = errors.New("corrupt model artifact")
)

// Meta acompaña al artefacto y permite decidir si sigue siendo válido.
type Meta struct {
	TrainedAt      time.Time `json:"trained_at"`
	NSamples       int       `json:"n_samples"`
	FeatureColumns []string  `json:"feature_columns"`
	TargetColumn   string    `json:"target_column"`
	Classes        []string  `json:"classes"`
	Calibrated     bool      `json:"calibrated"`
}

// Model es inmutable después de construido; se comparte entre requests.
type Model struct {
	Meta       Meta
	Scaler     *Scaler
	Classifier *Classifier
}

// Train ajusta scaler y clasificador sobre filas crudas.
func Train(ctx context.Context, x [][]float64, y []string, columns []string, target string, opts TrainOptions) (*Model, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	for i, row := range x {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrFeatureMismatch, i, len(row), len(columns))
		}
	}
	scaler, err := FitScaler(x)
	if err != nil {
		return nil, err
	}
	clf, err := TrainClassifier(ctx, scaler.TransformAll(x), y, opts)
	if err != nil {
		return nil, err
	}
	return &Model{
		Meta: Meta{
			TrainedAt:      time.Now().UTC(),
			NSamples:       len(x),
			FeatureColumns: append([]string(nil), columns...),
			TargetColumn:   target,
			Classes:        append([]string(nil), clf.Classes...),
			Calibrated:     true,
		},
		Scaler:     scaler,
		Classifier: clf,
	}, nil
}

// Predict devuelve la distribución completa sobre las clases, en orden de Classes.
func (m *Model) Predict(vector []float64) ([]domain.Prediction, error) {
	if m == nil || m.Scaler == nil || m.Classifier == nil {
		return nil, ErrModelUnavailable
	}
	if len(vector) != len(m.Meta.FeatureColumns) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(vector), len(m.Meta.FeatureColumns))
	}
	proba := m.Classifier.PredictProba(m.Scaler.Transform(vector))
	out := make([]domain.Prediction, len(proba))
	for i, p := range proba {
		out[i] = domain.Prediction{Career: m.Classifier.Classes[i], Probability: p}
	}
	return out, nil
}

// Compatible indica si el artefacto fue calibrado y entrenado con las columnas dadas.
func (m *Model) Compatible(columns []string) bool {
	return m != nil && m.Meta.Calibrated && sameColumns(m.Meta.FeatureColumns, columns)
}
