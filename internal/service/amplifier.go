package service

import (
	"go.uber.org/zap"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

const amplificationGain = 0.3

// Amplifier acentúa las features sobre la media en perfiles especializados
// para que el modelo concentre la probabilidad.
type Amplifier struct {
	macro  *MacroClassifier
	bounds BoundsProvider
	logger *zap.Logger
}

func NewAmplifier(macro *MacroClassifier, bounds BoundsProvider, logger *zap.Logger) *Amplifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Amplifier{macro: macro, bounds: bounds, logger: logger}
}

// Amplify trabaja en espacio normalizado [0,1] con los límites del dataset y
// devuelve el vector en la escala original. Sin límites devuelve el vector tal cual.
func (a *Amplifier) Amplify(vector []float64, p domain.Profile) []float64 {
	out := append([]float64(nil), vector...)

	dominance := a.macro.Dominance(p)
	if dominance < MinAmplifyDominance {
		return out
	}

	if a.bounds == nil {
		metrics.RecordBoundsFallback("amplify")
		return out
	}
	bounds, ok := a.bounds.Bounds()
	if !ok || bounds.Len() != len(vector) {
		metrics.RecordBoundsFallback("amplify")
		a.logger.Warn("amplification skipped, bounds unavailable")
		return out
	}

	norm := bounds.Normalize(vector)
	mean, _ := meanStd(norm)
	if mean < 0.01 {
		return out
	}
	for i, v := range norm {
		relative := max(0, v-mean) / (mean + 1e-6)
		norm[i] = clamp01(v * (1 + amplificationGain*dominance*relative))
	}
	return bounds.Denormalize(norm)
}
