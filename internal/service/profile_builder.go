package service

import (
	"math"

	"go.uber.org/zap"

	"vocational-ai/internal/dataset"
	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

const (
	LaplaceAlpha       = 0.1
	TechnicalBaseValue = 1.5
	SoftBaseValue      = 0.8
	OutlierZThreshold  = 2.5
	minStdForClipping  = 0.01
)

// BoundsProvider entrega los límites por feature del dataset. ok=false
// significa que no hay límites y el llamador sigue sin escalar.
type BoundsProvider interface {
	Bounds() (dataset.Bounds, bool)
}

// ProfileBuilder convierte respuestas en un perfil de features.
type ProfileBuilder struct {
	features  *domain.FeatureSet
	questions *domain.QuestionBank
	bounds    BoundsProvider
	logger    *zap.Logger
}

func NewProfileBuilder(features *domain.FeatureSet, questions *domain.QuestionBank, bounds BoundsProvider, logger *zap.Logger) *ProfileBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileBuilder{
		features:  features,
		questions: questions,
		bounds:    bounds,
		logger:    logger,
	}
}

func BaseValue(class domain.FeatureClass) float64 {
	if class == domain.FeatureClassSoft {
		return SoftBaseValue
	}
	return TechnicalBaseValue
}

// Build acumula los deltas ponderados por informatividad con suavizado de
// Laplace, amortigua outliers por z-score y recorta a los límites del dataset.
// Preguntas u opciones inexistentes se ignoran.
func (b *ProfileBuilder) Build(answers []domain.Answer) domain.Profile {
	n := b.features.Len()
	num := make([]float64, n)
	den := make([]float64, n)

	skipped := 0
	for _, a := range answers {
		q, ok := b.questions.Get(a.QuestionID)
		if !ok || a.OptionIndex < 0 || a.OptionIndex >= len(q.Options) {
			skipped++
			continue
		}
		for _, w := range q.Options[a.OptionIndex].Weights {
			i, ok := b.features.Index(w.Feature)
			if !ok || b.features.ClassAt(i) != q.Kind {
				continue
			}
			num[i] += w.Delta * q.Informativeness
			den[i] += q.Informativeness
		}
	}
	if skipped > 0 {
		b.logger.Debug("answers skipped", zap.Int("skipped", skipped), zap.Int("total", len(answers)))
	}

	vector := make([]float64, n)
	for i := range vector {
		vector[i] = BaseValue(b.features.ClassAt(i)) + num[i]/(den[i]+LaplaceAlpha)
	}

	vector = clipOutliers(vector, OutlierZThreshold)
	vector = b.clamp(vector)

	p, _ := domain.NewProfile(b.features, vector)
	return p
}

func (b *ProfileBuilder) clamp(vector []float64) []float64 {
	if b.bounds == nil {
		metrics.RecordBoundsFallback("profile")
		return vector
	}
	bounds, ok := b.bounds.Bounds()
	if !ok || !bounds.Matches(b.features) {
		metrics.RecordBoundsFallback("profile")
		b.logger.Warn("profile built without bounds clamping")
		return vector
	}
	return bounds.Clamp(vector)
}

// clipOutliers lleva a mean ± z*std los valores cuyo z-score supera z.
func clipOutliers(v []float64, z float64) []float64 {
	mean, std := meanStd(v)
	out := make([]float64, len(v))
	copy(out, v)
	if std <= minStdForClipping {
		return out
	}
	for i, x := range out {
		score := (x - mean) / std
		if math.Abs(score) > z {
			out[i] = mean + math.Copysign(z*std, score)
		}
	}
	return out
}

// meanStd usa el desvío poblacional.
func meanStd(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	var sq float64
	for _, x := range v {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(v)))
}
