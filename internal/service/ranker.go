package service

import (
	"context"
	"math"
	"sort"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/ml"
)

// RankRequest es la entrada común a todas las estrategias de ranking.
type RankRequest struct {
	Profile    domain.Profile
	Vector     []float64
	Axis       domain.AxisResult
	Candidates []string
	K          int
}

// Ranker ordena las carreras candidatas para un perfil.
type Ranker interface {
	Name() string
	Rank(ctx context.Context, req RankRequest) ([]domain.Prediction, error)
}

// ModelRanker usa el modelo estadístico calibrado sobre el vector amplificado.
type ModelRanker struct {
	registry *ml.Registry
}

func NewModelRanker(registry *ml.Registry) *ModelRanker {
	return &ModelRanker{registry: registry}
}

func (r *ModelRanker) Name() string { return "model" }

func (r *ModelRanker) Rank(ctx context.Context, req RankRequest) ([]domain.Prediction, error) {
	model, err := r.registry.LoadOrTrain(ctx)
	if err != nil {
		return nil, err
	}
	preds, err := model.Predict(req.Vector)
	if err != nil {
		return nil, err
	}
	return ml.RankProbabilities(preds, req.K, req.Candidates), nil
}

// DistanceRanker es la estrategia heredada: la fila del dataset más cercana
// por carrera, en distancia euclídea sobre el perfil sin amplificar.
type DistanceRanker struct {
	source ml.DatasetSource
}

func NewDistanceRanker(source ml.DatasetSource) *DistanceRanker {
	return &DistanceRanker{source: source}
}

func (r *DistanceRanker) Name() string { return "distance" }

func (r *DistanceRanker) Rank(_ context.Context, req RankRequest) ([]domain.Prediction, error) {
	ds, err := r.source.Dataset()
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		allowed[c] = struct{}{}
	}
	user := req.Profile.Vector()

	type nearest struct {
		career   string
		distance float64
	}
	best := make(map[string]int)
	var found []nearest
	for i, row := range ds.Rows {
		label := ds.Labels[i]
		if _, ok := allowed[label]; !ok {
			continue
		}
		d := euclidean(user, row)
		if j, ok := best[label]; ok {
			if d < found[j].distance {
				found[j].distance = d
			}
			continue
		}
		best[label] = len(found)
		found = append(found, nearest{career: label, distance: d})
	}

	maxDistance := 0.0
	for _, n := range found {
		maxDistance = max(maxDistance, n.distance)
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].distance < found[j].distance
	})

	out := make([]domain.Prediction, 0, len(found))
	for _, n := range found {
		compat := 1.0
		if maxDistance > 0 {
			compat = clamp01(1 - n.distance/(maxDistance*1.5))
		}
		out = append(out, domain.Prediction{Career: n.career, Probability: compat})
	}
	if req.K > 0 && len(out) > req.K {
		out = out[:req.K]
	}
	return out, nil
}

// AxisRanker puntúa por afinidad con el eje de cada carrera y no necesita
// dataset ni modelo. La compatibilidad se reparte en 60..100 según la
// dispersión de los candidatos.
type AxisRanker struct {
	axes *AxisClassifier
}

func NewAxisRanker(axes *AxisClassifier) *AxisRanker {
	return &AxisRanker{axes: axes}
}

func (r *AxisRanker) Name() string { return "axis" }

func (r *AxisRanker) Rank(_ context.Context, req RankRequest) ([]domain.Prediction, error) {
	type scored struct {
		career  string
		score   float64
		reasons []string
	}
	results := make([]scored, 0, len(req.Candidates))
	for _, career := range req.Candidates {
		score, reasons := r.axes.Affinity(req.Profile, r.axes.AxisOf(req.Axis, career))
		results = append(results, scored{career: career, score: score, reasons: reasons})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) == 0 {
		return nil, nil
	}

	maxScore := results[0].score
	minScore := maxScore - 0.1
	if len(results) > 1 {
		minScore = results[len(results)-1].score
	}
	span := maxScore - minScore
	if span <= 0 {
		span = 0.1
	}

	out := make([]domain.Prediction, 0, len(results))
	for _, s := range results {
		compat := math.Floor(60 + (s.score-minScore)/span*40)
		compat = math.Min(100, math.Max(0, compat))
		out = append(out, domain.Prediction{Career: s.career, Probability: compat / 100, Reasons: s.reasons})
	}
	if req.K > 0 && len(out) > req.K {
		out = out[:req.K]
	}
	return out, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
