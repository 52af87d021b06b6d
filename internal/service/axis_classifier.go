package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

const (
	DefaultHybridThreshold = 0.15
	// fullConfidenceMargin es el margen a partir del cual la confianza es 1.
	fullConfidenceMargin = 0.3
	maxContributors      = 5
	explanationFeatures  = 3
	strongFeatureValue   = 1.8
	maxAffinityReasons   = 3
)

// AxisClassifier elige el eje profesional dominante con reglas explicables.
// Los ejes se inyectan al construirlo y no cambian.
type AxisClassifier struct {
	axes        []domain.Axis
	defaultAxis string
	threshold   float64
	logger      *zap.Logger
}

func NewAxisClassifier(axes []domain.Axis, defaultAxis string, hybridThreshold float64, logger *zap.Logger) *AxisClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hybridThreshold <= 0 {
		hybridThreshold = DefaultHybridThreshold
	}
	return &AxisClassifier{
		axes:        append([]domain.Axis(nil), axes...),
		defaultAxis: defaultAxis,
		threshold:   hybridThreshold,
		logger:      logger,
	}
}

func (c *AxisClassifier) axis(id string) (domain.Axis, bool) {
	for _, a := range c.axes {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Axis{}, false
}

func (c *AxisClassifier) axisName(id string) string {
	if a, ok := c.axis(id); ok {
		return a.Name
	}
	return id
}

// Scores calcula la media ponderada por eje y la normaliza min-max entre
// los ejes de este mismo perfil.
func (c *AxisClassifier) Scores(p domain.Profile) []domain.AxisScore {
	scores := make([]domain.AxisScore, 0, len(c.axes))
	for _, a := range c.axes {
		var sum, weights float64
		var contributions []domain.FeatureContribution
		add := func(features []string, weight float64) {
			for _, f := range features {
				v, ok := p.Value(f)
				if !ok {
					continue
				}
				sum += v * weight
				weights += weight
				contributions = append(contributions, domain.FeatureContribution{Feature: f, Value: v * weight})
			}
		}
		add(a.Primary, domain.PrimaryFeatureWeight)
		add(a.Secondary, domain.SecondaryFeatureWeight)

		raw := 0.0
		if weights > 0 {
			raw = sum / weights
		}
		sort.SliceStable(contributions, func(i, j int) bool {
			return contributions[i].Value > contributions[j].Value
		})
		if len(contributions) > maxContributors {
			contributions = contributions[:maxContributors]
		}
		scores = append(scores, domain.AxisScore{AxisID: a.ID, Raw: raw, Contributors: contributions})
	}

	if len(scores) == 0 {
		return scores
	}
	minRaw, maxRaw := scores[0].Raw, scores[0].Raw
	for _, s := range scores[1:] {
		minRaw = min(minRaw, s.Raw)
		maxRaw = max(maxRaw, s.Raw)
	}
	span := maxRaw - minRaw
	if span <= 0 {
		span = 1
	}
	for i := range scores {
		scores[i].Normalized = (scores[i].Raw - minRaw) / span
	}
	return scores
}

// Select devuelve el eje principal y, si el margen con el segundo es menor
// al umbral, el secundario.
func (c *AxisClassifier) Select(p domain.Profile) domain.AxisResult {
	return c.decide(c.Scores(p))
}

func (c *AxisClassifier) decide(scores []domain.AxisScore) domain.AxisResult {
	ranking := append([]domain.AxisScore(nil), scores...)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Normalized > ranking[j].Normalized
	})

	if len(ranking) < 2 {
		primary := c.defaultAxis
		if len(ranking) == 1 {
			primary = ranking[0].AxisID
		}
		return domain.AxisResult{
			Primary:     primary,
			Confidence:  1,
			Margin:      1,
			Scores:      scores,
			Explanation: "Único eje disponible",
		}
	}

	top1, top2 := ranking[0], ranking[1]
	margin := top1.Normalized - top2.Normalized
	hybrid := margin < c.threshold
	confidence := min(1.0, margin/fullConfidenceMargin)

	var dominant []string
	for i, f := range top1.Contributors {
		if i == explanationFeatures {
			break
		}
		dominant = append(dominant, f.Feature)
	}

	res := domain.AxisResult{
		Primary:    top1.AxisID,
		IsHybrid:   hybrid,
		Confidence: confidence,
		Margin:     margin,
		Scores:     scores,
	}
	if hybrid {
		res.Secondary = top2.AxisID
		res.Explanation = fmt.Sprintf("Perfil híbrido: %s + %s. Features dominantes: %s",
			c.axisName(top1.AxisID), c.axisName(top2.AxisID), strings.Join(dominant, ", "))
	} else {
		res.Explanation = fmt.Sprintf("Eje dominante: %s (confianza: %s). Features dominantes: %s",
			c.axisName(top1.AxisID), percent(confidence), strings.Join(dominant, ", "))
	}
	return res
}

// Candidates une las carreras del eje principal y, si es híbrido, las del
// secundario. Si el resultado queda vacío usa el eje por defecto.
func (c *AxisClassifier) Candidates(r domain.AxisResult) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		a, ok := c.axis(id)
		if !ok {
			return
		}
		for _, career := range a.Careers {
			if _, dup := seen[career]; dup {
				continue
			}
			seen[career] = struct{}{}
			out = append(out, career)
		}
	}
	add(r.Primary)
	if r.IsHybrid && r.Secondary != "" {
		add(r.Secondary)
	}
	if len(out) == 0 {
		metrics.RecordAxisFallback()
		c.logger.Warn("empty axis candidate set, using default axis",
			zap.String("primary", r.Primary),
			zap.String("default_axis", c.defaultAxis),
		)
		add(c.defaultAxis)
	}
	return out
}

// AxisOf devuelve el eje de la carrera dentro del resultado: el secundario
// si es híbrido y la carrera le pertenece, si no el principal.
func (c *AxisClassifier) AxisOf(r domain.AxisResult, career string) string {
	if r.IsHybrid && r.Secondary != "" {
		if a, ok := c.axis(r.Secondary); ok && containsString(a.Careers, career) {
			return r.Secondary
		}
	}
	return r.Primary
}

// Affinity es la media ponderada del perfil sobre las features del eje, con
// una razón por cada feature primaria fuerte.
func (c *AxisClassifier) Affinity(p domain.Profile, axisID string) (float64, []string) {
	a, ok := c.axis(axisID)
	if !ok {
		return 0.5, []string{"Eje no encontrado"}
	}
	var sum, weights float64
	var reasons []string
	for _, f := range a.Primary {
		v, ok := p.Value(f)
		if !ok {
			continue
		}
		sum += v * domain.PrimaryFeatureWeight
		weights += domain.PrimaryFeatureWeight
		if v > strongFeatureValue && len(reasons) < maxAffinityReasons {
			reasons = append(reasons, "Fuerte en "+f)
		}
	}
	for _, f := range a.Secondary {
		v, ok := p.Value(f)
		if !ok {
			continue
		}
		sum += v * domain.SecondaryFeatureWeight
		weights += domain.SecondaryFeatureWeight
	}
	if weights == 0 {
		return 0.5, reasons
	}
	return sum / weights, reasons
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
