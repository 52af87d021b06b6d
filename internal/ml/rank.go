package ml

import (
	"math"
	"sort"

	"vocational-ai/internal/domain"
)

const (
	// MinProbability descarta ruido solo en llamadas sin restricción de etiquetas.
	MinProbability = 0.05
	// RebalanceGap es la diferencia máxima entre las dos primeras para
	// presentar una elección binaria.
	RebalanceGap = 0.25
)

// RankProbabilities aplica el contrato de ranking sobre una distribución:
// filtra por allowed (si no es nil) antes de cualquier umbral, aplica
// MinProbability solo sin filtro, ordena descendente y, si las dos primeras
// están a menos de RebalanceGap, devuelve solo esas dos renormalizadas.
// En otro caso devuelve las primeras top.
func RankProbabilities(preds []domain.Prediction, top int, allowed []string) []domain.Prediction {
	var pairs []domain.Prediction
	if allowed != nil {
		set := make(map[string]struct{}, len(allowed))
		for _, a := range allowed {
			set[a] = struct{}{}
		}
		for _, p := range preds {
			if _, ok := set[p.Career]; ok {
				pairs = append(pairs, p)
			}
		}
	} else {
		for _, p := range preds {
			if p.Probability >= MinProbability {
				pairs = append(pairs, p)
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Probability > pairs[j].Probability
	})

	if len(pairs) >= 2 {
		p1, p2 := pairs[0].Probability, pairs[1].Probability
		if math.Abs(p1-p2) < RebalanceGap {
			if total := p1 + p2; total > 0 {
				return []domain.Prediction{
					{Career: pairs[0].Career, Probability: p1 / total},
					{Career: pairs[1].Career, Probability: p2 / total},
				}
			}
		}
	}

	if top >= 0 && len(pairs) > top {
		pairs = pairs[:top]
	}
	return pairs
}
