package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

// RequirementGate aplica los mínimos no compensables por carrera después del ranking.
type RequirementGate struct {
	requirements map[string]domain.Requirement
	logger       *zap.Logger
}

func NewRequirementGate(requirements map[string]domain.Requirement, logger *zap.Logger) *RequirementGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementGate{requirements: requirements, logger: logger}
}

// Passes exige todos los mínimos; una feature ausente vale 0. Carreras sin
// requisitos siempre pasan. El motivo describe el primer mínimo incumplido.
func (g *RequirementGate) Passes(career string, p domain.Profile) (bool, string) {
	req, ok := g.requirements[career]
	if !ok {
		return true, ""
	}
	for _, m := range req.Minimums {
		v, ok := p.Value(m.Feature)
		if !ok {
			v = 0
		}
		if v < m.Min {
			return false, fmt.Sprintf("%s: %.2f < %.2f", m.Feature, v, m.Min)
		}
	}
	return true, ""
}

// Filter recorre el ranking en orden y junta hasta top carreras que pasan.
// Los rechazos se registran, no son errores.
func (g *RequirementGate) Filter(ranked []domain.Prediction, p domain.Profile, top int) []domain.Prediction {
	var passing []domain.Prediction
	var excluded []string
	for _, pred := range ranked {
		ok, reason := g.Passes(pred.Career, p)
		if !ok {
			metrics.RecordGateRejection(pred.Career)
			g.logger.Info("career rejected by requirement gate",
				zap.String("career", pred.Career),
				zap.String("reason", reason),
			)
			excluded = append(excluded, pred.Career)
			continue
		}
		passing = append(passing, pred)
		if len(passing) >= top {
			break
		}
	}
	if len(excluded) > 0 {
		g.logger.Debug("requirement gate summary",
			zap.String("excluded", strings.Join(excluded, "; ")),
			zap.Int("passing", len(passing)),
		)
	}
	return passing
}
