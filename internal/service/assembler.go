package service

import (
	"fmt"
	"math"
	"sort"

	"vocational-ai/internal/domain"
)

const (
	// MaxReasons cubre las tres features destacadas y las tres líneas del eje.
	MaxReasons     = 6
	featureReasons = 3
	DefaultTop     = 3
	noDescription  = "Sin descripción disponible."
)

// CareerCatalog es lo que el ensamblador necesita del catálogo.
type CareerCatalog interface {
	Career(name string) (domain.Career, bool)
	ImageFor(career string) string
	AxisName(id string) string
	DisplayName(feature string) string
}

// Assembler arma las recomendaciones finales con sus razones.
type Assembler struct {
	catalog CareerCatalog
}

func NewAssembler(catalog CareerCatalog) *Assembler {
	return &Assembler{catalog: catalog}
}

// Assemble convierte el ranking filtrado en recomendaciones ordenadas por
// probabilidad y recortadas a top.
func (a *Assembler) Assemble(p domain.Profile, axis domain.AxisResult, ranked []domain.Prediction, top int) []domain.Recommendation {
	if top <= 0 {
		top = DefaultTop
	}
	highlights := a.featureHighlights(p)
	axisName := a.catalog.AxisName(axis.Primary)

	out := make([]domain.Recommendation, 0, len(ranked))
	for _, pred := range ranked {
		rec := domain.Recommendation{
			Career:        pred.Career,
			Compatibility: int(math.Round(clamp01(pred.Probability) * 100)),
			Description:   noDescription,
			Image:         a.catalog.ImageFor(pred.Career),
			Index:         -1,
			Probability:   pred.Probability,
			AxisID:        axis.Primary,
			AxisName:      axisName,
			IsHybrid:      axis.IsHybrid,
		}
		if c, ok := a.catalog.Career(pred.Career); ok {
			if c.Description != "" {
				rec.Description = c.Description
			}
			rec.Image = c.Image
			rec.Index = c.Index
		}

		reasons := highlights
		if len(pred.Reasons) > 0 {
			reasons = pred.Reasons
		}
		rec.Reasons = append([]string(nil), reasons...)
		rec.Reasons = append(rec.Reasons, "Eje profesional: "+axisName)
		if axis.IsHybrid && axis.Secondary != "" {
			rec.Reasons = append(rec.Reasons, "Perfil híbrido con: "+a.catalog.AxisName(axis.Secondary))
		}
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("Confianza del eje: %s", percent(axis.Confidence)))
		if len(rec.Reasons) > MaxReasons {
			rec.Reasons = rec.Reasons[:MaxReasons]
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}

// featureHighlights toma las features de mayor valor; en empate gana el orden de columna.
func (a *Assembler) featureHighlights(p domain.Profile) []string {
	fs := p.Features()
	if fs == nil {
		return nil
	}
	values := p.Vector()
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values[idx[i]] > values[idx[j]]
	})
	var out []string
	for _, i := range idx {
		if len(out) == featureReasons {
			break
		}
		out = append(out, "Alto nivel en "+a.catalog.DisplayName(fs.Name(i)))
	}
	return out
}
