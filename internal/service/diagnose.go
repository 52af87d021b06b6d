package service

import (
	"fmt"
	"sort"
	"strings"

	"vocational-ai/internal/domain"
)

const diagnoseRule = "============================================================"

// Diagnose arma el reporte legible del análisis de un perfil.
func (r *Recommender) Diagnose(p domain.Profile) string {
	if !r.configured() {
		return ""
	}
	a := r.AnalyzeProfile(p)
	res := a.Axis

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(diagnoseRule)
	line("DIAGNÓSTICO DE PERFIL")
	line(diagnoseRule)
	line("")
	line("Eje Principal: %s", r.axes.axisName(res.Primary))
	if res.IsHybrid {
		line("Híbrido: Sí")
	} else {
		line("Híbrido: No")
	}
	if res.IsHybrid && res.Secondary != "" {
		line("Eje Secundario: %s", r.axes.axisName(res.Secondary))
	}
	line("Confianza: %s", percent(res.Confidence))
	line("Margen: %.3f", res.Margin)
	line("")
	line("Scores por Eje:")

	ranking := append([]domain.AxisScore(nil), res.Scores...)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Normalized > ranking[j].Normalized
	})
	for _, s := range ranking {
		line("  %s: %.3f (raw: %.3f)", r.axes.axisName(s.AxisID), s.Normalized, s.Raw)
	}

	line("")
	line("Carreras Candidatas:")
	for _, c := range a.Candidates {
		line("  - %s", c)
	}

	line("")
	line("Macro-perfil: %s (dominancia: %.2f)", a.Macro, a.Dominance)
	line("Carreras por macro-perfil:")
	for _, c := range r.macro.FilterByMacro(a.Macro, a.Dominance) {
		line("  - %s", c)
	}

	line("")
	line("Explicación: %s", res.Explanation)
	b.WriteString(diagnoseRule)
	return b.String()
}
