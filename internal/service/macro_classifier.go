package service

import (
	"vocational-ai/internal/domain"
)

const (
	// HighDominance marca un perfil técnico muy especializado.
	HighDominance = 0.65
	// MinAmplifyDominance deja sin tocar a los generalistas.
	MinAmplifyDominance = 0.35
	neutralDominance    = 0.5
)

var (
	securityGroup    = []string{"Cyber Security", "Networking", "Computer Forensics Fundamentals", "Troubleshooting skills"}
	dataGroup        = []string{"Data Science", "AI ML", "Programming Skills"}
	developmentGroup = []string{"Software Development", "Software Engineering"}
)

const (
	graphicsFeature      = "Graphics Designing"
	groupDefaultValue    = 1.5
	graphicsDefaultValue = 1.0
)

// Carreras de soporte que el filtro por dominancia excluye además de la macro soporte.
var extraSupportCareers = []string{"Application Support Engineer", "Helpdesk Engineer"}

// MacroClassifier es el clasificador grueso alternativo al de ejes. Solo
// alimenta la amplificación y el texto de diagnóstico.
type MacroClassifier struct {
	careers    map[domain.MacroCategory][]string
	allCareers []string
}

func NewMacroClassifier(careers map[domain.MacroCategory][]string, allCareers []string) *MacroClassifier {
	return &MacroClassifier{careers: careers, allCareers: append([]string(nil), allCareers...)}
}

// Dominance combina la relación técnica/blanda con la dispersión técnica.
// Devuelve 0.5 si falta alguna de las dos clases.
func (m *MacroClassifier) Dominance(p domain.Profile) float64 {
	tech := p.ValuesOf(domain.FeatureClassTechnical)
	soft := p.ValuesOf(domain.FeatureClassSoft)
	if len(tech) == 0 || len(soft) == 0 {
		return neutralDominance
	}
	techMean, techStd := meanStd(tech)
	softMean, _ := meanStd(soft)

	ratio := techMean / (softMean + 0.1)
	spread := min(1.0, techStd)
	return clamp01(ratio*0.6 + spread*0.4)
}

// Classify aplica las reglas en orden; lo ambiguo cae en técnico operativo.
func (m *MacroClassifier) Classify(p domain.Profile) domain.MacroCategory {
	techMean, softMean := 1.5, 0.9
	if v := p.ValuesOf(domain.FeatureClassTechnical); len(v) > 0 {
		techMean, _ = meanStd(v)
	}
	if v := p.ValuesOf(domain.FeatureClassSoft); len(v) > 0 {
		softMean, _ = meanStd(v)
	}

	security := groupMean(p, securityGroup)
	data := groupMean(p, dataGroup)
	development := groupMean(p, developmentGroup)
	graphics, ok := p.Value(graphicsFeature)
	if !ok {
		graphics = graphicsDefaultValue
	}

	switch {
	case techMean >= 2.0 && max(security, data, development) >= 2.1:
		return domain.MacroAnalytic
	case techMean >= 1.8:
		return domain.MacroOperational
	case graphics >= 2.0 && graphics >= techMean && graphics >= softMean:
		return domain.MacroCreative
	case softMean-techMean >= 0.2 || softMean >= 1.8:
		return domain.MacroSupport
	default:
		return domain.MacroOperational
	}
}

// FilterByMacro devuelve las carreras admitidas por la macro-categoría, en
// orden de catálogo. Con dominancia alta quita creativas y de soporte.
func (m *MacroClassifier) FilterByMacro(category domain.MacroCategory, dominance float64) []string {
	allowed := make(map[string]struct{})
	for _, c := range m.careers[category] {
		allowed[c] = struct{}{}
	}
	if category == domain.MacroAnalytic {
		for _, c := range m.careers[domain.MacroOperational] {
			allowed[c] = struct{}{}
		}
	}
	if dominance >= HighDominance {
		for _, c := range m.careers[domain.MacroCreative] {
			delete(allowed, c)
		}
		for _, c := range m.careers[domain.MacroSupport] {
			delete(allowed, c)
		}
		for _, c := range extraSupportCareers {
			delete(allowed, c)
		}
	}

	var out []string
	for _, c := range m.allCareers {
		if _, ok := allowed[c]; ok || len(allowed) == 0 {
			out = append(out, c)
		}
	}
	return out
}

func groupMean(p domain.Profile, features []string) float64 {
	var sum float64
	for _, f := range features {
		v, ok := p.Value(f)
		if !ok {
			v = groupDefaultValue
		}
		sum += v
	}
	return sum / float64(len(features))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
