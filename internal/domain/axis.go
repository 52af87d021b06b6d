package domain

const (
	PrimaryFeatureWeight   = 1.0
	SecondaryFeatureWeight = 0.5
)

// Axis agrupa carreras de un mismo dominio profesional.
type Axis struct {
	ID          string
	Name        string
	Description string
	Primary     []string
	Secondary   []string
	Careers     []string
}

type FeatureContribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

type AxisScore struct {
	AxisID       string                `json:"axis_id"`
	Raw          float64               `json:"raw"`
	Normalized   float64               `json:"normalized"`
	Contributors []FeatureContribution `json:"contributors"`
}

// AxisResult es la salida del clasificador de ejes. Secondary solo se
// completa cuando el resultado es híbrido.
type AxisResult struct {
	Primary     string      `json:"primary"`
	Secondary   string      `json:"secondary,omitempty"`
	IsHybrid    bool        `json:"is_hybrid"`
	Confidence  float64     `json:"confidence"`
	Margin      float64     `json:"margin"`
	Scores      []AxisScore `json:"scores"`
	Explanation string      `json:"explanation"`
}

func (r AxisResult) Score(axisID string) (AxisScore, bool) {
	for _, s := range r.Scores {
		if s.AxisID == axisID {
			return s, true
		}
	}
	return AxisScore{}, false
}

// MacroCategory es la clasificación gruesa del clasificador alternativo.
type MacroCategory string

const (
	MacroAnalytic    MacroCategory = "tecnico_analitico"
	MacroOperational MacroCategory = "tecnico_operativo"
	MacroCreative    MacroCategory = "creativo"
	MacroSupport     MacroCategory = "soporte"
)
