package domain

import (
	"time"

	"github.com/google/uuid"
)

type Career struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Index       int    `json:"index"`
}

type Minimum struct {
	Feature string
	Min     float64
}

// Requirement lista los mínimos no compensables de una carrera.
type Requirement struct {
	Career   string
	Minimums []Minimum
}

// Prediction es una carrera con su probabilidad (o score) del ranking.
// Reasons es opcional: estrategias explicables pueden aportar sus propias razones.
type Prediction struct {
	Career      string   `json:"career"`
	Probability float64  `json:"probability"`
	Reasons     []string `json:"reasons,omitempty"`
}

type Recommendation struct {
	Career        string   `json:"career"`
	Compatibility int      `json:"compatibility"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Index         int      `json:"index"`
	Probability   float64  `json:"probability"`
	Reasons       []string `json:"reasons"`
	AxisID        string   `json:"axis_id"`
	AxisName      string   `json:"axis_name"`
	IsHybrid      bool     `json:"is_hybrid"`
}

// Sample es una corrección confirmada por el usuario que se usará para reentrenar.
type Sample struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"ts"`
	Features  []float64 `json:"features"`
	Labels    []string  `json:"labels"`
}
