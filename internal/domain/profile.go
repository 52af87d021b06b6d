package domain

import (
	"errors"
	"fmt"
)

var ErrProfileSize = errors.New("profile vector size does not match feature set")

// Profile es el vector de features de un usuario. Siempre tiene un valor por
// feature conocida; las vistas vector y mapa se derivan del mismo slice.
type Profile struct {
	features *FeatureSet
	values   []float64
}

func NewProfile(features *FeatureSet, values []float64) (Profile, error) {
	if features == nil || len(values) != features.Len() {
		return Profile{}, fmt.Errorf("%w: got %d", ErrProfileSize, len(values))
	}
	v := make([]float64, len(values))
	copy(v, values)
	return Profile{features: features, values: v}, nil
}

// ProfileFromMap completa con fill las features ausentes en m.
func ProfileFromMap(features *FeatureSet, m map[string]float64, fill float64) Profile {
	v := make([]float64, features.Len())
	for i := range v {
		if val, ok := m[features.Name(i)]; ok {
			v[i] = val
		} else {
			v[i] = fill
		}
	}
	return Profile{features: features, values: v}
}

func (p Profile) Features() *FeatureSet { return p.features }

func (p Profile) IsZero() bool { return p.features == nil }

// Value devuelve el valor de la feature; ok es false si no existe.
func (p Profile) Value(name string) (float64, bool) {
	if p.features == nil {
		return 0, false
	}
	i, ok := p.features.Index(name)
	if !ok {
		return 0, false
	}
	return p.values[i], true
}

// Vector devuelve una copia en orden de columna.
func (p Profile) Vector() []float64 {
	out := make([]float64, len(p.values))
	copy(out, p.values)
	return out
}

func (p Profile) Map() map[string]float64 {
	out := make(map[string]float64, len(p.values))
	for i, v := range p.values {
		out[p.features.Name(i)] = v
	}
	return out
}

// ValuesOf devuelve los valores de las features de una clase.
func (p Profile) ValuesOf(class FeatureClass) []float64 {
	var out []float64
	for i, v := range p.values {
		if p.features.ClassAt(i) == class {
			out = append(out, v)
		}
	}
	return out
}
