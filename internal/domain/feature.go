package domain

import (
	"errors"
	"fmt"
)

// FeatureClass separa habilidades técnicas de rasgos de personalidad.
type FeatureClass string

const (
	FeatureClassTechnical FeatureClass = "technical"
	FeatureClassSoft      FeatureClass = "soft"
)

var (
	ErrEmptyFeatureSet    = errors.New("feature set is empty")
	ErrDuplicateFeature   = errors.New("duplicate feature")
	ErrInvalidFeatureKind = errors.New("invalid feature class")
)

// FeatureDef describe una columna del dataset.
type FeatureDef struct {
	Name  string
	Class FeatureClass
}

// FeatureSet es el esquema canónico y ordenado de features.
// Es inmutable una vez construido.
type FeatureSet struct {
	names   []string
	classes []FeatureClass
	index   map[string]int
}

func NewFeatureSet(defs []FeatureDef) (*FeatureSet, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyFeatureSet
	}
	fs := &FeatureSet{
		names:   make([]string, 0, len(defs)),
		classes: make([]FeatureClass, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if _, dup := fs.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeature, d.Name)
		}
		if d.Class != FeatureClassTechnical && d.Class != FeatureClassSoft {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFeatureKind, d.Name, d.Class)
		}
		fs.index[d.Name] = len(fs.names)
		fs.names = append(fs.names, d.Name)
		fs.classes = append(fs.classes, d.Class)
	}
	return fs, nil
}

func (fs *FeatureSet) Len() int { return len(fs.names) }

// Names devuelve una copia de los nombres en orden de columna.
func (fs *FeatureSet) Names() []string {
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

func (fs *FeatureSet) Name(i int) string { return fs.names[i] }

func (fs *FeatureSet) Index(name string) (int, bool) {
	i, ok := fs.index[name]
	return i, ok
}

func (fs *FeatureSet) Contains(name string) bool {
	_, ok := fs.index[name]
	return ok
}

func (fs *FeatureSet) Class(name string) (FeatureClass, bool) {
	i, ok := fs.index[name]
	if !ok {
		return "", false
	}
	return fs.classes[i], true
}

func (fs *FeatureSet) ClassAt(i int) FeatureClass { return fs.classes[i] }

// OfClass devuelve las features de una clase, en orden de columna.
func (fs *FeatureSet) OfClass(class FeatureClass) []string {
	var out []string
	for i, n := range fs.names {
		if fs.classes[i] == class {
			out = append(out, n)
		}
	}
	return out
}
