package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"vocational-ai/internal/fsutil"
)

// ArtifactFile es el nombre del artefacto dentro del directorio del store.
// Scaler, clasificador y meta viajan juntos para que un reemplazo nunca
// mezcle versiones.
const ArtifactFile = "career_model.json"

type artifact struct {
	Meta       Meta        `json:"meta"`
	Scaler     *Scaler     `json:"scaler"`
	Classifier *Classifier `json:"classifier"`
}

// Encode serializa el modelo completo.
func Encode(m *Model) ([]byte, error) {
	if m == nil || m.Scaler == nil || m.Classifier == nil {
		return nil, ErrModelUnavailable
	}
	return json.MarshalIndent(artifact{Meta: m.Meta, Scaler: m.Scaler, Classifier: m.Classifier}, "", "  ")
}

// Decode valida dimensiones además de parsear.
func Decode(raw []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if a.Scaler == nil || a.Classifier == nil {
		return nil, fmt.Errorf("%w: missing scaler or classifier", ErrCorruptArtifact)
	}
	d := len(a.Meta.FeatureColumns)
	k := len(a.Classifier.Classes)
	if len(a.Scaler.Mean) != d || len(a.Scaler.Scale) != d {
		return nil, fmt.Errorf("%w: scaler has %d columns, meta %d", ErrCorruptArtifact, len(a.Scaler.Mean), d)
	}
	if len(a.Classifier.Weights) != k || len(a.Classifier.Bias) != k {
		return nil, fmt.Errorf("%w: classifier shape does not match %d classes", ErrCorruptArtifact, k)
	}
	for _, w := range a.Classifier.Weights {
		if len(w) != d {
			return nil, fmt.Errorf("%w: weight row has %d columns, want %d", ErrCorruptArtifact, len(w), d)
		}
	}
	return &Model{Meta: a.Meta, Scaler: a.Scaler, Classifier: a.Classifier}, nil
}

// Store persiste el modelo en disco con reemplazo atómico: escribe un
// temporal en el mismo directorio, hace fsync y renombra.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path() string { return filepath.Join(s.dir, ArtifactFile) }

// Load devuelve ErrModelUnavailable si no hay artefacto.
func (s *Store) Load() (*Model, error) {
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrModelUnavailable
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Decode(raw)
}

// Save reemplaza el artefacto. Ante cualquier error el anterior queda intacto.
func (s *Store) Save(m *Model) error {
	raw, err := Encode(m)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(s.Path(), raw, 0o644)
}
