// Package dataset carga el CSV de entrenamiento y deriva los límites por feature.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"vocational-ai/internal/domain"
)

// TargetColumn es el nombre canónico de la columna objetivo.
const TargetColumn = "Role"

// TargetAliases son los nombres aceptados para la columna objetivo, en orden de preferencia.
var TargetAliases = []string{"Role", "career"}

var (
	ErrDatasetNotFound      = errors.New("dataset not found")
	ErrMissingColumns       = errors.New("dataset is missing required columns")
	ErrTargetColumnNotFound = errors.New("dataset target column not found")
	ErrMalformedRow         = errors.New("malformed dataset row")
	ErrEmptyDataset         = errors.New("dataset has no rows")
)

// Dataset guarda las filas en el orden canónico de features, sin importar el
// orden de columnas del archivo.
type Dataset struct {
	Features []string
	Rows     [][]float64
	Labels   []string
}

func (d *Dataset) Len() int { return len(d.Rows) }

// Classes devuelve las etiquetas distintas en orden de aparición.
func (d *Dataset) Classes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range d.Labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// LoadFile abre y parsea el CSV en path.
func LoadFile(path string, features *domain.FeatureSet) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parsea un CSV con cabecera. Todas las features del esquema y una de
// las columnas objetivo deben existir por nombre; columnas extra se ignoran.
func Read(r io.Reader, features *domain.FeatureSet) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	position := make(map[string]int, len(header))
	for i, h := range header {
		position[strings.TrimSpace(h)] = i
	}

	target := -1
	for _, alias := range TargetAliases {
		if i, ok := position[alias]; ok {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: expected one of %v", ErrTargetColumnNotFound, TargetAliases)
	}

	names := features.Names()
	columns := make([]int, len(names))
	var missing []string
	for i, name := range names {
		col, ok := position[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[i] = col
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	ds := &Dataset{Features: names}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		row := make([]float64, len(columns))
		for i, col := range columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedRow, line, names[i], err)
			}
			row[i] = v
		}
		label := strings.TrimSpace(record[target])
		if label == "" {
			return nil, fmt.Errorf("%w: line %d: empty label", ErrMalformedRow, line)
		}
		ds.Rows = append(ds.Rows, row)
		ds.Labels = append(ds.Labels, label)
	}
	if len(ds.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}
