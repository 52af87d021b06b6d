package dataset

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vocational-ai/internal/domain"
)

// Range es el mínimo y máximo observados de una feature.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds guarda un Range por feature, en orden canónico.
type Bounds struct {
	features []string
	ranges   []Range
}

// ComputeBounds recorre todas las filas del dataset.
func ComputeBounds(d *Dataset) Bounds {
	b := Bounds{
		features: append([]string(nil), d.Features...),
		ranges:   make([]Range, len(d.Features)),
	}
	for j := range d.Features {
		for i, row := range d.Rows {
			v := row[j]
			if i == 0 || v < b.ranges[j].Min {
				b.ranges[j].Min = v
			}
			if i == 0 || v > b.ranges[j].Max {
				b.ranges[j].Max = v
			}
		}
	}
	return b
}

// NewBounds arma límites a mano; se usa en tests y herramientas.
func NewBounds(features []string, ranges []Range) Bounds {
	return Bounds{
		features: append([]string(nil), features...),
		ranges:   append([]Range(nil), ranges...),
	}
}

func (b Bounds) Len() int { return len(b.ranges) }

func (b Bounds) At(i int) Range { return b.ranges[i] }

func (b Bounds) Get(feature string) (Range, bool) {
	for i, f := range b.features {
		if f == feature {
			return b.ranges[i], true
		}
	}
	return Range{}, false
}

// Matches indica si los límites corresponden al esquema dado.
func (b Bounds) Matches(features *domain.FeatureSet) bool {
	if features == nil || features.Len() != len(b.features) {
		return false
	}
	for i, f := range b.features {
		if features.Name(i) != f {
			return false
		}
	}
	return true
}

// Clamp recorta cada valor a su rango. Aplicarlo dos veces no cambia el resultado.
func (b Bounds) Clamp(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if i >= len(b.ranges) {
			out[i] = x
			continue
		}
		r := b.ranges[i]
		switch {
		case x < r.Min:
			x = r.Min
		case x > r.Max:
			x = r.Max
		}
		out[i] = x
	}
	return out
}

// Normalize lleva el vector a [0,1]; rangos casi nulos se tratan como 1.
func (b Bounds) Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		r := b.ranges[i]
		span := r.Max - r.Min
		if span < 1e-6 {
			span = 1
		}
		out[i] = (x - r.Min) / span
	}
	return out
}

// Denormalize es la inversa de Normalize con el rango real.
func (b Bounds) Denormalize(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		r := b.ranges[i]
		out[i] = x*(r.Max-r.Min) + r.Min
	}
	return out
}

// Cache carga el dataset una sola vez y comparte el resultado; las cargas
// concurrentes se agrupan con singleflight. Los fallos no se cachean.
type Cache struct {
	path     string
	features *domain.FeatureSet
	logger   *zap.Logger
	group    singleflight.Group

	mu     sync.RWMutex
	data   *Dataset
	bounds *Bounds
}

func NewCache(path string, features *domain.FeatureSet, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{path: path, features: features, logger: logger}
}

func (c *Cache) Path() string { return c.path }

// Dataset devuelve el dataset cacheado o lo carga. Los errores de esquema se propagan.
func (c *Cache) Dataset() (*Dataset, error) {
	c.mu.RLock()
	data := c.data
	c.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	v, err, _ := c.group.Do("dataset", func() (interface{}, error) {
		c.mu.RLock()
		cached := c.data
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		ds, err := LoadFile(c.path, c.features)
		if err != nil {
			return nil, err
		}
		b := ComputeBounds(ds)
		c.mu.Lock()
		c.data = ds
		c.bounds = &b
		c.mu.Unlock()
		c.logger.Info("dataset loaded", zap.String("path", c.path), zap.Int("rows", ds.Len()))
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Bounds devuelve los límites por feature. ok es false si el dataset no se
// pudo cargar; el llamador decide el fallback.
func (c *Cache) Bounds() (Bounds, bool) {
	c.mu.RLock()
	b := c.bounds
	c.mu.RUnlock()
	if b != nil {
		return *b, true
	}
	if _, err := c.Dataset(); err != nil {
		c.logger.Warn("feature bounds unavailable", zap.String("path", c.path), zap.Error(err))
		return Bounds{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.bounds, true
}
