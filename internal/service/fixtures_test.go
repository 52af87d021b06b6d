package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"vocational-ai/internal/catalog"
	"vocational-ai/internal/dataset"
	"vocational-ai/internal/domain"
	"vocational-ai/internal/ml"
)

const referenceCSV = "../../testdata/careers.csv"

var (
	catalogOnce sync.Once
	catalogVal  *catalog.Catalog
	catalogErr  error
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	catalogOnce.Do(func() {
		catalogVal, catalogErr = catalog.Load()
	})
	if catalogErr != nil {
		t.Fatalf("load catalog: %v", catalogErr)
	}
	return catalogVal
}

type pipeline struct {
	cat         *catalog.Catalog
	bounds      *dataset.Cache
	builder     *ProfileBuilder
	axes        *AxisClassifier
	macro       *MacroClassifier
	amplifier   *Amplifier
	gate        *RequirementGate
	assembler   *Assembler
	registry    *ml.Registry
	recommender *Recommender
}

// newPipeline arma el pipeline completo sobre el catálogo embebido y el
// dataset sintético. ranker nil usa el modelo.
func newPipeline(t *testing.T, ranker Ranker) *pipeline {
	t.Helper()
	cat := testCatalog(t)
	logger := zap.NewNop()

	p := &pipeline{cat: cat}
	p.bounds = dataset.NewCache(referenceCSV, cat.Features, logger)
	p.builder = NewProfileBuilder(cat.Features, cat.Questions, p.bounds, logger)
	p.axes = NewAxisClassifier(cat.Axes, cat.DefaultAxis, DefaultHybridThreshold, logger)
	p.macro = NewMacroClassifier(cat.Macro, cat.CareerNames())
	p.amplifier = NewAmplifier(p.macro, p.bounds, logger)
	p.gate = NewRequirementGate(cat.Requirements, logger)
	p.assembler = NewAssembler(cat)
	p.registry = ml.NewRegistry(ml.NewStore(t.TempDir()), p.bounds, cat.Features.Names(), logger)

	if ranker == nil {
		ranker = NewModelRanker(p.registry)
	}
	p.recommender = NewRecommender(p.builder, p.axes, p.macro, p.amplifier, ranker, p.gate, p.assembler, logger).
		WithFallback(NewAxisRanker(p.axes))
	return p
}

// profileOf completa con el valor base de cada clase y aplica overrides.
func profileOf(t *testing.T, fs *domain.FeatureSet, overrides map[string]float64) domain.Profile {
	t.Helper()
	values := make([]float64, fs.Len())
	for i := range values {
		values[i] = BaseValue(fs.ClassAt(i))
		if v, ok := overrides[fs.Name(i)]; ok {
			values[i] = v
		}
	}
	p, err := domain.NewProfile(fs, values)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

func cyberProfile(t *testing.T) domain.Profile {
	return profileOf(t, testCatalog(t).Features, map[string]float64{
		"Cyber Security":                  2.5,
		"Networking":                      2.5,
		"Computer Forensics Fundamentals": 2.5,
		"Troubleshooting skills":          2.5,
		"Graphics Designing":              1.0,
		"Business Analysis":               1.0,
		"Project Management":              1.0,
	})
}

type stubRanker struct {
	name  string
	preds []domain.Prediction
	err   error
	calls int
	last  RankRequest
}

func (s *stubRanker) Name() string { return s.name }

func (s *stubRanker) Rank(_ context.Context, req RankRequest) ([]domain.Prediction, error) {
	s.calls++
	s.last = req
	return s.preds, s.err
}

type staticBounds struct {
	bounds dataset.Bounds
	ok     bool
}

func (s staticBounds) Bounds() (dataset.Bounds, bool) { return s.bounds, s.ok }

// uniformBounds da a todas las features el mismo rango.
func uniformBounds(fs *domain.FeatureSet, lo, hi float64) staticBounds {
	ranges := make([]dataset.Range, fs.Len())
	for i := range ranges {
		ranges[i] = dataset.Range{Min: lo, Max: hi}
	}
	return staticBounds{bounds: dataset.NewBounds(fs.Names(), ranges), ok: true}
}
