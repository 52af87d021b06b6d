package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vocational-ai/internal/domain"
	"vocational-ai/internal/metrics"
)

// DefaultLookaheadFactor multiplica top al pedir el ranking para que el
// filtro de requisitos casi nunca se quede sin candidatas.
const DefaultLookaheadFactor = 4

var ErrRecommenderNotConfigured = errors.New("recommender not configured")

// Analysis es el estado intermedio del pipeline, útil para diagnóstico.
type Analysis struct {
	Profile    domain.Profile
	Axis       domain.AxisResult
	Candidates []string
	Macro      domain.MacroCategory
	Dominance  float64
}

// Recommender orquesta build → eje → amplificación → ranking → requisitos → ensamblado.
type Recommender struct {
	builder   *ProfileBuilder
	axes      *AxisClassifier
	macro     *MacroClassifier
	amplifier *Amplifier
	ranker    Ranker
	fallback  Ranker
	gate      *RequirementGate
	assembler *Assembler
	lookahead int
	logger    *zap.Logger
}

func NewRecommender(
	builder *ProfileBuilder,
	axes *AxisClassifier,
	macro *MacroClassifier,
	amplifier *Amplifier,
	ranker Ranker,
	gate *RequirementGate,
	assembler *Assembler,
	logger *zap.Logger,
) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		builder:   builder,
		axes:      axes,
		macro:     macro,
		amplifier: amplifier,
		ranker:    ranker,
		gate:      gate,
		assembler: assembler,
		lookahead: DefaultLookaheadFactor,
		logger:    logger,
	}
}

// WithFallback define la estrategia usada si la principal falla.
func (r *Recommender) WithFallback(fallback Ranker) *Recommender {
	r.fallback = fallback
	return r
}

func (r *Recommender) WithLookahead(factor int) *Recommender {
	if factor > 0 {
		r.lookahead = factor
	}
	return r
}

func (r *Recommender) configured() bool {
	return r != nil && r.builder != nil && r.axes != nil && r.macro != nil &&
		r.amplifier != nil && r.ranker != nil && r.gate != nil && r.assembler != nil
}

// Recommend devuelve hasta top recomendaciones. Sin respuestas devuelve una
// lista vacía sin error.
func (r *Recommender) Recommend(ctx context.Context, answers []domain.Answer, top int) ([]domain.Recommendation, error) {
	if !r.configured() {
		return nil, ErrRecommenderNotConfigured
	}
	if len(answers) == 0 {
		metrics.RecordRecommendation(r.ranker.Name(), "empty")
		return []domain.Recommendation{}, nil
	}
	return r.RecommendProfile(ctx, r.builder.Build(answers), top)
}

// Analyze corre la parte determinista del pipeline sin rankear.
func (r *Recommender) Analyze(answers []domain.Answer) (Analysis, error) {
	if !r.configured() {
		return Analysis{}, ErrRecommenderNotConfigured
	}
	return r.AnalyzeProfile(r.builder.Build(answers)), nil
}

func (r *Recommender) AnalyzeProfile(p domain.Profile) Analysis {
	axis := r.axes.Select(p)
	return Analysis{
		Profile:    p,
		Axis:       axis,
		Candidates: r.axes.Candidates(axis),
		Macro:      r.macro.Classify(p),
		Dominance:  r.macro.Dominance(p),
	}
}

// RecommendProfile corre el pipeline sobre un perfil ya construido.
func (r *Recommender) RecommendProfile(ctx context.Context, p domain.Profile, top int) ([]domain.Recommendation, error) {
	if !r.configured() {
		return nil, ErrRecommenderNotConfigured
	}
	if top <= 0 {
		top = DefaultTop
	}
	a := r.AnalyzeProfile(p)
	req := RankRequest{
		Profile:    p,
		Vector:     r.amplifier.Amplify(p.Vector(), p),
		Axis:       a.Axis,
		Candidates: a.Candidates,
		K:          min(len(a.Candidates), max(top*r.lookahead, top)),
	}

	ranker := r.ranker
	ranked, err := ranker.Rank(ctx, req)
	if err != nil && r.fallback != nil && ctx.Err() == nil {
		metrics.RecordModelFallback()
		r.logger.Warn("ranker failed, using fallback",
			zap.String("ranker", ranker.Name()),
			zap.String("fallback", r.fallback.Name()),
			zap.Error(err),
		)
		ranker = r.fallback
		ranked, err = ranker.Rank(ctx, req)
	}
	if err != nil {
		metrics.RecordRecommendation(ranker.Name(), "error")
		return nil, fmt.Errorf("rank careers: %w", err)
	}

	passing := r.gate.Filter(ranked, p, top)
	recs := r.assembler.Assemble(p, a.Axis, passing, top)

	metrics.RecordRecommendation(ranker.Name(), "success")
	r.logger.Debug("recommendation ready",
		zap.String("ranker", ranker.Name()),
		zap.String("axis", a.Axis.Primary),
		zap.Bool("hybrid", a.Axis.IsHybrid),
		zap.Int("candidates", len(a.Candidates)),
		zap.Int("ranked", len(ranked)),
		zap.Int("results", len(recs)),
	)
	return recs, nil
}
