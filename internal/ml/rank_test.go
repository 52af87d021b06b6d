package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocational-ai/internal/domain"
)

func preds(pairs ...interface{}) []domain.Prediction {
	var out []domain.Prediction
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.Prediction{Career: pairs[i].(string), Probability: pairs[i+1].(float64)})
	}
	return out
}

func TestRankProbabilitiesTopTwoRebalance(t *testing.T) {
	in := preds("a", 0.05, "b", 0.38, "c", 0.10, "d", 0.40)

	got := RankProbabilities(in, 3, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Career)
	assert.Equal(t, "b", got[1].Career)
	assert.InDelta(t, 0.5128, got[0].Probability, 1e-4)
	assert.InDelta(t, 0.4872, got[1].Probability, 1e-4)
	assert.InDelta(t, 1.0, got[0].Probability+got[1].Probability, 1e-12)
	assert.InDelta(t, 0.40/0.38, got[0].Probability/got[1].Probability, 1e-12)
}

func TestRankProbabilitiesClearWinnerKeepsTopK(t *testing.T) {
	in := preds("a", 0.70, "b", 0.20, "c", 0.06, "d", 0.04)

	got := RankProbabilities(in, 2, nil)
	assert.Equal(t, preds("a", 0.70, "b", 0.20), got)

	got = RankProbabilities(in, 5, nil)
	assert.Equal(t, preds("a", 0.70, "b", 0.20, "c", 0.06), got, "unrestricted call drops values under the cutoff")
}

func TestRankProbabilitiesRestrictionSkipsCutoff(t *testing.T) {
	in := preds("a", 0.90, "b", 0.04, "c", 0.01, "d", 0.05)

	got := RankProbabilities(in, 4, []string{"b", "c"})

	require.Len(t, got, 2)
	// 0.04 y 0.01 están a menos de 0.25: se rebalancean aunque ambos estén bajo el umbral global.
	assert.Equal(t, "b", got[0].Career)
	assert.InDelta(t, 0.8, got[0].Probability, 1e-12)
	assert.InDelta(t, 0.2, got[1].Probability, 1e-12)
}

func TestRankProbabilitiesRestrictionToSingleLabel(t *testing.T) {
	in := preds("a", 0.97, "b", 0.02, "c", 0.01)

	got := RankProbabilities(in, 3, []string{"c", "zzz"})
	assert.Equal(t, preds("c", 0.01), got)
}

func TestRankProbabilitiesEdgeCases(t *testing.T) {
	assert.Empty(t, RankProbabilities(nil, 3, nil))
	assert.Empty(t, RankProbabilities(preds("a", 0.9), 3, []string{}))

	zeros := RankProbabilities(preds("a", 0.0, "b", 0.0), 3, []string{"a", "b"})
	assert.Equal(t, preds("a", 0.0, "b", 0.0), zeros, "zero mass is not renormalized")
}
