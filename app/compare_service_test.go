package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	sentimentadapter "policypulse/adapters/sentiment"
	"policypulse/domain/core"
	"policypulse/domain/impact"
	"policypulse/internal"
	"policypulse/internal/errors"
	"policypulse/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareEntities_RanksByPercentChange(t *testing.T) {
	// Scenario: two entities with different post-policy jumps. The bigger
	// percent change must rank first and the comparison table must be written.
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	strong := testkit.StepSeries(start, 24, 12, 50, 20, 0.5, 81)
	weak := testkit.StepSeries(start, 24, 12, 50, 2, 0.5, 82)
	policyDate := start.AddDate(0, 12, 0)

	outputDir := t.TempDir()
	impacts := NewImpactService(internal.NewDefaultLogger(), sentimentadapter.NewLexiconScorer(), nil, outputDir)
	compare := NewCompareService(internal.NewDefaultLogger(), impacts)

	comparisons, err := compare.CompareEntities(context.Background(), outputDir, []EntityRequest{
		{Entity: core.EntityKey("weak-city"), Outcome: monthlyAsObservations(weak), PolicyDate: policyDate},
		{Entity: core.EntityKey("strong-city"), Outcome: monthlyAsObservations(strong), PolicyDate: policyDate},
	})
	require.NoError(t, err)
	require.Len(t, comparisons, 2)

	byEntity := map[core.EntityKey]impact.EntityComparison{}
	for _, c := range comparisons {
		byEntity[c.Entity] = c
	}
	assert.Equal(t, 1, byEntity[core.EntityKey("strong-city")].EffectivenessRank)
	assert.Equal(t, 2, byEntity[core.EntityKey("weak-city")].EffectivenessRank)
	assert.Greater(t,
		byEntity[core.EntityKey("strong-city")].PercentChange,
		byEntity[core.EntityKey("weak-city")].PercentChange)

	_, err = os.Stat(filepath.Join(outputDir, "cross_city_comparison.csv"))
	assert.NoError(t, err)
}

func TestCompareEntities_RequiresAtLeastTwo(t *testing.T) {
	impacts := NewImpactService(internal.NewDefaultLogger(), nil, nil, t.TempDir())
	compare := NewCompareService(internal.NewDefaultLogger(), impacts)

	_, err := compare.CompareEntities(context.Background(), t.TempDir(), []EntityRequest{
		{Entity: core.EntityKey("alone")},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestCompareEntities_OneFailureFailsTheComparison(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	good := testkit.StepSeries(start, 24, 12, 50, 5, 0.5, 83)

	outputDir := t.TempDir()
	impacts := NewImpactService(internal.NewDefaultLogger(), nil, nil, outputDir)
	compare := NewCompareService(internal.NewDefaultLogger(), impacts)

	_, err := compare.CompareEntities(context.Background(), outputDir, []EntityRequest{
		{Entity: core.EntityKey("good-city"), Outcome: monthlyAsObservations(good), PolicyDate: start.AddDate(0, 12, 0)},
		{Entity: core.EntityKey("bad-city"), PolicyDate: start.AddDate(0, 12, 0)}, // no outcome data
	})
	require.Error(t, err)
}

func TestRankByPercentChange_DenseRanksWithNaNLast(t *testing.T) {
	nan := math.NaN()
	comparisons := []impact.EntityComparison{
		{Entity: core.EntityKey("a"), PercentChange: 5},
		{Entity: core.EntityKey("b"), PercentChange: nan},
		{Entity: core.EntityKey("c"), PercentChange: 5},
		{Entity: core.EntityKey("d"), PercentChange: 2},
		{Entity: core.EntityKey("e"), PercentChange: nan},
	}

	rankByPercentChange(comparisons)

	ranks := map[core.EntityKey]int{}
	for _, c := range comparisons {
		ranks[c.Entity] = c.EffectivenessRank
	}
	// Ties share a rank, NaN entries sort last and share the bottom rank.
	assert.Equal(t, 1, ranks[core.EntityKey("a")])
	assert.Equal(t, 1, ranks[core.EntityKey("c")])
	assert.Equal(t, 2, ranks[core.EntityKey("d")])
	assert.Equal(t, 3, ranks[core.EntityKey("b")])
	assert.Equal(t, 3, ranks[core.EntityKey("e")])
}
