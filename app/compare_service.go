package app

import (
	"context"
	"math"
	"sort"

	"policypulse/adapters/report"
	"policypulse/domain/impact"
	"policypulse/internal"
	"policypulse/internal/errors"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// CompareService analyzes several entities and merges their policy summaries
// into one ranked comparison table. Entities share no mutable state, so their
// pipelines run concurrently.
type CompareService struct {
	log     *internal.Logger
	impacts *ImpactService
}

// NewCompareService wires a compare service on top of an impact service.
func NewCompareService(log *internal.Logger, impacts *ImpactService) *CompareService {
	return &CompareService{log: log, impacts: impacts}
}

// CompareEntities runs every entity pipeline concurrently, then builds and
// writes the cross-entity comparison. Any entity failure fails the whole
// comparison: a ranking over a partial set would be misleading.
func (s *CompareService) CompareEntities(ctx context.Context, outputDir string, requests []EntityRequest) ([]impact.EntityComparison, error) {
	if len(requests) < 2 {
		return nil, errors.InvalidInput("comparison needs at least two entities")
	}

	results := make([]*EntityResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := s.impacts.AnalyzeEntity(gctx, req)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comparisons := make([]impact.EntityComparison, len(results))
	for i, result := range results {
		comparisons[i] = impact.EntityComparison{
			Entity:        result.Entity,
			PrePolicyAvg:  result.PolicySummary.PrePolicyAvg,
			PostPolicyAvg: result.PolicySummary.PostPolicyAvg,
			PercentChange: result.PolicySummary.PercentChange,
		}
		if len(result.Daily) > 0 {
			comparisons[i].HasSentiment = true
			comparisons[i].AvgSentiment, comparisons[i].Posts = sentimentSummary(result)
		}
	}
	rankByPercentChange(comparisons)

	writer, err := report.NewWriter(outputDir)
	if err != nil {
		return nil, err
	}
	if _, err := writer.WriteCSV(report.ComparisonTable(comparisons)); err != nil {
		return nil, errors.Wrap(err, "writing comparison table")
	}
	s.log.Stage("compare").Info("compared %d entities into %s", len(comparisons), outputDir)
	return comparisons, nil
}

func sentimentSummary(result *EntityResult) (float64, int) {
	compounds := make([]float64, len(result.Daily))
	posts := 0
	for i, d := range result.Daily {
		compounds[i] = d.AvgCompound
		posts += d.Posts
	}
	avg, _ := stats.Mean(compounds)
	return avg, posts
}

// rankByPercentChange assigns dense effectiveness ranks, best percent change
// first. Entities with NaN percent change sort last and share the bottom rank.
func rankByPercentChange(comparisons []impact.EntityComparison) {
	order := make([]int, len(comparisons))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := comparisons[order[a]].PercentChange, comparisons[order[b]].PercentChange
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vb) {
			return true
		}
		return va > vb
	})

	rank := 0
	first := true
	var prev float64
	prevNaN := false
	for _, idx := range order {
		v := comparisons[idx].PercentChange
		vNaN := math.IsNaN(v)
		if first || vNaN != prevNaN || (!vNaN && v != prev) {
			rank++
		}
		first = false
		prev, prevNaN = v, vNaN
		comparisons[idx].EffectivenessRank = rank
	}
}
