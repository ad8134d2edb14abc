// Package app orchestrates one entity's analysis pipeline: alignment, the
// interrupted-time-series estimate, lag search, causality testing, artifact
// reporting, and optional run persistence.
package app

import (
	"context"
	"path/filepath"
	"time"

	"policypulse/adapters/report"
	sentimentadapter "policypulse/adapters/sentiment"
	"policypulse/domain/core"
	"policypulse/domain/impact"
	"policypulse/domain/sentiment"
	"policypulse/domain/series"
	"policypulse/internal"
	"policypulse/internal/align"
	"policypulse/internal/causal"
	"policypulse/internal/errors"
	"policypulse/internal/granger"
	"policypulse/internal/lagsearch"
	"policypulse/ports"
)

// EntityRequest carries everything needed to analyze one entity. Control and
// Predictor are optional; Posts feed the sentiment leg when raw text is the
// predictor source.
type EntityRequest struct {
	Entity     core.EntityKey
	Outcome    series.ObservationSeries
	Control    series.ObservationSeries
	Predictor  series.ObservationSeries
	Posts      []sentiment.Post
	PolicyDate time.Time
	MaxLag     int
}

// EntityResult is the full output of one entity's pipeline run.
type EntityResult struct {
	Entity  core.EntityKey
	Monthly series.MonthlySeries

	PolicySummary  impact.PolicySummary
	Counterfactual impact.CounterfactualResult
	EffectSummary  impact.EffectSummary

	LagSelection *impact.LagSelection
	Causality    impact.CausalityResult
	Daily        []sentiment.DailyPoint

	ArtifactDir string
}

// ImpactService runs entity pipelines and writes their artifacts.
type ImpactService struct {
	log        *internal.Logger
	scorer     ports.SentimentScorer
	runs       RunSaver
	outputRoot string
}

// RunSaver is the slice of the run repository this service needs.
type RunSaver interface {
	Save(ctx context.Context, record impact.RunRecord) error
}

// NewImpactService wires an impact service. runs may be nil to skip
// persistence.
func NewImpactService(log *internal.Logger, scorer ports.SentimentScorer, runs RunSaver, outputRoot string) *ImpactService {
	return &ImpactService{log: log, scorer: scorer, runs: runs, outputRoot: outputRoot}
}

// AnalyzeEntity runs the full pipeline for one entity and writes its artifact
// tables under <outputRoot>/<entity>. Stages that depend on an absent optional
// input (predictor, posts) are skipped, not errors.
func (s *ImpactService) AnalyzeEntity(ctx context.Context, req EntityRequest) (*EntityResult, error) {
	if req.Entity.String() == "" {
		return nil, errors.InvalidInput("entity key is required")
	}
	if req.MaxLag < 1 {
		req.MaxLag = 6
	}

	monthly, err := align.Align(req.Outcome)
	if err != nil {
		return nil, errors.Wrapf(err, "aligning outcome for %s", req.Entity)
	}

	var control series.MonthlySeries
	if len(req.Control) > 0 {
		control, err = align.Align(req.Control)
		if err != nil {
			return nil, errors.Wrapf(err, "aligning control for %s", req.Entity)
		}
	}

	result := &EntityResult{Entity: req.Entity, Monthly: monthly}
	result.PolicySummary = causal.SummarizePolicy(monthly, req.PolicyDate)

	result.Counterfactual, result.EffectSummary, err = causal.Estimate(monthly, req.PolicyDate, control)
	if err != nil {
		return nil, errors.Wrapf(err, "estimating counterfactual for %s", req.Entity)
	}
	if result.EffectSummary.PostPeriodPoints == 0 {
		s.log.Stage("causal").Warn("%s: policy date falls after all data; effect metrics are undefined", req.Entity)
	}

	predictor, daily, err := s.resolvePredictor(req)
	if err != nil {
		return nil, err
	}
	result.Daily = daily

	if predictor != nil {
		selection, err := lagsearch.SearchLags(monthly, predictor, req.MaxLag)
		if err != nil {
			return nil, errors.Wrapf(err, "searching lags for %s", req.Entity)
		}
		result.LagSelection = &selection

		result.Causality, err = granger.TestCausality(monthly, predictor, req.MaxLag)
		if err != nil {
			return nil, errors.Wrapf(err, "testing causality for %s", req.Entity)
		}
	}

	if err := s.writeArtifacts(req, result); err != nil {
		return nil, err
	}
	if err := s.persistRun(ctx, req, result); err != nil {
		return nil, err
	}
	return result, nil
}

// resolvePredictor turns whichever predictor input the request carries into a
// monthly series: an explicit observation series wins, otherwise scored posts
// are aggregated daily and aligned.
func (s *ImpactService) resolvePredictor(req EntityRequest) (series.MonthlySeries, []sentiment.DailyPoint, error) {
	if len(req.Predictor) > 0 {
		monthly, err := align.Align(req.Predictor)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "aligning predictor for %s", req.Entity)
		}
		return monthly, nil, nil
	}
	if len(req.Posts) == 0 {
		return nil, nil, nil
	}
	if s.scorer == nil {
		return nil, nil, errors.InvalidInput("posts supplied but no sentiment scorer configured")
	}

	scored := sentimentadapter.ScorePosts(s.scorer, req.Posts)
	daily := sentimentadapter.AggregateDaily(scored)
	s.log.Stage("sentiment").Debug("%s: scored %d posts into %d daily points", req.Entity, len(scored), len(daily))
	monthly, err := align.Align(sentimentadapter.ToObservations(daily))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "aligning sentiment for %s", req.Entity)
	}
	return monthly, daily, nil
}

func (s *ImpactService) writeArtifacts(req EntityRequest, result *EntityResult) error {
	dir := filepath.Join(s.outputRoot, req.Entity.String())
	writer, err := report.NewWriter(dir)
	if err != nil {
		return err
	}
	result.ArtifactDir = dir

	tables := []report.Table{
		report.MonthlySeriesTable(result.Monthly, req.PolicyDate),
		report.PolicySummaryTable(result.PolicySummary),
		report.CausalEffectsTable(result.Counterfactual),
		report.CausalSummaryTable(result.EffectSummary),
	}
	if result.LagSelection != nil {
		tables = append(tables,
			report.LagMetricsTable(result.LagSelection.Candidates),
			report.LagSummaryTable(*result.LagSelection),
			report.LagFitTable(*result.LagSelection),
			report.GrangerTable(result.Causality),
		)
	}
	if len(result.Daily) > 0 {
		tables = append(tables, report.SentimentDailyTable(result.Daily))
	}

	if err := writer.WriteAll(tables...); err != nil {
		return errors.Wrapf(err, "writing artifacts for %s", req.Entity)
	}
	if _, err := writer.WriteWorkbook("analysis.xlsx", tables...); err != nil {
		return errors.Wrapf(err, "writing workbook for %s", req.Entity)
	}
	s.log.Stage("report").Info("%s: wrote %d artifact tables to %s", req.Entity, len(tables), dir)
	return nil
}

func (s *ImpactService) persistRun(ctx context.Context, req EntityRequest, result *EntityResult) error {
	if s.runs == nil {
		return nil
	}
	record := impact.RunRecord{
		ID:               core.NewRunID(),
		Entity:           req.Entity,
		PolicyDate:       req.PolicyDate,
		AvgEffect:        result.EffectSummary.AvgEffect,
		TotalEffect:      result.EffectSummary.TotalEffect,
		RSquared:         result.EffectSummary.RSquared,
		PostPeriodPoints: result.EffectSummary.PostPeriodPoints,
		CreatedAt:        time.Now().UTC(),
	}
	if result.LagSelection != nil {
		record.BestLag = result.LagSelection.Best.Lag
		record.BestR2 = result.LagSelection.Best.R2
		record.BestRMSE = result.LagSelection.Best.RMSE
	}
	if err := s.runs.Save(ctx, record); err != nil {
		return errors.Wrapf(err, "persisting run for %s", req.Entity)
	}
	return nil
}
