package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"policypulse/adapters/csvsource"
	"policypulse/adapters/fred"
	"policypulse/adapters/httpapi"
	"policypulse/adapters/postgres"
	"policypulse/adapters/report"
	sentimentadapter "policypulse/adapters/sentiment"
	"policypulse/app"
	"policypulse/domain/core"
	"policypulse/domain/series"
	"policypulse/internal"
	"policypulse/internal/align"
	"policypulse/internal/causal"
	"policypulse/internal/config"
	"policypulse/internal/granger"
	"policypulse/internal/lagsearch"
	"policypulse/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "policypulse",
		Short: "Policy impact and sentiment lead-time analytics",
		Long: `policypulse estimates the causal effect of a policy intervention on a
monthly outcome series, searches for the lead time at which public sentiment
best predicts the outcome, and runs Granger-style causality tests.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newFetchCmd(),
		newSentimentCmd(),
		newEDACmd(),
		newCausalCmd(),
		newLagsCmd(),
		newGrangerCmd(),
		newRunCmd(),
		newCompareCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFetchCmd() *cobra.Command {
	var seriesID, output string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a FRED series to a local CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client := fred.NewClient(cfg.Fred.BaseURL, cfg.Fred.Timeout)
			observations, err := client.Fetch(cmd.Context(), core.SeriesKey(seriesID))
			if err != nil {
				return err
			}
			if err := writeObservationsCSV(output, observations); err != nil {
				return err
			}
			fmt.Printf("Saved %d rows to %s\n", len(observations), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&seriesID, "series-id", "", "FRED series ID, e.g. ATNHPIUS35620Q")
	cmd.Flags().StringVar(&output, "output", "", "Output CSV path")
	_ = cmd.MarkFlagRequired("series-id")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newSentimentCmd() *cobra.Command {
	var input, outputDir string
	var idCol, dateCol, titleCol, bodyCol string

	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Score collected posts with the lexicon and aggregate daily",
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := csvsource.NewReader(input).ReadPosts(idCol, dateCol, titleCol, bodyCol)
			if err != nil {
				return err
			}
			scored := sentimentadapter.ScorePosts(sentimentadapter.NewLexiconScorer(), posts)
			daily := sentimentadapter.AggregateDaily(scored)

			writer, err := report.NewWriter(outputDir)
			if err != nil {
				return err
			}
			path, err := writer.WriteCSV(report.SentimentDailyTable(daily))
			if err != nil {
				return err
			}
			fmt.Printf("Saved daily summary: %d rows to %s\n", len(daily), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Collected posts CSV")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports", "Output directory")
	cmd.Flags().StringVar(&idCol, "id-col", "id", "Post ID column")
	cmd.Flags().StringVar(&dateCol, "date-col", "created_utc", "Post date column")
	cmd.Flags().StringVar(&titleCol, "title-col", "title", "Title column")
	cmd.Flags().StringVar(&bodyCol, "body-col", "body", "Body column")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newEDACmd() *cobra.Command {
	var input, dateCol, valueCol, policyDate, outputDir string

	cmd := &cobra.Command{
		Use:   "eda",
		Short: "Monthly trend and pre/post policy summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := core.ParseDate(policyDate)
			if err != nil {
				return err
			}
			monthly, err := loadMonthly(input, dateCol, valueCol)
			if err != nil {
				return err
			}
			summary := causal.SummarizePolicy(monthly, policy)

			writer, err := report.NewWriter(outputDir)
			if err != nil {
				return err
			}
			if err := writer.WriteAll(
				report.MonthlySeriesTable(monthly, policy),
				report.PolicySummaryTable(summary),
			); err != nil {
				return err
			}
			fmt.Printf("Saved monthly series: %d rows\n", len(monthly))
			fmt.Printf("pre_policy_avg=%.4f post_policy_avg=%.4f percent_change=%.4f\n",
				summary.PrePolicyAvg, summary.PostPolicyAvg, summary.PercentChange)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input CSV path")
	cmd.Flags().StringVar(&dateCol, "date-col", "date", "Date column name")
	cmd.Flags().StringVar(&valueCol, "value-col", "", "Outcome value column name")
	cmd.Flags().StringVar(&policyDate, "policy-date", "", "Policy start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports", "Output directory")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("value-col")
	_ = cmd.MarkFlagRequired("policy-date")
	return cmd
}

func newCausalCmd() *cobra.Command {
	var treatedInput, dateCol, valueCol, policyDate, outputDir string
	var controlInput, controlValueCol string

	cmd := &cobra.Command{
		Use:   "causal",
		Short: "Interrupted time series estimate with counterfactual trajectory",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := core.ParseDate(policyDate)
			if err != nil {
				return err
			}
			outcome, err := loadMonthly(treatedInput, dateCol, valueCol)
			if err != nil {
				return err
			}

			var control series.MonthlySeries
			if controlInput != "" {
				if control, err = loadMonthly(controlInput, dateCol, controlValueCol); err != nil {
					return err
				}
			}

			result, summary, err := causal.Estimate(outcome, policy, control)
			if err != nil {
				return err
			}

			writer, err := report.NewWriter(outputDir)
			if err != nil {
				return err
			}
			if err := writer.WriteAll(
				report.CausalEffectsTable(result),
				report.CausalSummaryTable(summary),
			); err != nil {
				return err
			}
			fmt.Printf("Saved causal effects: %d rows\n", len(result))
			fmt.Printf("avg_effect=%.4f total_effect=%.4f r_squared=%.4f post_points=%d\n",
				summary.AvgEffect, summary.TotalEffect, summary.RSquared, summary.PostPeriodPoints)
			return nil
		},
	}

	cmd.Flags().StringVar(&treatedInput, "treated-input", "", "Treated series CSV")
	cmd.Flags().StringVar(&dateCol, "date-col", "DATE", "Date column name")
	cmd.Flags().StringVar(&valueCol, "value-col", "", "Treated value column name")
	cmd.Flags().StringVar(&policyDate, "policy-date", "", "Policy start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports", "Output directory")
	cmd.Flags().StringVar(&controlInput, "control-input", "", "Optional control series CSV")
	cmd.Flags().StringVar(&controlValueCol, "control-value-col", "", "Control value column name")
	_ = cmd.MarkFlagRequired("treated-input")
	_ = cmd.MarkFlagRequired("value-col")
	_ = cmd.MarkFlagRequired("policy-date")
	return cmd
}

func newLagsCmd() *cobra.Command {
	var outcomeInput, dateCol, valueCol string
	var sentimentInput, sentimentDateCol, sentimentValueCol string
	var outputDir string
	var maxLag int

	cmd := &cobra.Command{
		Use:   "lags",
		Short: "Lag search and Granger causality test for a predictor series",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := loadMonthly(outcomeInput, dateCol, valueCol)
			if err != nil {
				return err
			}
			predictor, err := loadMonthly(sentimentInput, sentimentDateCol, sentimentValueCol)
			if err != nil {
				return err
			}

			selection, err := lagsearch.SearchLags(outcome, predictor, maxLag)
			if err != nil {
				return err
			}
			causality, err := granger.TestCausality(outcome, predictor, maxLag)
			if err != nil {
				return err
			}

			writer, err := report.NewWriter(outputDir)
			if err != nil {
				return err
			}
			if err := writer.WriteAll(
				report.LagMetricsTable(selection.Candidates),
				report.LagSummaryTable(selection),
				report.LagFitTable(selection),
				report.GrangerTable(causality),
			); err != nil {
				return err
			}
			fmt.Printf("best_lag=%d r2=%.4f rmse=%.4f\n",
				selection.Best.Lag, selection.Best.R2, selection.Best.RMSE)
			for _, p := range causality {
				fmt.Printf("lag=%d ssr_ftest_pvalue=%.4f\n", p.Lag, p.PValue)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outcomeInput, "outcome-input", "", "Outcome series CSV")
	cmd.Flags().StringVar(&dateCol, "date-col", "month", "Outcome date column")
	cmd.Flags().StringVar(&valueCol, "value-col", "monthly_avg_value", "Outcome value column")
	cmd.Flags().StringVar(&sentimentInput, "sentiment-input", "", "Daily sentiment CSV")
	cmd.Flags().StringVar(&sentimentDateCol, "sentiment-date-col", "date", "Sentiment date column")
	cmd.Flags().StringVar(&sentimentValueCol, "sentiment-value-col", "avg_compound", "Sentiment value column")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports/prediction", "Output directory")
	cmd.Flags().IntVar(&maxLag, "max-lag", 6, "Maximum lag in months")
	_ = cmd.MarkFlagRequired("outcome-input")
	_ = cmd.MarkFlagRequired("sentiment-input")
	return cmd
}

func newGrangerCmd() *cobra.Command {
	var outcomeInput, dateCol, valueCol string
	var sentimentInput, sentimentDateCol, sentimentValueCol string
	var outputDir string
	var maxLag int

	cmd := &cobra.Command{
		Use:   "granger",
		Short: "Granger causality test only, without the lag model search",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := loadMonthly(outcomeInput, dateCol, valueCol)
			if err != nil {
				return err
			}
			predictor, err := loadMonthly(sentimentInput, sentimentDateCol, sentimentValueCol)
			if err != nil {
				return err
			}

			causality, err := granger.TestCausality(outcome, predictor, maxLag)
			if err != nil {
				return err
			}

			writer, err := report.NewWriter(outputDir)
			if err != nil {
				return err
			}
			if _, err := writer.WriteCSV(report.GrangerTable(causality)); err != nil {
				return err
			}
			for _, p := range causality {
				fmt.Printf("lag=%d ssr_ftest_pvalue=%.4f\n", p.Lag, p.PValue)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outcomeInput, "outcome-input", "", "Outcome series CSV")
	cmd.Flags().StringVar(&dateCol, "date-col", "month", "Outcome date column")
	cmd.Flags().StringVar(&valueCol, "value-col", "monthly_avg_value", "Outcome value column")
	cmd.Flags().StringVar(&sentimentInput, "sentiment-input", "", "Daily sentiment CSV")
	cmd.Flags().StringVar(&sentimentDateCol, "sentiment-date-col", "date", "Sentiment date column")
	cmd.Flags().StringVar(&sentimentValueCol, "sentiment-value-col", "avg_compound", "Sentiment value column")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports/prediction", "Output directory")
	cmd.Flags().IntVar(&maxLag, "max-lag", 6, "Maximum lag in months")
	_ = cmd.MarkFlagRequired("outcome-input")
	_ = cmd.MarkFlagRequired("sentiment-input")
	return cmd
}

func newRunCmd() *cobra.Command {
	var entity, input, dateCol, valueCol, policyDate string
	var controlInput, controlValueCol, postsInput string
	var maxLag int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Full pipeline for one entity: EDA, counterfactual, lags, causality",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := internal.NewDefaultLogger()

			req, err := buildEntityRequest(entity, input, dateCol, valueCol, policyDate,
				controlInput, controlValueCol, postsInput, maxLag)
			if err != nil {
				return err
			}

			service := app.NewImpactService(log, sentimentadapter.NewLexiconScorer(),
				optionalRepository(cfg, log), cfg.Paths.OutputDir)
			result, err := service.AnalyzeEntity(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote artifacts for %s to %s\n", result.Entity, result.ArtifactDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Entity name, e.g. los-angeles")
	cmd.Flags().StringVar(&input, "input", "", "Outcome series CSV")
	cmd.Flags().StringVar(&dateCol, "date-col", "DATE", "Date column name")
	cmd.Flags().StringVar(&valueCol, "value-col", "", "Outcome value column name")
	cmd.Flags().StringVar(&policyDate, "policy-date", "", "Policy start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&controlInput, "control-input", "", "Optional control series CSV")
	cmd.Flags().StringVar(&controlValueCol, "control-value-col", "", "Control value column name")
	cmd.Flags().StringVar(&postsInput, "posts-input", "", "Optional collected posts CSV for the sentiment leg")
	cmd.Flags().IntVar(&maxLag, "max-lag", 6, "Maximum lag in months")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("value-col")
	_ = cmd.MarkFlagRequired("policy-date")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var entities []string
	var dateCol, valueCol, policyDate, outputDir string
	var maxLag int

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run several entities concurrently and rank their policy response",
		Long: `Each --entity takes "name=outcome.csv". All entities share the policy date
and column names; per-entity artifacts land under the output directory next to
the comparison table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := internal.NewDefaultLogger()

			policy, err := core.ParseDate(policyDate)
			if err != nil {
				return err
			}

			var requests []app.EntityRequest
			for _, spec := range entities {
				name, path, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("invalid --entity %q (want name=path)", spec)
				}
				observations, err := csvsource.NewReader(path).ReadSeries(dateCol, valueCol)
				if err != nil {
					return err
				}
				requests = append(requests, app.EntityRequest{
					Entity:     core.EntityKey(name),
					Outcome:    observations,
					PolicyDate: policy,
					MaxLag:     maxLag,
				})
			}

			impacts := app.NewImpactService(log, sentimentadapter.NewLexiconScorer(),
				optionalRepository(cfg, log), outputDir)
			compare := app.NewCompareService(log, impacts)
			comparisons, err := compare.CompareEntities(cmd.Context(), outputDir, requests)
			if err != nil {
				return err
			}
			for _, c := range comparisons {
				fmt.Printf("%-20s percent_change=%.4f rank=%d\n",
					c.Entity, c.PercentChange, c.EffectivenessRank)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&entities, "entity", nil, `Entity spec "name=outcome.csv" (repeatable)`)
	cmd.Flags().StringVar(&dateCol, "date-col", "DATE", "Date column name")
	cmd.Flags().StringVar(&valueCol, "value-col", "", "Outcome value column name")
	cmd.Flags().StringVar(&policyDate, "policy-date", "", "Policy start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports/comparison", "Output directory")
	cmd.Flags().IntVar(&maxLag, "max-lag", 6, "Maximum lag in months")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("value-col")
	_ = cmd.MarkFlagRequired("policy-date")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run summaries and artifact tables over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := internal.NewDefaultLogger()

			server := httpapi.NewServer(cfg.Paths.OutputDir, optionalRepository(cfg, log), log)
			return server.ListenAndServe(cfg.Server.Port)
		},
	}
	return cmd
}

// loadMonthly reads a dated value column and aligns it onto the monthly grid.
func loadMonthly(path, dateCol, valueCol string) (series.MonthlySeries, error) {
	observations, err := csvsource.NewReader(path).ReadSeries(dateCol, valueCol)
	if err != nil {
		return nil, err
	}
	return align.Align(observations)
}

// buildEntityRequest loads the input files a single-entity run needs.
func buildEntityRequest(entity, input, dateCol, valueCol, policyDate,
	controlInput, controlValueCol, postsInput string, maxLag int) (app.EntityRequest, error) {

	policy, err := core.ParseDate(policyDate)
	if err != nil {
		return app.EntityRequest{}, err
	}
	key, err := core.ParseEntityKey(entity)
	if err != nil {
		return app.EntityRequest{}, err
	}
	req := app.EntityRequest{
		Entity:     key,
		PolicyDate: policy,
		MaxLag:     maxLag,
	}

	if req.Outcome, err = csvsource.NewReader(input).ReadSeries(dateCol, valueCol); err != nil {
		return app.EntityRequest{}, err
	}
	if controlInput != "" {
		if req.Control, err = csvsource.NewReader(controlInput).ReadSeries(dateCol, controlValueCol); err != nil {
			return app.EntityRequest{}, err
		}
	}
	if postsInput != "" {
		if req.Posts, err = csvsource.NewReader(postsInput).ReadPosts("id", "created_utc", "title", "body"); err != nil {
			return app.EntityRequest{}, err
		}
	}
	return req, nil
}

// optionalRepository connects run persistence when DATABASE_URL is set.
func optionalRepository(cfg *config.Config, log *internal.Logger) ports.RunRepository {
	if cfg.Database.URL == "" {
		return nil
	}
	repo, err := postgres.NewRunRepository(cfg.Database.URL)
	if err != nil {
		log.Warn("run persistence disabled: %v", err)
		return nil
	}
	return repo
}

func writeObservationsCSV(path string, observations series.ObservationSeries) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"DATE", "value"}); err != nil {
		return err
	}
	for _, obs := range observations {
		if err := w.Write([]string{
			obs.Timestamp.Format("2006-01-02"),
			fmt.Sprintf("%g", obs.Value),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
