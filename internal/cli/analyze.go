package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/service"
	"purchase-patterns/internal/source"

	"github.com/spf13/cobra"
)

const offlineUserID = "offline"

var errReadOnly = errors.New("history file is read-only")

var (
	analyzeFile      string
	analyzeDate      string
	analyzeSeason    string
	analyzeRules     string
	analyzeThreshold float64
	analyzeDays      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a purchase history file",
	Long: `Analyze a purchase history JSON file (user_id, orders, seasonal_patterns,
reorder_feedback) and print the usual basket, shopping patterns, reorder cycles,
due items, reminders, bundles and household estimate as JSON. With --season the
seasonal items and per-SKU predictions for that season are added.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to the purchase history JSON file")
	analyzeCmd.Flags().StringVarP(&analyzeDate, "date", "d", "", "Analysis date as YYYY-MM-DD or RFC3339 (default: now)")
	analyzeCmd.Flags().StringVarP(&analyzeSeason, "season", "s", "", "Season for seasonal items and predictions")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "Path to a seasonal rules JSON file")
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", patterns.UseDefault, "Usual basket confidence threshold (negative = configured default)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", patterns.UseDefault, "Reminder horizon in days (negative = configured default)")
	_ = analyzeCmd.MarkFlagRequired("file")
}

// Report is the output of the analyze command
type Report struct {
	*models.Insights
	Season      string                     `json:"season,omitempty"`
	Seasonal    []models.SeasonalUsualItem `json:"seasonal_items,omitempty"`
	Predictions []models.ReorderPrediction `json:"predictions,omitempty"`
}

// AnalyzeOptions tunes a report. A negative Threshold or DaysAhead keeps the configured value.
type AnalyzeOptions struct {
	Now       time.Time
	Season    string
	Threshold float64
	DaysAhead int
	Config    patterns.Config
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(analyzeFile)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	var h models.PurchaseHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}

	opts := AnalyzeOptions{
		Now:       time.Now().UTC(),
		Season:    analyzeSeason,
		Threshold: analyzeThreshold,
		DaysAhead: analyzeDays,
		Config:    patterns.DefaultConfig(),
	}
	if analyzeDate != "" {
		opts.Now = models.ParseTimestamp(analyzeDate)
		if opts.Now.IsZero() {
			return models.ErrInvalidDate
		}
	}
	if analyzeRules != "" {
		raw, err := os.ReadFile(analyzeRules)
		if err != nil {
			return fmt.Errorf("failed to read seasonal rules: %w", err)
		}
		if opts.Config.SeasonalRules, err = patterns.ParseSeasonalRules(raw); err != nil {
			return err
		}
	}

	report, err := Analyze(cmd.Context(), &h, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Analyze runs the pattern service over a single in-memory history
func Analyze(ctx context.Context, h *models.PurchaseHistory, opts AnalyzeOptions) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if h.UserID == "" {
		h.UserID = offlineUserID
	}

	usual := patterns.NewUsualBasketEngine(opts.Config)
	cycles := patterns.NewReorderCycleEngine(opts.Config)
	selector := source.NewSelector(source.NewStatisticalSource(usual), nil)
	svc := service.NewPatternService(historyFile{history: h}, nil, nil, usual, cycles, selector, 0)

	insights, err := svc.Insights(ctx, h.UserID, opts.Now)
	if err != nil {
		return nil, err
	}
	report := &Report{Insights: insights}

	if opts.Threshold >= 0 {
		if report.UsualBasket, err = svc.UsualBasket(ctx, h.UserID, opts.Threshold); err != nil {
			return nil, err
		}
	}
	if opts.DaysAhead >= 0 {
		if report.Reminders, err = svc.Reminders(ctx, h.UserID, opts.Now, opts.DaysAhead); err != nil {
			return nil, err
		}
	}

	season := strings.ToLower(strings.TrimSpace(opts.Season))
	if season == "" {
		return report, nil
	}
	report.Season = season
	if report.Seasonal, err = svc.SeasonalItems(ctx, h.UserID, season); err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(insights.Cycles))
	for sku := range insights.Cycles {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	for _, sku := range skus {
		p, err := svc.PredictReorderDate(ctx, h.UserID, sku, season)
		if err != nil {
			return nil, err
		}
		report.Predictions = append(report.Predictions, p)
	}
	return report, nil
}

// historyFile serves one decoded history file to the pattern service
type historyFile struct {
	history *models.PurchaseHistory
}

func (f historyFile) GetPurchaseHistory(_ context.Context, userID string) (*models.PurchaseHistory, error) {
	if userID != f.history.UserID {
		return &models.PurchaseHistory{UserID: userID}, nil
	}
	return f.history, nil
}

func (f historyFile) AddReorderFeedback(context.Context, string, *models.ReorderFeedback) error {
	return errReadOnly
}

func (f historyFile) SetSeasonalPatterns(context.Context, string, string, []string) error {
	return errReadOnly
}
