package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/contracts"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "캠페인 최적화 추천 생성",
	Long: `캠페인 하나를 분석해 우선순위가 매겨진 추천과 성과 예측을 출력합니다.

입력:
- --file: campaign JSON 파일 ("-" = stdin)
- --campaign: 저장된 snapshot 의 campaign id (DATABASE_URL 필요)

Example:
  go run ./cmd/adpilot optimize --file campaign.json
  go run ./cmd/adpilot optimize --file campaign.json --goals maximize_conversions,target_cpa
  go run ./cmd/adpilot optimize --campaign c-123 --output json
  go run ./cmd/adpilot optimize --campaign c-123 --latest`,
	RunE: runOptimize,
}

var (
	optimizeFile      string
	optimizeCampaign  string
	optimizeGoals     string
	optimizeAutoApply bool
	optimizeOutput    string
	optimizeSave      bool
	optimizeLatest    bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	// Flags
	optimizeCmd.Flags().StringVarP(&optimizeFile, "file", "f", "", "campaign JSON 파일 (- = stdin)")
	optimizeCmd.Flags().StringVar(&optimizeCampaign, "campaign", "", "저장된 campaign id")
	optimizeCmd.Flags().StringVarP(&optimizeGoals, "goals", "g", "", "최적화 목표 (쉼표 구분)")
	optimizeCmd.Flags().BoolVar(&optimizeAutoApply, "auto-apply", false, "저위험/고신뢰 추천 자동 적용 표시")
	optimizeCmd.Flags().StringVarP(&optimizeOutput, "output", "o", "text", "출력 형식 (text|json)")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "결과를 DB 에 저장 (DATABASE_URL 필요)")
	optimizeCmd.Flags().BoolVar(&optimizeLatest, "latest", false, "저장된 최근 결과 출력 (--campaign 필요, 실행 안 함)")
	optimizeCmd.MarkFlagsMutuallyExclusive("file", "campaign")
	optimizeCmd.MarkFlagsMutuallyExclusive("latest", "file")
	optimizeCmd.MarkFlagsMutuallyExclusive("latest", "save")
	optimizeCmd.MarkFlagsOneRequired("file", "campaign")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if err := checkOutput(optimizeOutput); err != nil {
		return err
	}

	a, err := newApp(appOptions{store: optimizeCampaign != "" || optimizeSave, logOutput: os.Stderr})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	goals := splitList(optimizeGoals)

	var autoApply *bool
	if cmd.Flags().Changed("auto-apply") {
		autoApply = &optimizeAutoApply
	}

	var result *contracts.OptimizationResult
	switch {
	case optimizeLatest:
		store := a.store()
		if store == nil {
			return fmt.Errorf("--latest requires DATABASE_URL")
		}
		if result, err = store.LatestOptimization(ctx, optimizeCampaign); err != nil {
			return err
		}
	case optimizeCampaign != "":
		result = a.orchestrator.OptimizeCampaign(ctx, optimizeCampaign, goals, autoApply)
	default:
		campaign, err := readCampaign(optimizeFile)
		if err != nil {
			return err
		}
		result = a.orchestrator.Optimize(ctx, brain.Request{Campaign: campaign, Goals: goals, AutoApply: autoApply})
	}

	if optimizeSave {
		if store := a.store(); store != nil {
			if err := store.SaveOptimization(ctx, result); err != nil {
				return fmt.Errorf("save result: %w", err)
			}
		} else {
			a.log.Warn("--save ignored: DATABASE_URL not set")
		}
	}

	if optimizeOutput == "json" {
		if err := PrintJSON(result); err != nil {
			return err
		}
	} else {
		printOptimizationResult(result)
	}

	if !result.Success {
		return fmt.Errorf("optimization failed: %v", result.Errors)
	}
	return nil
}

func printOptimizationResult(r *contracts.OptimizationResult) {
	PrintHeader("Campaign Optimization", [][2]string{
		{"Campaign", r.CampaignID},
		{"State", string(r.State)},
		{"Score", fmt.Sprintf("%.1f / 100", r.OptimizationScore)},
		{"Goals", fmt.Sprint(r.Metadata.Goals)},
		{"Run ID", r.Metadata.RunID},
	})

	for _, e := range r.Errors {
		PrintError(e)
	}
	for _, w := range r.Warnings {
		PrintWarning(w)
	}

	if len(r.Recommendations) > 0 {
		fmt.Println()
		widths := []int{3, 9, 22, 5, 48}
		PrintTableHeader([]string{"#", "PRIORITY", "CATEGORY", "CONF", "TITLE"}, widths)
		for i, rec := range r.Recommendations {
			PrintTableRow([]string{
				fmt.Sprint(i + 1),
				string(rec.Priority),
				string(rec.Category),
				fmt.Sprintf("%.2f", rec.ConfidenceScore),
				rec.Title,
			}, widths)
		}
	}

	if fc := r.PerformanceForecast; len(fc.Forecasted) > 0 {
		fmt.Println()
		fmt.Printf("Forecast (confidence %.0f%%):\n", fc.ConfidenceLevel*100)
		for _, metric := range sortedKeys(fc.Forecasted) {
			ci := fc.ConfidenceIntervals[metric]
			PrintKeyValue(metric, fmt.Sprintf("%.4g → %.4g  [%.4g, %.4g]",
				fc.Baseline[metric], fc.Forecasted[metric], ci.Lower, ci.Upper), 20)
		}
	}

	if len(r.AppliedOptimizations) > 0 {
		fmt.Println()
		fmt.Println("Auto-applied:")
		PrintList(r.AppliedOptimizations)
	}

	fmt.Println()
	if r.Success {
		PrintSuccess(fmt.Sprintf("%d recommendations in %dms", len(r.Recommendations), r.Metadata.DurationMs))
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkOutput(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid --output %q (expected text or json)", format)
	}
	return nil
}
