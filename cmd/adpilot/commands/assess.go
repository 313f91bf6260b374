package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/adpilot/internal/contracts"
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "캠페인 품질 평가 (8차원)",
	Long: `캠페인 하나의 품질을 8개 차원으로 평가합니다.

차원:
  relevance, clarity, completeness, accuracy,
  consistency, effectiveness, compliance, performance

Example:
  go run ./cmd/adpilot assess --file campaign.json
  go run ./cmd/adpilot assess --campaign c-123 --output json`,
	RunE: runAssess,
}

var (
	assessFile     string
	assessCampaign string
	assessOutput   string
)

func init() {
	rootCmd.AddCommand(assessCmd)

	// Flags
	assessCmd.Flags().StringVarP(&assessFile, "file", "f", "", "campaign JSON 파일 (- = stdin)")
	assessCmd.Flags().StringVar(&assessCampaign, "campaign", "", "저장된 campaign id")
	assessCmd.Flags().StringVarP(&assessOutput, "output", "o", "text", "출력 형식 (text|json)")
	assessCmd.MarkFlagsMutuallyExclusive("file", "campaign")
	assessCmd.MarkFlagsOneRequired("file", "campaign")
}

func runAssess(cmd *cobra.Command, args []string) error {
	if err := checkOutput(assessOutput); err != nil {
		return err
	}

	a, err := newApp(appOptions{store: assessCampaign != "", logOutput: os.Stderr})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	var qa *contracts.QualityAssessment
	if assessCampaign != "" {
		qa, err = a.orchestrator.AssessCampaign(ctx, assessCampaign)
		if err != nil {
			return fmt.Errorf("assess campaign: %w", err)
		}
	} else {
		campaign, err := readCampaign(assessFile)
		if err != nil {
			return err
		}
		qa = a.orchestrator.AssessQuality(ctx, campaign)
	}

	if assessOutput == "json" {
		return PrintJSON(qa)
	}
	printQualityAssessment(qa)
	return nil
}

func printQualityAssessment(qa *contracts.QualityAssessment) {
	PrintHeader("Campaign Quality Assessment", [][2]string{
		{"Campaign", qa.CampaignID},
		{"Overall", fmt.Sprintf("%.1f (%s)", qa.OverallScore, qa.OverallLevel)},
		{"Assessed", qa.AssessedAt.Format(time.RFC3339)},
	})

	fmt.Println()
	widths := []int{22, 7, 9, 6}
	PrintTableHeader([]string{"DIMENSION", "SCORE", "LEVEL", "WEIGHT"}, widths)
	for _, m := range qa.Metrics {
		PrintTableRow([]string{
			string(m.Dimension),
			fmt.Sprintf("%.1f", m.Score),
			string(m.Level),
			fmt.Sprintf("%.2f", m.Weight),
		}, widths)
	}

	if len(qa.Strengths) > 0 {
		fmt.Println("\nStrengths:")
		PrintList(qa.Strengths)
	}
	if len(qa.Weaknesses) > 0 {
		fmt.Println("\nWeaknesses:")
		PrintList(qa.Weaknesses)
	}
	if len(qa.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		PrintList(qa.Recommendations)
	}
	fmt.Println()
}
