package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	engineConfigPath string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adpilot",
	Short: "adpilot - 광고 캠페인 최적화 엔진",
	Long: `adpilot Unified CLI

검색 광고 캠페인을 분석해 우선순위가 매겨진 추천과
성과 예측, 8차원 품질 평가를 생성합니다.

Usage:
  go run ./cmd/adpilot [command]

Examples:
  go run ./cmd/adpilot optimize --file campaign.json --goals maximize_conversions
  go run ./cmd/adpilot assess --file campaign.json
  go run ./cmd/adpilot api
  go run ./cmd/adpilot scheduler start
  go run ./cmd/adpilot engine-config validate config/engine.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&engineConfigPath, "engine-config", "", "engine YAML (default: $ENGINE_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
