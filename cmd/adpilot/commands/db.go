package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/adpilot/internal/snapshot"
	"github.com/wonny/adpilot/pkg/config"
	"github.com/wonny/adpilot/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL snapshot 저장소 관리",
	Long: `campaign snapshot / 결과 저장소(PostgreSQL)를 관리합니다.

Subcommands:
  check    - 연결 테스트 + 풀 통계
  migrate  - adpilot 스키마 생성
  import   - campaign JSON 을 snapshot 으로 저장

Example:
  go run ./cmd/adpilot db check
  go run ./cmd/adpilot db migrate
  go run ./cmd/adpilot db import --file campaign.json`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "PostgreSQL 연결 테스트",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "adpilot 스키마 생성",
		RunE:  runDBMigrate,
	}

	dbImportCmd = &cobra.Command{
		Use:   "import",
		Short: "campaign snapshot 저장",
		RunE:  runDBImport,
	}

	dbImportFile string
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbImportCmd)

	dbImportCmd.Flags().StringVarP(&dbImportFile, "file", "f", "", "campaign JSON 파일 (- = stdin)")
	_ = dbImportCmd.MarkFlagRequired("file")
}

func connectDB() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	fmt.Printf("Database URL: %s\n", maskPassword(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== adpilot Database Connection Test ===")

	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()
	PrintSuccess("Database connection established")

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	PrintSuccess("Health Check Results:")
	PrintKeyValue("Healthy", fmt.Sprint(status.Healthy), 20)
	PrintKeyValue("Response Time", status.ResponseTime.String(), 20)
	PrintKeyValue("Max Connections", fmt.Sprint(status.MaxConns), 20)
	PrintKeyValue("Acquired Connections", fmt.Sprint(status.AcquiredConns), 20)
	PrintKeyValue("Idle Connections", fmt.Sprint(status.IdleConns), 20)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := snapshot.EnsureSchema(cmd.Context(), db.Pool); err != nil {
		return err
	}
	PrintSuccess("adpilot schema is up to date")
	return nil
}

func runDBImport(cmd *cobra.Command, args []string) error {
	campaign, err := readCampaign(dbImportFile)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{store: true})
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return fmt.Errorf("DATABASE_URL is required for db import")
	}

	ctx := cmd.Context()
	if err := snapshot.NewPostgresProvider(a.db.Pool).SaveCampaign(ctx, campaign); err != nil {
		return err
	}
	// 캐시된 snapshot 은 stale
	if cached, ok := a.provider.(*snapshot.CachedProvider); ok {
		if err := cached.Invalidate(ctx, campaign.CampaignID); err != nil {
			a.log.WithError(err).Warn("snapshot cache invalidate failed")
		}
	}
	PrintSuccess(fmt.Sprintf("campaign %s imported (%d keywords, %d ads)",
		campaign.CampaignID, len(campaign.Keywords), len(campaign.Ads)))
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
