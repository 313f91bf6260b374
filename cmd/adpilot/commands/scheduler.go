package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/adpilot/internal/scheduler"
	"github.com/wonny/adpilot/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `주기적인 캠페인 최적화 스케줄러를 시작하거나 작업을 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Environment:
  SCHEDULER_CAMPAIGNS  쉼표 구분 campaign id
  SCHEDULER_SPEC       cron (초 포함, 기본 "0 0 6 * * *")
  SCHEDULER_RPS        초당 snapshot 조회 수
  SCHEDULER_GOALS      최적화 목표

Example:
  go run ./cmd/adpilot scheduler start
  go run ./cmd/adpilot scheduler list
  go run ./cmd/adpilot scheduler run campaign_sweep`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- campaign_sweep: SCHEDULER_SPEC (캠페인 최적화 + 품질 평가 + 저장)
- stats_report: 매시간 (엔진 통계 로그)

--skip 으로 특정 작업을 제외할 수 있습니다 (예: --skip stats_report).
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulerSkip []string

func init() {
	schedulerStartCmd.Flags().StringSliceVar(&schedulerSkip, "skip", nil, "스케줄에서 제외할 작업 (쉼표 구분)")

	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== adpilot Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	if err := skipJobs(sched, schedulerSkip); err != nil {
		return err
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	widths := []int{16, 16}
	PrintTableHeader([]string{"JOB", "SCHEDULE"}, widths)
	for name, st := range sched.GetJobStats() {
		PrintTableRow([]string{name, st.Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	jobName := args[0]
	PrintInfo(fmt.Sprintf("Running job %s", jobName))

	result, err := sched.RunJobNow(cmd.Context(), jobName)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

// skipJobs unschedules the named jobs before start
func skipJobs(sched *scheduler.Scheduler, names []string) error {
	for _, name := range names {
		if err := sched.RemoveJob(name); err != nil {
			return fmt.Errorf("--skip %s: %w", name, err)
		}
	}
	return nil
}

// initScheduler wires the engine and registers every job
func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp(appOptions{store: true})
	if err != nil {
		return nil, nil, err
	}

	sc := a.cfg.Scheduler
	goals := sc.Goals
	if len(goals) == 0 {
		goals = a.engineCfg.Orchestrator.DefaultGoals
	}

	sched := scheduler.New(a.log)

	sweep := jobs.NewCampaignSweepJob(a.orchestrator, a.store(), jobs.SweepConfig{
		Campaigns: sc.Campaigns,
		Goals:     goals,
		Schedule:  sc.Spec,
		RPS:       sc.RPS,
	}, a.log)
	if err := sched.AddJob(sweep); err != nil {
		a.Close()
		return nil, nil, err
	}

	if err := sched.AddJob(jobs.NewStatsReportJob(a.orchestrator.Stats(), a.log)); err != nil {
		a.Close()
		return nil, nil, err
	}

	return a, sched, nil
}
