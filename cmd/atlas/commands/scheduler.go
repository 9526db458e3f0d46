package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/scheduler"
	"github.com/wonny/mfatlas/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `자동화된 수집/계산 작업 스케줄러를 관리합니다.

스케줄 (config/atlas.yaml schedule 섹션, meta.timezone 기준):
  - fund_nav_sync    : AMFI 일일 NAV 반영 (평일 밤)
  - index_sync       : 벤치마크 지수 종가 반영 (장 마감 후)
  - compute          : S0 → S1 → S2 파이프라인 (NAV 반영 후)
  - universe_refresh : Kuvera 유니버스 갱신 + 신규 펀드 백필 (주 1회)

Subcommands:
  start   - 스케줄러 시작 (foreground)
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 상태 조회`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "스케줄러 시작",
	Long: `스케줄러를 시작하고 등록된 작업을 자동 실행합니다.
Ctrl+C로 종료할 수 있습니다.`,
	RunE: runSchedulerStart,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 작업 목록",
	RunE:  runSchedulerList,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job_name]",
	Short: "특정 작업 즉시 실행",
	Long: `지정한 작업을 즉시 실행하고 완료까지 기다립니다.

Example:
  go run ./cmd/atlas scheduler run fund_nav_sync
  go run ./cmd/atlas scheduler run compute`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedulerRun,
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "작업 상태 조회",
	RunE:  runSchedulerStatus,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// initScheduler builds the scheduler with every job registered
func initScheduler() (*scheduler.Scheduler, *app, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}

	opts := scheduler.DefaultOptions()
	opts.Location = a.location
	sched := scheduler.New(a.log, opts)

	s := a.atlas.Schedule
	cfg := a.collectorConfig()
	all := []scheduler.Job{
		jobs.NewFundNAVSyncJob(a.collector, s.FundNAVSync, a.log),
		jobs.NewIndexSyncJob(a.collector, cfg, s.IndexSync, a.log),
		jobs.NewComputeJob(a.orchestrator, a.configHash, s.Compute, a.location, a.log),
		jobs.NewUniverseRefreshJob(a.collector, a.atlas.Universe.KuveraFilter(), cfg, s.UniverseRefresh, a.log),
	}
	for _, job := range all {
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return sched, a, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Starting MF Atlas Scheduler...")

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	sched.Start()
	defer sched.Stop()

	fmt.Println("✅ Scheduler started successfully")
	fmt.Printf("   Timezone: %s\n", a.location)
	fmt.Println()
	printJobTable(sched)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop...")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n🛑 Stopping scheduler...")
	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("📋 Registered Jobs:")
	fmt.Println()
	printJobTable(sched)
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("🔄 Running job: %s\n", jobName)
	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	// 같은 프로세스의 실행 이력만 보이므로 DB 기록도 함께 표시
	fmt.Println("📊 Job Status:")
	fmt.Println()
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		fmt.Printf("  %s\n", name)
		PrintKeyValue("Schedule", stat.Schedule, 12)
		PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
		PrintKeyValue("Success", fmt.Sprintf("%.1f%%", stat.SuccessRate*100), 12)
		fmt.Println()
	}

	run, err := a.runs.GetLatest(cmd.Context())
	if err != nil {
		PrintInfo("No pipeline run recorded yet")
		return nil
	}
	fmt.Println("🧮 Latest compute run:")
	PrintKeyValue("Run ID", run.RunID, 12)
	PrintKeyValue("Status", run.Status, 12)
	PrintKeyValue("Started", run.StartedAt.In(a.location).Format("2006-01-02 15:04:05"), 12)
	PrintKeyValue("Scored", fmt.Sprintf("%d / %d funds", run.Scored, run.Funds), 12)
	if run.Error != "" {
		PrintKeyValue("Error", run.Error, 12)
	}
	return nil
}

func printJobTable(sched *scheduler.Scheduler) {
	widths := []int{18, 18, 20}
	PrintTableHeader([]string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{name, stats[name].Schedule, next}, widths)
	}
}
