package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescreen/internal/scheduler"
	"github.com/wonny/valuescreen/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 스크리닝 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list
  go run ./cmd/screener scheduler run value_screen`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- value_screen: strategy schedule.cron (기본: 평일 06:30)
- cache_cleanup: 10분마다 (REDIS_ENABLED=false 일 때 인메모리 캐시 정리)

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

var (
	schedulerRetries    int
	schedulerRetryDelay time.Duration
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().IntVar(&schedulerRetries, "retries", 3, "실패 시 재시도 횟수")
	schedulerCmd.PersistentFlags().DurationVar(&schedulerRetryDelay, "retry-delay", time.Minute, "재시도 간격")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Value Screener Scheduler ===")

	// Initialize dependencies
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
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

	// cron computes next runs only once started
	sched.Start()
	defer sched.Stop()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.RunJobNow(ctx, jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	stat := sched.GetJobStats()[jobName]
	fmt.Printf("✅ Job %s completed (%d run, %.0f%% success)\n", jobName, stat.TotalRuns, stat.SuccessRate*100)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		stat := sched.GetJobStats()[jobName]
		next, ok := sched.NextRun(jobName)
		if ok && !next.IsZero() {
			fmt.Printf("  - %s [%s] next: %s\n", jobName, stat.Schedule, next.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("  - %s [%s]\n", jobName, stat.Schedule)
		}
	}
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	// 1. Wire dependencies
	a, err := newApp(os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	// 2. Create scheduler
	sched := scheduler.New(a.log).WithRetry(schedulerRetries, schedulerRetryDelay)

	// 3. Register jobs
	if a.strategy.Schedule.Cron == "" {
		a.Close()
		return nil, nil, fmt.Errorf("strategy %s has no schedule.cron", a.strategy.Meta.StrategyID)
	}
	screenJob := jobs.NewScreenJob(
		a.service,
		a.xlsx,
		a.strategy.Schedule.Cron,
		a.strategy.Schedule.Notional,
		a.strategy.Export.Path,
		a.log,
	)
	if err := sched.AddJob(screenJob); err != nil {
		a.Close()
		return nil, nil, err
	}
	if a.memory != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memory, a.log)); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}
