package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/pipeline"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "S0 → S1 → S2 파이프라인 실행",
	Long: `저장된 NAV/지수 히스토리로 품질 검증, 기간 수익률, 스코어를 계산합니다.

Example:
  go run ./cmd/atlas compute
  go run ./cmd/atlas compute --date 2026-02-27 --top 20`,
	RunE: runCompute,
}

var (
	computeDate string
	computeTop  int
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVar(&computeDate, "date", "", "품질 검증 기준일 YYYY-MM-DD (기본: 오늘)")
	computeCmd.Flags().IntVar(&computeTop, "top", 10, "출력할 상위 펀드 수")
}

func runCompute(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date := a.today()
	if computeDate != "" {
		if date, err = time.Parse("2006-01-02", computeDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	PrintHeader("Compute Pipeline")
	PrintKeyValue("Date", date.Format("2006-01-02"), 8)
	PrintKeyValue("Config", a.configHash[:12], 8)
	PrintSeparator()

	result, err := a.orchestrator.Run(cmd.Context(), pipeline.RunConfig{
		Date:       date,
		ConfigHash: a.configHash,
	})
	if err != nil {
		return err
	}

	q := result.QualitySnapshot
	fmt.Printf("S0 quality : %.2f (passed: %v, stale funds: %d)\n", q.QualityScore, q.Passed, len(q.StaleFunds))
	fmt.Printf("S1 returns : %d funds, %d indices, %d categories\n", len(result.FundReturns), len(result.IndexReturns), len(result.Averages))
	fmt.Printf("S2 scores  : %d / %d scored\n", result.Run.Scored, len(result.Scores))
	fmt.Println()

	printTopScores(result.Scores, computeTop)

	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", result.Run.RunID, result.Duration.Seconds()))
	return nil
}

func printTopScores(scores []contracts.ScoreRecord, n int) {
	scored := make([]contracts.ScoreRecord, 0, len(scores))
	for _, s := range scores {
		if s.IsScored() {
			scored = append(scored, s)
		}
	}
	sort.Slice(scored, func(i, j int) bool { return *scored[i].CompositeScore > *scored[j].CompositeScore })
	if len(scored) > n {
		scored = scored[:n]
	}

	widths := []int{14, 10, 8, 8, 8, 8}
	PrintTableHeader([]string{"FUND", "COMPOSITE", "PERF", "RATING", "AUM", "REPUTE"}, widths)
	for _, s := range scored {
		PrintTableRow([]string{
			s.FundID,
			FormatScore(s.CompositeScore),
			FormatScore(s.PerformanceScore),
			FormatScore(s.RatingScore),
			FormatScore(s.AUMScore),
			FormatScore(s.ReputationScore),
		}, widths)
	}
}
