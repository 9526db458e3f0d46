package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/s0_data/collector"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "펀드 유니버스 관리",
}

var universeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Kuvera 목록으로 유니버스 갱신",
	Long: `Kuvera 펀드 목록을 읽어 유니버스를 갱신합니다.

이 명령어는:
- config/atlas.yaml universe 필터 적용 (Direct / Growth)
- 펀드별 상세 조회 (ISIN, AUM, 등급, 설정일)
- MFAPI scheme code 매핑
- 목록에서 빠진 펀드 비활성화

Example:
  go run ./cmd/atlas universe refresh`,
	RunE: runUniverseRefresh,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "펀드 NAV 전체 히스토리 적재 (MFAPI)",
	Long: `scheme code 가 있는 활성 펀드의 전체 NAV 히스토리를 MFAPI 에서 적재합니다.

Example:
  go run ./cmd/atlas backfill            # 히스토리 없는 펀드만
  go run ./cmd/atlas backfill --all      # 전체 재적재`,
	RunE: runBackfill,
}

var backfillAll bool

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeRefreshCmd)

	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().BoolVar(&backfillAll, "all", false, "이미 적재된 펀드도 다시 받기")
}

func runUniverseRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Universe Refresh (Kuvera)")
	start := time.Now()

	result, err := a.collector.RefreshUniverse(cmd.Context(), a.atlas.Universe.KuveraFilter(), a.collectorConfig())
	if err != nil {
		return err
	}

	PrintKeyValue("Listed", fmt.Sprintf("%d", result.Listed), 12)
	PrintKeyValue("Saved", fmt.Sprintf("%d", result.Saved), 12)
	PrintKeyValue("Mapped", fmt.Sprintf("%d", result.Mapped), 12)
	PrintKeyValue("Seeded", fmt.Sprintf("%d", result.Seeded), 12)
	PrintKeyValue("Failed", fmt.Sprintf("%d", result.Failed), 12)
	PrintKeyValue("Deactivated", fmt.Sprintf("%d", result.Deactivated), 12)
	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func runBackfill(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("NAV Backfill (MFAPI)")
	start := time.Now()

	results, err := a.collector.Backfill(cmd.Context(), a.collectorConfig(), !backfillAll)
	if err != nil {
		return err
	}

	summary := collector.Summarize(results)
	for _, r := range results {
		if r.Error != nil {
			PrintError(fmt.Sprintf("%s: %v", r.ID, r.Error))
		}
	}
	PrintKeyValue("Success", fmt.Sprintf("%d", summary.Success), 8)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", summary.Skipped), 8)
	PrintKeyValue("Failed", fmt.Sprintf("%d", summary.Failed), 8)
	PrintKeyValue("Points", fmt.Sprintf("%d", summary.Points), 8)
	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return nil
}
