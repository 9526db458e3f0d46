package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "일일 데이터 동기화",
	Long: `저장된 히스토리에 최신 데이터를 추가합니다.

Subcommands:
  funds    - AMFI NAVAll.txt 기준 펀드 NAV 추가
  indices  - Yahoo Finance 기준 지수 종가 추가 (seed 선행 필요)`,
}

var syncFundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "펀드 NAV 동기화 (AMFI)",
	RunE:  runSyncFunds,
}

var syncIndicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "지수 종가 동기화 (Yahoo)",
	RunE:  runSyncIndices,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncFundsCmd)
	syncCmd.AddCommand(syncIndicesCmd)
}

func runSyncFunds(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Fund NAV Sync (AMFI)")
	start := time.Now()

	result, err := a.collector.SyncFundNAVs(cmd.Context())
	if err != nil {
		return err
	}

	PrintKeyValue("Checked", fmt.Sprintf("%d", result.Checked), 10)
	PrintKeyValue("Appended", fmt.Sprintf("%d", result.Appended), 10)
	PrintKeyValue("Unchanged", fmt.Sprintf("%d", result.Unchanged), 10)
	PrintKeyValue("Missing", fmt.Sprintf("%d", result.Missing), 10)
	PrintKeyValue("Failed", fmt.Sprintf("%d", result.Failed), 10)
	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func runSyncIndices(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Index Sync (Yahoo)")
	start := time.Now()

	// 카탈로그(YAML) 먼저 반영
	if err := a.collector.SyncCatalogue(cmd.Context(), a.atlas.IndexCatalogue()); err != nil {
		return err
	}

	results, err := a.collector.SyncIndices(cmd.Context(), a.collectorConfig())
	if err != nil {
		return err
	}

	widths := []int{22, 8, 30}
	PrintTableHeader([]string{"INDEX", "POINTS", "NOTE"}, widths)
	for _, r := range results {
		note := ""
		switch {
		case r.Error != nil:
			note = "❌ " + r.Error.Error()
		case r.Skipped:
			note = "skipped (seed first)"
		}
		PrintTableRow([]string{r.ID, fmt.Sprintf("%d", r.PointCount), note}, widths)
	}
	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return nil
}
