package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/external/investing"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "초기 히스토리 적재",
}

var seedIndicesCmd = &cobra.Command{
	Use:   "indices [index_id] [csv_file]",
	Short: "지수 히스토리 CSV 적재 (Investing.com)",
	Long: `Investing.com 에서 내려받은 지수 히스토리 CSV를 적재합니다.
index_id 는 config/atlas.yaml indices 카탈로그의 id 입니다.

Example:
  go run ./cmd/atlas seed indices nifty-50 ./data/nifty50.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runSeedIndices,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedIndicesCmd)
}

func runSeedIndices(cmd *cobra.Command, args []string) error {
	indexID, path := args[0], args[1]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.atlas.Index(indexID); !ok {
		return fmt.Errorf("index %s is not in the catalogue", indexID)
	}

	points, skipped, err := investing.ParseFile(path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		PrintWarning(fmt.Sprintf("%d unparseable rows skipped", skipped))
	}

	if err := a.collector.SyncCatalogue(cmd.Context(), a.atlas.IndexCatalogue()); err != nil {
		return err
	}
	n, err := a.collector.SeedIndex(cmd.Context(), indexID, points)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s: %d closes stored (%s ~ %s)", indexID, n,
		points[0].Date.Format("2006-01-02"), points[len(points)-1].Date.Format("2006-01-02")))
	return nil
}
