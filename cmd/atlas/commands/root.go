package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile     string
	atlasConfig string
	env         string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "MF Atlas - 인도 뮤추얼펀드 수익률/스코어링 엔진",
	Long: `MF Atlas Unified CLI

인도 뮤추얼펀드 NAV 수집, 기간 수익률 계산, 벤치마크 대비 스코어링, SIP 시뮬레이션.
S0(수집/품질) → S1(수익률) → S2(스코어) 파이프라인.

Usage:
  go run ./cmd/atlas [command]

Examples:
  go run ./cmd/atlas migrate
  go run ./cmd/atlas universe refresh
  go run ./cmd/atlas seed indices nifty-50 ./data/nifty50.csv
  go run ./cmd/atlas sync funds
  go run ./cmd/atlas compute
  go run ./cmd/atlas api
  go run ./cmd/atlas scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&atlasConfig, "atlas-config", "", "engine YAML (default is $ATLAS_CONFIG or config/atlas.yaml)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
