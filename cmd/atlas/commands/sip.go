package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/sip"
)

// sipCmd represents the sip command
var sipCmd = &cobra.Command{
	Use:   "sip [fund_id]",
	Short: "SIP 시뮬레이션",
	Long: `저장된 NAV 히스토리로 월 적립식(SIP) 투자를 시뮬레이션합니다.
금액/스텝업 미지정 시 config/atlas.yaml sip 기본값을 사용합니다.

Example:
  go run ./cmd/atlas sip INF179K01YV8 --start 2020-01-01
  go run ./cmd/atlas sip INF179K01YV8 --start 2020-01-01 --end 2025-12-31 --amount 10000 --step-up 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSIP,
}

var (
	sipStart       string
	sipEnd         string
	sipAmount      float64
	sipStepUp      float64
	sipStepUpMonth int
	sipLedger      bool
)

func init() {
	rootCmd.AddCommand(sipCmd)

	sipCmd.Flags().StringVar(&sipStart, "start", "", "시작일 YYYY-MM-DD (필수)")
	sipCmd.Flags().StringVar(&sipEnd, "end", "", "종료일 YYYY-MM-DD (기본: 최신 NAV 일자)")
	sipCmd.Flags().Float64Var(&sipAmount, "amount", 0, "월 납입액")
	sipCmd.Flags().Float64Var(&sipStepUp, "step-up", 0, "연간 증액률 %")
	sipCmd.Flags().IntVar(&sipStepUpMonth, "step-up-month", 0, "증액 적용 월 (1-12, 0: 시작월)")
	sipCmd.Flags().BoolVar(&sipLedger, "ledger", false, "납입 내역 출력")
	_ = sipCmd.MarkFlagRequired("start")
}

func runSIP(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", sipStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	req := sip.Request{
		FundID:        args[0],
		StartDate:     start,
		MonthlyAmount: sipAmount,
		StepUpMonth:   sipStepUpMonth,
	}
	if sipEnd != "" {
		if req.EndDate, err = time.Parse("2006-01-02", sipEnd); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if cmd.Flags().Changed("step-up") {
		req.StepUpPercent = &sipStepUp
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.sip.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	currency := a.atlas.SIP.Currency
	if currency == "" {
		currency = sip.DefaultCurrency
	}

	PrintHeader("SIP Simulation: " + summary.Fund.Name)
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", summary.Plan.StartDate.Format("2006-01-02"), summary.Plan.EndDate.Format("2006-01-02")), 12)
	PrintKeyValue("Monthly", sip.FormatAmount(summary.Plan.MonthlyAmount, currency), 12)
	if summary.Plan.StepUpPercent > 0 {
		PrintKeyValue("Step-up", fmt.Sprintf("%.1f%% / year", summary.Plan.StepUpPercent), 12)
	}
	PrintSeparator()

	r := summary.Result
	if !r.IsValid {
		PrintWarning("Start date predates the fund's NAV history, nothing invested")
		return nil
	}

	PrintKeyValue("Invested", summary.Invested, 12)
	PrintKeyValue("Value", summary.Value, 12)
	PrintKeyValue("Gain", summary.Gain, 12)
	PrintKeyValue("Units", fmt.Sprintf("%.4f", r.UnitsAccumulated), 12)
	PrintKeyValue("Absolute", fmt.Sprintf("%.2f%%", r.AbsoluteReturn), 12)
	PrintKeyValue("XIRR", FormatPct(r.AnnualizedReturn), 12)

	if sipLedger {
		fmt.Println()
		widths := []int{12, 16}
		PrintTableHeader([]string{"DATE", "AMOUNT"}, widths)
		for _, cf := range r.Cashflows {
			PrintTableRow([]string{cf.Date.Format("2006-01-02"), sip.FormatAmount(-cf.Amount, currency)}, widths)
		}
	}
	return nil
}
