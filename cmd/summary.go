package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overdue and upcoming bills, monthly total and goal progress",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	day, err := today()
	if err != nil {
		return err
	}
	snap, err := pipeline.BuildSnapshot(st, day, windowDays())
	if err != nil {
		return err
	}
	stats := snap.Stats

	if stats.Obligations == 0 && stats.Goals == 0 {
		fmt.Println("\n  Nothing tracked yet.")
		fmt.Println("  Add a bill with `fundwise obligations add` or a goal with `fundwise goals add`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FUNDWISE  %s", day)))
	fmt.Println()

	rows := [][]string{
		{"Overdue", countAmount(stats.OverdueCount, cli.FormatMoney(stats.OverdueAmount))},
		{fmt.Sprintf("Due in %dd", stats.WindowDays), countAmount(stats.UpcomingCount, cli.FormatMoney(stats.UpcomingAmount))},
		{"---"},
		{"Monthly total", cli.FormatMoney(stats.MonthlyTotal)},
		{"Yearly total", cli.FormatMoney(stats.YearlyTotal)},
		{"---"},
		{"Goals", fmt.Sprintf("%d (%d completed)", stats.Goals, stats.GoalsCompleted)},
		{"Saved", fmt.Sprintf("%s of %s", cli.FormatMoney(stats.TotalSaved), cli.FormatMoney(stats.TotalTarget))},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	var due [][]string
	for _, row := range snap.Due {
		if row.Status == recurring.StatusOther {
			continue
		}
		due = append(due, []string{
			row.Obligation.Name,
			cli.FormatMoney(row.Obligation.Amount),
			cli.FormatDate(row.Obligation.NextDueDate),
			cli.Status(row.Status.String()),
			cli.FormatDays(row.DaysUntil),
		})
	}
	if len(due) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Needs attention",
			Headers: []string{"Obligation", "Amount", "Due", "Status", "When"},
			Rows:    due,
		}))
	}

	if len(snap.Goals) > 0 {
		fmt.Println()
		fmt.Print(renderGoalTable(snap.Goals))
	}
	fmt.Println()
	return nil
}

func countAmount(n int, amount string) string {
	if n == 0 {
		return cli.Muted("none")
	}
	return fmt.Sprintf("%d  %s", n, amount)
}
