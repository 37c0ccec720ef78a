package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagDueAll bool

type dueSection struct {
	status recurring.Status
	title  string
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Overdue, upcoming and later obligations",
	RunE:  runDue,
}

func init() {
	dueCmd.Flags().BoolVarP(&flagDueAll, "all", "a", false, "Also list obligations due later")
	rootCmd.AddCommand(dueCmd)
}

func runDue(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	day, err := today()
	if err != nil {
		return err
	}
	obs, err := st.ListObligations()
	if err != nil {
		return err
	}
	names, err := st.CategoryNames()
	if err != nil {
		return err
	}
	window := windowDays()
	rows, err := pipeline.AggregateDue(obs, names, day, window)
	if err != nil {
		return err
	}

	groups := map[recurring.Status][]pipeline.DueRow{}
	for _, r := range rows {
		groups[r.Status] = append(groups[r.Status], r)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DUE  as of %s", day)))

	sections := []dueSection{
		{recurring.StatusOverdue, "Overdue"},
		{recurring.StatusUpcoming, fmt.Sprintf("Due in the next %d days", window)},
	}
	if flagDueAll {
		sections = append(sections, dueSection{recurring.StatusOther, "Later"})
	}

	for _, sec := range sections {
		group := groups[sec.status]
		fmt.Println()
		if len(group) == 0 {
			fmt.Printf("  %s: %s\n", sec.title, cli.Muted("nothing"))
			continue
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("%s (%d, %s)", sec.title, len(group), cli.FormatMoney(sumDue(group))),
			Headers: []string{"Obligation", "Amount", "Due", "When", "Category"},
			Rows:    dueRows(group),
		}))
	}

	if !flagDueAll && len(groups[recurring.StatusOther]) > 0 {
		fmt.Println()
		say("  %d more due later (use --all)\n", len(groups[recurring.StatusOther]))
	}
	fmt.Println()
	return nil
}

func dueRows(group []pipeline.DueRow) [][]string {
	out := make([][]string, 0, len(group))
	for _, r := range group {
		out = append(out, []string{
			r.Obligation.Name,
			cli.FormatMoney(r.Obligation.Amount),
			cli.FormatDate(r.Obligation.NextDueDate),
			cli.FormatDays(r.DaysUntil),
			r.Category,
		})
	}
	return out
}

func sumDue(group []pipeline.DueRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range group {
		total = total.Add(r.Obligation.Amount)
	}
	return total
}
