package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/portable"
	"github.com/theirongolddev/fundwise/internal/projection"
	"github.com/theirongolddev/fundwise/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagGoalName       string
	flagGoalTarget     string
	flagGoalAllocation string
	flagGoalDate       string
	flagGoalNote       string
	flagSimMonthly     string
	flagSimMonths      int
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Manage savings goals",
	RunE:  runGoalsList,
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with progress and estimated completion",
	RunE:  runGoalsList,
}

var goalsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a goal (prompts for missing fields)",
	RunE:  runGoalsAdd,
}

var goalsFundCmd = &cobra.Command{
	Use:   "fund <name|id> <amount>",
	Short: "Add money to a goal (negative amounts correct it)",
	Example: "  fundwise goals fund vacation 250\n" +
		"  fundwise goals fund vacation -- -40",
	Args: cobra.ExactArgs(2),
	RunE: runGoalsFund,
}

var goalsResetCmd = &cobra.Command{
	Use:   "reset <name|id>",
	Short: "Zero a goal's balance and clear completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsReset,
}

var goalsEditCmd = &cobra.Command{
	Use:   "edit <name|id>",
	Short: "Change a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsEdit,
}

var goalsDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a goal and its contributions",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsDelete,
}

var goalsHistoryCmd = &cobra.Command{
	Use:   "history <name|id>",
	Short: "Show recorded contributions",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsHistory,
}

var goalsSimulateCmd = &cobra.Command{
	Use:   "simulate <name|id>",
	Short: "Project a goal under a hypothetical monthly allocation",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsSimulate,
}

func init() {
	for _, c := range []*cobra.Command{goalsAddCmd, goalsEditCmd} {
		c.Flags().StringVar(&flagGoalName, "name", "", "Goal name")
		c.Flags().StringVar(&flagGoalTarget, "target", "", "Target amount")
		c.Flags().StringVar(&flagGoalAllocation, "monthly", "", "Planned monthly allocation")
		c.Flags().StringVar(&flagGoalDate, "by", "", "Target date (YYYY-MM-DD)")
	}
	goalsFundCmd.Flags().StringVar(&flagGoalNote, "note", "", "Note stored with the contribution")
	goalsResetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation")
	goalsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation")
	goalsSimulateCmd.Flags().StringVar(&flagSimMonthly, "monthly", "", "Monthly allocation to simulate (default: the goal's own)")
	goalsSimulateCmd.Flags().IntVar(&flagSimMonths, "months", 12, "Months to project")

	goalsCmd.AddCommand(goalsListCmd, goalsAddCmd, goalsFundCmd, goalsResetCmd,
		goalsEditCmd, goalsDeleteCmd, goalsHistoryCmd, goalsSimulateCmd)
	rootCmd.AddCommand(goalsCmd)
}

func runGoalsList(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	day, err := today()
	if err != nil {
		return err
	}
	goals, err := st.ListGoals()
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Println("\n  No goals yet. Add one with `fundwise goals add`.")
		return nil
	}

	fmt.Println()
	fmt.Print(renderGoalTable(pipeline.AggregateGoals(goals, day)))
	fmt.Println()
	return nil
}

func renderGoalTable(rows []pipeline.GoalRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Goal.Name,
			cli.FormatMoney(r.Goal.CurrentAmount),
			cli.FormatMoney(r.Goal.TargetAmount),
			cli.RenderProgressBar(r.Progress.Percentage, 12),
			estimateText(r),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Goals",
		Headers: []string{"Goal", "Saved", "Target", "Progress", "Estimate"},
		Rows:    out,
	})
}

func estimateText(r pipeline.GoalRow) string {
	if r.Goal.IsCompleted || projection.IsComplete(r.Goal) {
		return cli.Status("done")
	}
	est := r.Estimate
	if !est.Known {
		return cli.Muted("no estimate")
	}
	switch {
	case est.Basis == projection.BasisTargetDate && est.MonthsRemaining < 0:
		return cli.Warn("target " + cli.FormatDate(est.Date) + " passed")
	case est.Basis == projection.BasisTargetDate:
		return "by " + cli.FormatDate(est.Date)
	default:
		return fmt.Sprintf("%s (%s)", cli.FormatDate(est.Date), cli.FormatMonths(est.MonthsRemaining))
	}
}

func runGoalsAdd(_ *cobra.Command, _ []string) error {
	rec := portable.Goal{
		Name:              strings.TrimSpace(flagGoalName),
		Target:            strings.TrimSpace(flagGoalTarget),
		MonthlyAllocation: strings.TrimSpace(flagGoalAllocation),
		TargetDate:        strings.TrimSpace(flagGoalDate),
	}
	if rec.Name == "" || rec.Target == "" {
		if err := goalForm(&rec).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}
	if err := portable.ValidateRecord(rec); err != nil {
		return err
	}
	g, err := portable.GoalToModel(rec, time.Now())
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SaveGoal(g); err != nil {
		return err
	}
	log.Debug("goal added", zap.String("id", g.ID.String()), zap.String("name", g.Name))
	say("  Added goal %s: target %s\n", g.Name, cli.FormatMoney(g.TargetAmount))
	return nil
}

func goalForm(rec *portable.Goal) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&rec.Name).Validate(validateRequired),
			huh.NewInput().Title("Target amount").Value(&rec.Target).Validate(validateAmountInput),
			huh.NewInput().Title("Monthly allocation").Description("Optional").
				Value(&rec.MonthlyAllocation).Validate(validateOptionalAmountInput),
			huh.NewInput().Title("Target date").Description("Optional, YYYY-MM-DD").
				Value(&rec.TargetDate).Validate(validateOptionalDateInput),
		),
	).WithShowHelp(false)
}

func runGoalsFund(_ *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	if err := portable.ValidateRecord(portable.Contribution{
		Amount:    args[1],
		Note:      flagGoalNote,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}

	now := time.Now()
	next, err := projection.ApplyContribution(g, amount, now)
	if err != nil {
		return err
	}
	c := model.Contribution{
		ID:        model.NewID(),
		GoalID:    g.ID,
		Amount:    next.CurrentAmount.Sub(g.CurrentAmount),
		Note:      flagGoalNote,
		CreatedAt: now,
	}
	if err := st.RecordContribution(next, c, g.CurrentAmount); err != nil {
		return conflictHint(g.Name, err)
	}

	log.Debug("contribution recorded",
		zap.String("goal", g.ID.String()),
		zap.String("amount", c.Amount.String()),
		zap.Bool("completed", next.IsCompleted))

	p := projection.ComputeProgress(next)
	say("  %s: %s of %s (%s)\n", next.Name, cli.FormatMoney(next.CurrentAmount),
		cli.FormatMoney(next.TargetAmount), cli.FormatPercent(p.Percentage))
	if next.IsCompleted && !g.IsCompleted {
		say("  Goal reached!\n")
	}
	return nil
}

func runGoalsReset(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Reset %s to zero?", g.Name), flagYes)
	if err != nil || !ok {
		return err
	}

	now := time.Now()
	next := projection.ResetProgress(g, now)
	c := model.Contribution{
		ID:        model.NewID(),
		GoalID:    g.ID,
		Amount:    g.CurrentAmount.Neg(),
		Note:      "reset",
		CreatedAt: now,
	}
	if err := st.RecordContribution(next, c, g.CurrentAmount); err != nil {
		return conflictHint(g.Name, err)
	}
	say("  Reset %s\n", g.Name)
	return nil
}

func runGoalsEdit(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}

	rec := portable.Goal{
		Name:    g.Name,
		Target:  g.TargetAmount.String(),
		Current: g.CurrentAmount.String(),
	}
	if g.MonthlyAllocation != nil {
		rec.MonthlyAllocation = g.MonthlyAllocation.String()
	}
	if g.TargetDate != nil {
		rec.TargetDate = g.TargetDate.String()
	}
	if g.CompletedAt != nil {
		at := *g.CompletedAt
		rec.CompletedAt = &at
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		rec.Name = strings.TrimSpace(flagGoalName)
	}
	if flags.Changed("target") {
		rec.Target = strings.TrimSpace(flagGoalTarget)
	}
	if flags.Changed("monthly") {
		rec.MonthlyAllocation = strings.TrimSpace(flagGoalAllocation)
	}
	if flags.Changed("by") {
		rec.TargetDate = strings.TrimSpace(flagGoalDate)
	}
	if err := portable.ValidateRecord(rec); err != nil {
		return err
	}

	now := time.Now()
	next, err := portable.GoalToModel(rec, now)
	if err != nil {
		return err
	}
	next.ID = g.ID
	next.CreatedAt = g.CreatedAt
	if next.IsCompleted && next.CompletedAt == nil {
		next.CompletedAt = &now
	}

	if err := st.SaveGoal(next); err != nil {
		return err
	}
	say("  Updated %s\n", next.Name)
	return nil
}

func runGoalsDelete(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Delete %s and its contributions?", g.Name), flagYes)
	if err != nil || !ok {
		return err
	}
	if err := st.DeleteGoal(g.ID); err != nil {
		return err
	}
	say("  Deleted %s\n", g.Name)
	return nil
}

func runGoalsHistory(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}
	contribs, err := st.ListContributions(g.ID)
	if err != nil {
		return err
	}
	if len(contribs) == 0 {
		fmt.Printf("\n  No contributions recorded for %s.\n", g.Name)
		return nil
	}

	// Newest first; balance is the running total after each contribution.
	balance := decimal.Zero
	for _, c := range contribs {
		balance = balance.Add(c.Amount)
	}
	rows := make([][]string, 0, len(contribs))
	for _, c := range contribs {
		running := balance
		balance = balance.Sub(c.Amount)
		rows = append(rows, []string{
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
			c.Note,
			cli.FormatMoney(c.Amount),
			cli.FormatMoney(running),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s contributions", g.Name),
		Headers: []string{"When", "Note", "Amount", "Balance"},
		Rows:    rows,
		Left:    2,
	}))
	fmt.Println()
	return nil
}

func runGoalsSimulate(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	g, err := findGoal(st, args[0])
	if err != nil {
		return err
	}
	day, err := today()
	if err != nil {
		return err
	}

	monthly := decimal.Zero
	switch {
	case flagSimMonthly != "":
		if monthly, err = decimal.NewFromString(strings.TrimSpace(flagSimMonthly)); err != nil {
			return fmt.Errorf("invalid --monthly %q", flagSimMonthly)
		}
	case g.MonthlyAllocation != nil:
		monthly = *g.MonthlyAllocation
	default:
		return errors.New("goal has no monthly allocation; pass --monthly")
	}

	sim, err := projection.Simulate(g, day, monthly, flagSimMonths)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(sim.Points))
	balances := make([]float64, 0, len(sim.Points))
	for _, pt := range sim.Points {
		rows = append(rows, []string{
			strconv.Itoa(pt.Month),
			cli.FormatDate(pt.Date),
			cli.FormatMoney(pt.Balance),
			cli.FormatPercent(pt.Percentage),
		})
		balances = append(balances, pt.Balance.InexactFloat64())
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  +%s/month", strings.ToUpper(g.Name), cli.FormatMoney(monthly))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Next %s", cli.FormatMonths(flagSimMonths)),
		Headers: []string{"Month", "Date", "Balance", "Progress"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %s\n", cli.RenderSparkline(balances))
	if sim.Reached {
		fmt.Printf("  Reaches %s on %s (%s)\n", cli.FormatMoney(g.TargetAmount),
			cli.FormatDate(sim.ReachAt), cli.FormatMonths(sim.ReachIn))
	} else {
		fmt.Printf("  %s short of target after %s\n", cli.FormatMoney(sim.Shortfall), cli.FormatMonths(flagSimMonths))
	}
	fmt.Println()
	return nil
}

func findGoal(st *store.Store, ref string) (model.Goal, error) {
	id, err := st.ResolveGoalID(ref)
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %w", err)
	}
	return st.GetGoal(id)
}

func conflictHint(name string, err error) error {
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%s was changed by another process, try again: %w", name, err)
	}
	return err
}
