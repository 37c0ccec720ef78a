package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/portable"
	"github.com/theirongolddev/fundwise/internal/recurring"
	"github.com/theirongolddev/fundwise/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagObName      string
	flagObAmount    string
	flagObFrequency string
	flagObDue       string
	flagObCategory  string
	flagObFilter    string
	flagShowIDs     bool
	flagYes         bool
)

var obligationsCmd = &cobra.Command{
	Use:     "obligations",
	Aliases: []string{"bills", "ob"},
	Short:   "Manage recurring bills",
	RunE:    runObligationsList,
}

var obligationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List obligations by due date",
	RunE:  runObligationsList,
}

var obligationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an obligation (prompts for missing fields)",
	RunE:  runObligationsAdd,
}

var obligationsPayCmd = &cobra.Command{
	Use:   "pay <name|id>",
	Short: "Mark an obligation paid and advance its due date",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsPay,
}

var obligationsEditCmd = &cobra.Command{
	Use:   "edit <name|id>",
	Short: "Change an obligation",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsEdit,
}

var obligationsDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete an obligation and its payment history",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsDelete,
}

var obligationsHistoryCmd = &cobra.Command{
	Use:   "history <name|id>",
	Short: "Show recorded payments",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsHistory,
}

func init() {
	obligationsCmd.PersistentFlags().BoolVar(&flagShowIDs, "ids", false, "Show record ids")

	obligationsListCmd.Flags().StringVarP(&flagObFilter, "name", "n", "", "Filter by name substring")
	obligationsListCmd.Flags().StringVarP(&flagObCategory, "category", "c", "", "Filter by category")

	for _, c := range []*cobra.Command{obligationsAddCmd, obligationsEditCmd} {
		c.Flags().StringVar(&flagObName, "name", "", "Obligation name")
		c.Flags().StringVar(&flagObAmount, "amount", "", "Amount per period")
		c.Flags().StringVar(&flagObFrequency, "frequency", string(model.FrequencyMonthly), "monthly, quarterly or yearly")
		c.Flags().StringVar(&flagObDue, "due", "", "Next due date (YYYY-MM-DD)")
		c.Flags().StringVar(&flagObCategory, "category", "", "Category name (created if missing)")
	}
	obligationsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation")

	obligationsCmd.AddCommand(obligationsListCmd, obligationsAddCmd, obligationsPayCmd,
		obligationsEditCmd, obligationsDeleteCmd, obligationsHistoryCmd)
	rootCmd.AddCommand(obligationsCmd)
}

func runObligationsList(_ *cobra.Command, _ []string) error {
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

	obs = pipeline.FilterByName(obs, flagObFilter)
	obs = pipeline.FilterByCategory(obs, names, flagObCategory)
	if len(obs) == 0 {
		fmt.Println("\n  No obligations found.")
		return nil
	}

	rows, err := pipeline.AggregateDue(obs, names, day, windowDays())
	if err != nil {
		return err
	}

	headers := []string{"Name", "Amount", "Frequency", "Next due", "Status", "Category", "Monthly"}
	if flagShowIDs {
		headers = append([]string{"ID"}, headers...)
	}
	var tableRows [][]string
	for _, r := range rows {
		row := []string{
			r.Obligation.Name,
			cli.FormatMoney(r.Obligation.Amount),
			cli.FormatFrequency(r.Obligation.Frequency),
			cli.FormatDate(r.Obligation.NextDueDate),
			cli.Status(r.Status.String()),
			r.Category,
			cli.FormatMoney(r.Monthly),
		}
		if flagShowIDs {
			row = append([]string{r.Obligation.ID.String()}, row...)
		}
		tableRows = append(tableRows, row)
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Obligations (%d)", len(rows)),
		Headers: headers,
		Rows:    tableRows,
		Left:    1 + boolInt(flagShowIDs),
	}))
	fmt.Println()
	return nil
}

func runObligationsAdd(_ *cobra.Command, _ []string) error {
	rec := portable.Obligation{
		Name:      strings.TrimSpace(flagObName),
		Amount:    strings.TrimSpace(flagObAmount),
		Frequency: strings.ToLower(strings.TrimSpace(flagObFrequency)),
		NextDue:   strings.TrimSpace(flagObDue),
		Category:  strings.TrimSpace(flagObCategory),
	}
	if rec.Name == "" || rec.Amount == "" || rec.NextDue == "" {
		if err := obligationForm(&rec).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}
	if err := portable.ValidateRecord(rec); err != nil {
		return err
	}

	now := time.Now()
	o, err := portable.ObligationToModel(rec, now)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if o.CategoryID, err = ensureCategory(st, rec.Category); err != nil {
		return err
	}
	if err := st.SaveObligation(o); err != nil {
		return err
	}

	log.Debug("obligation added", zap.String("id", o.ID.String()), zap.String("name", o.Name))
	say("  Added %s: %s %s, next due %s\n", o.Name, cli.FormatMoney(o.Amount),
		cli.FormatFrequency(o.Frequency), cli.FormatDate(o.NextDueDate))
	return nil
}

func obligationForm(rec *portable.Obligation) *huh.Form {
	if rec.Frequency == "" {
		rec.Frequency = string(model.FrequencyMonthly)
	}
	freqOpts := make([]huh.Option[string], 0, len(model.Frequencies))
	for _, f := range model.Frequencies {
		freqOpts = append(freqOpts, huh.NewOption(cli.FormatFrequency(f), string(f)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&rec.Name).Validate(validateRequired),
			huh.NewInput().Title("Amount").Value(&rec.Amount).Validate(validateAmountInput),
			huh.NewSelect[string]().Title("Frequency").Options(freqOpts...).Value(&rec.Frequency),
			huh.NewInput().Title("Next due date").Placeholder("YYYY-MM-DD").
				Value(&rec.NextDue).Validate(validateDateInput),
			huh.NewInput().Title("Category").Description("Optional").Value(&rec.Category),
		),
	).WithShowHelp(false)
}

func runObligationsPay(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	o, err := findObligation(st, args[0])
	if err != nil {
		return err
	}

	paid, p, err := recurring.MarkPaid(o, time.Now())
	if err != nil {
		return err
	}
	if err := st.RecordPayment(paid, p, o.NextDueDate); err != nil {
		return conflictHint(o.Name, err)
	}

	log.Debug("payment recorded",
		zap.String("obligation", o.ID.String()),
		zap.Stringer("due", p.DueDate),
		zap.Stringer("next_due", paid.NextDueDate))
	say("  Paid %s %s (due %s). Next due %s\n", o.Name, cli.FormatMoney(p.Amount),
		cli.FormatDate(p.DueDate), cli.FormatDate(paid.NextDueDate))
	return nil
}

func runObligationsEdit(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	o, err := findObligation(st, args[0])
	if err != nil {
		return err
	}

	rec := portable.Obligation{
		Name:      o.Name,
		Amount:    o.Amount.String(),
		Frequency: string(o.Frequency),
		NextDue:   o.NextDueDate.String(),
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		rec.Name = strings.TrimSpace(flagObName)
	}
	if flags.Changed("amount") {
		rec.Amount = strings.TrimSpace(flagObAmount)
	}
	if flags.Changed("frequency") {
		rec.Frequency = strings.ToLower(strings.TrimSpace(flagObFrequency))
	}
	if flags.Changed("due") {
		rec.NextDue = strings.TrimSpace(flagObDue)
	}
	if err := portable.ValidateRecord(rec); err != nil {
		return err
	}

	next, err := portable.ObligationToModel(rec, o.UpdatedAt)
	if err != nil {
		return err
	}
	next.ID = o.ID
	next.CategoryID = o.CategoryID
	next.CreatedAt = o.CreatedAt
	next.UpdatedAt = time.Now()

	if flags.Changed("category") {
		if next.CategoryID, err = ensureCategory(st, strings.TrimSpace(flagObCategory)); err != nil {
			return err
		}
	}
	if err := st.SaveObligation(next); err != nil {
		return err
	}
	say("  Updated %s\n", next.Name)
	return nil
}

func runObligationsDelete(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	o, err := findObligation(st, args[0])
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Delete %s and its payment history?", o.Name), flagYes)
	if err != nil || !ok {
		return err
	}
	if err := st.DeleteObligation(o.ID); err != nil {
		return err
	}
	say("  Deleted %s\n", o.Name)
	return nil
}

func runObligationsHistory(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	o, err := findObligation(st, args[0])
	if err != nil {
		return err
	}
	payments, err := st.ListPayments(o.ID)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		fmt.Printf("\n  No payments recorded for %s.\n", o.Name)
		return nil
	}

	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			cli.FormatDate(p.DueDate),
			p.PaidAt.Local().Format("2006-01-02 15:04"),
			cli.FormatMoney(p.Amount),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s payments", o.Name),
		Headers: []string{"Due", "Paid at", "Amount"},
		Rows:    rows,
		Left:    2,
	}))
	fmt.Println()
	return nil
}

func findObligation(st *store.Store, ref string) (model.Obligation, error) {
	id, err := st.ResolveObligationID(ref)
	if err != nil {
		return model.Obligation{}, fmt.Errorf("obligation %w", err)
	}
	return st.GetObligation(id)
}

// ensureCategory returns the id of the named category, creating it when
// missing. An empty name means no category.
func ensureCategory(st *store.Store, name string) (*ulid.ULID, error) {
	if name == "" {
		return nil, nil
	}
	c, err := st.CategoryByName(name)
	if errors.Is(err, store.ErrNotFound) {
		c = model.Category{ID: model.NewID(), Name: name}
		if err := portable.ValidateRecord(portable.Category{Name: name}); err != nil {
			return nil, err
		}
		if err := st.SaveCategory(c); err != nil {
			return nil, err
		}
		log.Debug("category created", zap.String("name", name))
	} else if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
