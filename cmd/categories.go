package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/pipeline"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage obligation categories",
	RunE:  runCategoriesList,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with their monthly spend",
	RunE:  runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cats, err := st.ListCategories()
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
	stats, err := pipeline.AggregateCategories(obs, names)
	if err != nil {
		return err
	}
	if len(cats) == 0 && len(stats) == 0 {
		fmt.Println("\n  No categories yet.")
		return nil
	}

	var peak float64
	for _, s := range stats {
		peak = max(peak, s.MonthlyTotal.InexactFloat64())
	}

	rows := make([][]string, 0, len(cats)+1)
	seen := make(map[string]bool, len(stats))
	for _, s := range stats {
		seen[s.CategoryID] = true
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Obligations),
			cli.FormatMoney(s.MonthlyTotal),
			cli.FormatPercent(s.SharePercent),
			cli.RenderHorizontalBar(s.MonthlyTotal.InexactFloat64(), peak, 20),
		})
	}
	// Categories with no obligations yet.
	for _, c := range cats {
		if seen[c.ID.String()] {
			continue
		}
		rows = append(rows, []string{c.Name, "0", cli.Muted("-"), cli.Muted("-"), ""})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Monthly by category",
		Headers: []string{"Category", "Bills", "Monthly", "Share", ""},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runCategoriesAdd(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("category name is required")
	}
	if _, err := ensureCategory(st, name); err != nil {
		return err
	}
	say("  Category %s ready\n", name)
	return nil
}
