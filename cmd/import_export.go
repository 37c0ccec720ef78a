package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/portable"
	"github.com/theirongolddev/fundwise/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML document (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export everything as YAML (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		//nolint:gosec // import path is chosen by the local user
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	doc, err := portable.Decode(r)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	existing, err := categoryIndex(st)
	if err != nil {
		return err
	}
	ds, err := portable.ToModel(doc, existing, time.Now())
	if err != nil {
		return err
	}
	stats, err := st.Import(ds)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	log.Debug("import done",
		zap.Int("categories", stats.Categories),
		zap.Int("obligations", stats.Obligations),
		zap.Int("payments", stats.Payments),
		zap.Int("goals", stats.Goals),
		zap.Int("contributions", stats.Contributions))
	say("  Imported %d obligations (%d payments), %d goals (%d contributions), %d new categories\n",
		stats.Obligations, stats.Payments, stats.Goals, stats.Contributions, stats.Categories)
	if doc.Currency != "" && !strings.EqualFold(doc.Currency, appConfig.General.Currency) {
		say("  Note: document currency %s differs from configured %s\n", doc.Currency, appConfig.General.Currency)
	}
	return nil
}

func runExport(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ds, err := st.Export()
	if err != nil {
		return err
	}
	doc := portable.FromModel(ds, appConfig.General.Currency)

	if len(args) == 0 || args[0] == "-" {
		return portable.Encode(os.Stdout, doc)
	}

	path := args[0]
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	//nolint:gosec // export path is chosen by the local user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := portable.Encode(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	say("  Exported %d obligations and %d goals to %s\n", len(doc.Obligations), len(doc.Goals), path)
	return nil
}

// categoryIndex maps lower-cased category names to their ids.
func categoryIndex(st *store.Store) (map[string]ulid.ULID, error) {
	cats, err := st.ListCategories()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]ulid.ULID, len(cats))
	for _, c := range cats {
		idx[strings.ToLower(c.Name)] = c.ID
	}
	return idx, nil
}
