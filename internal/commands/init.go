package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/accounttypes"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/store"
)

type initOptions struct {
	name     string
	template string
	driver   string
	dsn      string
	chart    string
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new set of books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.template, "template", "cgnc", "chart of accounts template")
	cmd.Flags().StringVar(&opts.driver, "driver", "sqlite", "database driver: sqlite or postgres")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database DSN (default <directory>/ledger.db for sqlite)")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "import the chart of accounts from this CSV instead of the template")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	// Write ledger.yaml.
	cfg := config.Default(opts.name)
	cfg.Database.Driver = opts.driver
	cfg.Database.DSN = opts.dsn
	if cfg.Database.DSN == "" {
		if opts.driver != "sqlite" {
			return fmt.Errorf("--dsn is required for driver %s", opts.driver)
		}
		cfg.Database.DSN = filepath.Join(dir, "ledger.db")
	}

	types, err := accounttypes.DefaultTypes(opts.template)
	if err != nil {
		return err
	}
	var chart []accounts.CreateParams
	if opts.chart == "" {
		if chart, err = accounts.DefaultChart(opts.template); err != nil {
			return err
		}
	} else {
		f, err := os.Open(opts.chart)
		if err != nil {
			return fmt.Errorf("opening chart: %w", err)
		}
		defer f.Close()
		chart, err = accounts.ReadAccounts(f)
		if err != nil {
			return err
		}
	}

	rt, err := newRuntime(cfg, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := store.Migrate(rt.db); err != nil {
		return err
	}

	// Seed account types, chart of accounts and journals.
	ctx := context.Background()
	seeded, err := rt.types.Seed(ctx, rt.company, types)
	if err != nil {
		return fmt.Errorf("seeding account types: %w", err)
	}
	accts, err := rt.accounts.Import(ctx, rt.company, chart)
	if err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}
	journals, err := rt.journal.Seed(ctx, rt.company, journal.DefaultJournals())
	if err != nil {
		return fmt.Errorf("seeding journals: %w", err)
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized books for %s at %s (%d account types, %d accounts, %d journals)\n",
		opts.name, dir, len(seeded), len(accts), len(journals))
	return nil
}
