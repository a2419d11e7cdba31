package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/accounttypes"
	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/sequence"
	"github.com/cleared-dev/ledger/internal/statements"
	"github.com/cleared-dev/ledger/internal/store"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	actor      string
}

// runtime holds the services a command works with.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	company  uuid.UUID
	actor    model.Actor
	types    *accounttypes.Registry
	accounts *accounts.Registry
	journal  *journal.Service
	reports  *statements.Generator
	balances *balance.Calculator
}

func openRuntime(g *globals) (*runtime, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, g.actor)
}

func newRuntime(cfg *config.Config, actor string) (*runtime, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	db, err := store.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	month, day, err := cfg.Fiscal.Start()
	if err != nil {
		return nil, err
	}

	accts := accounts.NewRegistry(db, log)
	entries := journal.NewService(db, accts, sequence.NewStore(db), log,
		journal.WithDefaultPrefix(cfg.Sequence.DefaultPrefix))
	return &runtime{
		cfg:      cfg,
		log:      log,
		db:       db,
		company:  cfg.CompanyID(),
		actor:    actorFor(actor),
		types:    accounttypes.NewRegistry(db, log),
		accounts: accts,
		journal:  entries,
		reports:  statements.New(db, log, statements.WithFiscalYearStart(month, day)),
		balances: balance.New(db),
	}, nil
}

func (rt *runtime) Close() {
	_ = rt.log.Sync()
	_ = store.Close(rt.db)
}

// actorFor derives a stable actor ID from a user name.
func actorFor(name string) model.Actor {
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "ledger"
	}
	return model.Actor{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name}
}

// withRuntime wraps a command body that needs the services.
func withRuntime(g *globals, fn func(cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(g)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt, args)
	}
}

// parseDate reads a YYYY-MM-DD flag value; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now()), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
