// Command ngoctl runs maintenance tasks against the library database:
// schema migrations, sample data and account management.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maxcyking/ngo-library-sub001/internal/config"
	"github.com/maxcyking/ngo-library-sub001/internal/database"
	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

var errMemoryDriver = errors.New("command needs a postgres database; the memory driver keeps no state between runs")

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:           "ngoctl",
		Short:         "Administrative tooling for the NGO library backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCommand(a),
		newSeedCommand(a),
		newUserCommand(a),
	)
	return root
}

// openStore connects to postgres and returns the query store on top of it.
// The caller closes the returned database.
func (a *app) openStore(ctx context.Context) (*database.Database, *queries.Store, error) {
	if a.cfg.Database.Driver == "memory" {
		return nil, nil, errMemoryDriver
	}
	db, err := database.New(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Health(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database is not reachable: %w", err)
	}
	return db, queries.NewStore(db.Pool), nil
}
