// Package dbcheck is an operator probe: it runs the same store selection as
// the server and reports whether the database is reachable and which tables
// it holds.
package dbcheck

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/flagx"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/gateway"
)

// Report is the outcome of a probe. Tables is empty unless Connected.
type Report struct {
	Mode   gateway.Mode
	Store  string
	Reason error
	Tables []string
}

// Check bootstraps the store from cfg and lists the public tables when
// the database answers.
func Check(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Report, error) {
	res, err := gateway.Bootstrap(ctx, cfg, cryptox.NewHasher(cfg.BcryptCost), logger)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	r := &Report{Mode: res.Mode, Store: res.Store(), Reason: res.Reason}
	if res.Mode != gateway.Connected {
		return r, nil
	}

	ctx, cancel := dbx.WithTimeout(ctx, cfg.DBQueryTimeout)
	defer cancel()

	r.Tables, err = listTables(ctx, res.DB)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func listTables(ctx context.Context, db dbx.DBTX) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tables, nil
}

// Write prints r in a human-readable form.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "mode: %s\nstore: %s\n", r.Mode, r.Store); err != nil {
		return err
	}
	if r.Reason != nil {
		if _, err := fmt.Fprintf(w, "reason: %v\n", r.Reason); err != nil {
			return err
		}
	}
	if r.Mode != gateway.Connected {
		return nil
	}

	if _, err := fmt.Fprintf(w, "tables (%d):\n", len(r.Tables)); err != nil {
		return err
	}
	for _, t := range r.Tables {
		if _, err := fmt.Fprintf(w, "  %s\n", t); err != nil {
			return err
		}
	}
	return nil
}

// Run probes the database described by cfg. With -p it prompts for the
// password instead of using DB_PASSWORD; a full DSN is used as given.
func Run(ctx context.Context, args []string, cfg *config.Config, w io.Writer, logger logging.Logger) error {
	fs := flag.NewFlagSet("dbcheck", flag.ContinueOnError)
	prompt := fs.Bool("p", false, "prompt for the database password")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-p"})); err != nil {
		return err
	}

	// the probe is about the database, never the fallback
	cfg.StoreMode = config.StoreAuto

	if *prompt {
		pw, err := PromptPassword(w, cfg.DBUser)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		cfg.DBPassword = string(pw)
		wipe(pw)
	}

	r, err := Check(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return r.Write(w)
}
