package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hilook/storefront-api/internal/migrations"

	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or revert the storefront database schema",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")

	withMigrator := func(fn func(cmd *cobra.Command, args []string, mg *migrations.Migrator) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--db-dsn or DB_DSN must be set")
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				return err
			}

			mg, err := migrations.New(db)
			if err != nil {
				return err
			}
			defer mg.Close()

			return fn(cmd, args, mg)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, args []string, mg *migrations.Migrator) error {
			changed, err := mg.Up()
			if err != nil {
				return err
			}

			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				return nil
			}

			return printVersion(cmd, mg)
		}),
	}

	var steps int

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, args []string, mg *migrations.Migrator) error {
			if err := mg.Down(steps); err != nil {
				return err
			}

			return printVersion(cmd, mg)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert")

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, args []string, mg *migrations.Migrator) error {
			statuses, err := mg.Status()
			if err != nil {
				return err
			}

			for _, s := range statuses {
				state := "pending"
				switch {
				case s.Dirty:
					state = "dirty"
				case s.Applied:
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%06d_%-30s %s\n", s.Version, s.Name, state)
			}
			return nil
		}),
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := parseForceVersion(args[0])
			return err
		},
		RunE: withMigrator(func(cmd *cobra.Command, args []string, mg *migrations.Migrator) error {
			version, _ := parseForceVersion(args[0])

			if err := mg.Force(version); err != nil {
				return err
			}

			return printVersion(cmd, mg)
		}),
	}

	root.AddCommand(up, down, status, force)

	return root
}

// parseForceVersion accepts a migration version, or -1 to clear every version.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < -1 {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return v, nil
}

func printVersion(cmd *cobra.Command, mg *migrations.Migrator) error {
	version, dirty, ok, err := mg.Version()
	if err != nil {
		return err
	}

	switch {
	case !ok:
		fmt.Fprintln(cmd.OutOrStdout(), "schema at version: none")
	case dirty:
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version: %d (dirty)\n", version)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version: %d\n", version)
	}

	return nil
}
