package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/domain/severance"
	"hrpayroll/internal/platform/db"
)

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if dir == "" {
				dir = e.cfg.MigrationsDir
			}
			return db.Migrate(cmd.Context(), e.pool, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	return cmd
}

func batchCmd() *cobra.Command {
	var (
		period    string
		employees []string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compute monthly payroll for a period",
		Long: `Compute the monthly run for each listed employee, or for every active
employee when --employee is omitted. Paid and posted runs are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := payroll.ParsePeriod(period)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			manager := e.manager()
			var result payroll.BatchResult
			if len(employees) == 0 {
				result, err = manager.RunAllActive(cmd.Context(), month)
			} else {
				result, err = manager.RunBatch(cmd.Context(), month, employees)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "Payroll month (YYYY-MM)")
	cmd.Flags().StringSliceVar(&employees, "employee", nil, "Employee ID (repeatable)")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func settleCmd() *cobra.Command {
	var (
		employeeID string
		date       string
		reason     string
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Compute and store a termination settlement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			terminated, err := time.Parse(time.DateOnly, date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			why, err := severance.ParseReason(reason)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			statement, err := e.settlements().ComputeFullSettlement(cmd.Context(), employeeID, terminated, why)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"statement": statement,
				"total":     statement.Total(),
				"complete":  len(statement.Failures) == 0,
			})
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&date, "date", "", "Termination date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", "", "Termination reason")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func legalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legal",
		Short: "Manage yearly legal parameter tables",
	}

	var file string
	load := &cobra.Command{
		Use:   "load",
		Short: "Publish every year in a YAML legal table file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, err := legal.LoadFile(file)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			store := legal.NewStore(e.pool)
			var published []int
			for _, c := range configs {
				if err := store.Publish(cmd.Context(), c); err != nil {
					return fmt.Errorf("publish %d: %w", c.Year, err)
				}
				published = append(published, c.Year)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"published": published})
		},
	}
	load.Flags().StringVar(&file, "file", "", "Legal table YAML file")
	_ = load.MarkFlagRequired("file")

	var year int
	activate := &cobra.Command{
		Use:   "activate",
		Short: "Make a published year the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := legal.NewStore(e.pool).Activate(cmd.Context(), year); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"effective": year})
		},
	}
	activate.Flags().IntVar(&year, "year", 0, "Legal year")
	_ = activate.MarkFlagRequired("year")

	cmd.AddCommand(load, activate)
	return cmd
}
