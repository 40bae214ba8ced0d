package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/dietbot/internal/repo"
)

var (
	startDate   string
	endDate     string
	includeGoal bool
	reportDate  string
)

// rangeFlags registers the shared --start/--end flags on cmd.
func rangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&startDate, "start", "", "first date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&endDate, "end", "", "last date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func subjectArg(args []string) (string, error) {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", fmt.Errorf("user id must not be blank")
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var backfillCmd = &cobra.Command{
	Use:   "backfill <user-id>",
	Short: "Load body and nutrition history for a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subj, err := subjectArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.backfill.Run(cmd.Context(), subj, startDate, endDate, includeGoal)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <user-id>",
	Short: "Re-fetch days whose stored nutrition is missing or incomplete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subj, err := subjectArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.gaps.Reconcile(cmd.Context(), subj, startDate, endDate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal <user-id>",
	Short: "Replicate the current goal across a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subj, err := subjectArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.days.SnapshotGoal(cmd.Context(), subj, startDate, endDate)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d goal rows\n", n)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Print the daily report of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subj, err := subjectArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := a.reports.Daily(cmd.Context(), subj, reportDate)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg.DB)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DB.Driver)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-retries",
	Short: "Delete expired webhook redelivery keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg.DB)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		n, err := repo.PurgeExpiredIdempotency(cmd.Context(), db, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired keys\n", n)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{backfillCmd, reconcileCmd, goalCmd} {
		rangeFlags(c)
	}
	backfillCmd.Flags().BoolVar(&includeGoal, "include-goal", false, "also snapshot the current goal over the range")

	reportCmd.Flags().StringVar(&reportDate, "date", "", "report date, YYYY-MM-DD or YYYY/MM/DD (required)")
	_ = reportCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(backfillCmd, reconcileCmd, goalCmd, reportCmd, migrateCmd, purgeCmd)
}
