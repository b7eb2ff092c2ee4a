package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/config"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			withSeed, _ := cmd.Flags().GetBool("seed")
			adminEmail, _ := cmd.Flags().GetString("admin-email")
			adminPassword, _ := cmd.Flags().GetString("admin-password")

			cfg := config.Load()
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := repository.Migrate(ctx, a.pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")

			if !withSeed {
				return nil
			}
			if err := seed(ctx, a.store, cfg, seedOptions{AdminEmail: adminEmail, AdminPassword: adminPassword}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed data applied")
			return nil
		},
	}
	cmd.Flags().Bool("seed", false, "create a default property and the guest user when missing")
	cmd.Flags().String("admin-email", "", "with --seed, also create this administrator")
	cmd.Flags().String("admin-password", os.Getenv("ADMIN_PASSWORD"), "password for --admin-email")
	return cmd
}

func quoteCmd() *cobra.Command {
	var in domain.QuoteInput
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay and print the quote as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), config.Load(), inMemory)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.quotes(a.availability()).Quote(cmd.Context(), in)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("quote rejected: %s", res.Code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.CheckIn, "check-in", "", "arrival date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.CheckOut, "check-out", "", "departure date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Coupon, "coupon", "", "coupon code")
	cmd.Flags().StringVar(&in.PropertyID, "property", "", "property id (defaults to the first property)")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "quote against a seeded in-memory store")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}

func reapHoldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reap-holds",
		Short: "Cancel PENDING reservations whose hold has expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			a, err := newApp(ctx, config.Load(), false)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.reaper().Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d expired hold(s)\n", n)
			return nil
		},
	}
	return cmd
}
