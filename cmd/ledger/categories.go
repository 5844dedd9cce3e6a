package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/report"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the spending categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the available categories",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(cli.RenderCategories())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "items <category>",
		Short: "List every item assigned to a category, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			items, err := store.GetCategoryItems(cmd.Context(), category)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderCategoryItems(category, items))
			return nil
		},
	})

	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show spending per month and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			months, err := report.MonthlyBreakdown(cmd.Context(), store)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderMonthly(months))
			return nil
		},
	}
}
