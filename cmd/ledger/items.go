package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/ledger"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Correct the categorization of receipt items",
	}
	cmd.AddCommand(recategorizeCmd())
	cmd.AddCommand(bundleCmd())
	return cmd
}

func recategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recategorize <assignment-id> <category>",
		Short: "Move an item to another category and learn from it",
		Long: `Move the item behind an assignment (shown as aN by "ledger receipts show")
to another category and update both category totals. Unless --no-learn is
given, a pattern is stored so the same item is categorized the same way in
future receipts.`,
		Example: `  ledger items recategorize 41 Beverages
  ledger items recategorize 41 "Household Items" --match contains`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "assignment id")
			if err != nil {
				return err
			}
			category, err := parseCategoryArg(args[1])
			if err != nil {
				return err
			}
			noLearn, _ := cmd.Flags().GetBool("no-learn")
			match, _ := cmd.Flags().GetString("match")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			learn := !noLearn
			res, err := newEditor(store).Recategorize(ctx, ledger.RecategorizeRequest{
				AssignmentID: id,
				Category:     category,
				Learn:        &learn,
				MatchKind:    model.MatchKind(match),
			})
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderRecategorize(res))
			return nil
		},
	}
	cmd.Flags().Bool("no-learn", false, "do not store a pattern")
	cmd.Flags().String("match", "exact", "pattern match type (exact, contains, starts_with, ends_with)")
	return cmd
}

func bundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle <receipt-id> <index> <index>...",
		Short: "Combine several items of a receipt into one",
		Long: `Combine two or more items, by their [index] from "ledger receipts show", into
a single item. Quantities and prices are summed and the originals are kept
for reference but no longer counted. All items must share the same category
or be unassigned.`,
		Example: `  ledger items bundle 7 2 5
  ledger items bundle 7 2 5 --name "Agua Mineral"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			receiptID, err := parseID(args[0], "receipt id")
			if err != nil {
				return err
			}
			indices, err := parseIndices(args[1:])
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := newEditor(store).Bundle(ctx, ledger.BundleRequest{
				ReceiptID: receiptID,
				Indices:   indices,
				Name:      name,
			})
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderBundle(res))
			return nil
		},
	}
	cmd.Flags().String("name", "", "name of the combined item (default: first item with a quantity counter)")
	return cmd
}
