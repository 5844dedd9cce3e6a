package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/engine"
	"github.com/Veraticus/receipt-ledger/internal/ledger"
	"github.com/Veraticus/receipt-ledger/internal/report"
)

func categorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <receipt-id>...",
		Short: "Re-run categorization for stored receipts",
		Long: `Replace every assignment and total of the given receipts. Learned patterns
are applied first; remaining items are sent to the language model.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newPipeline(store)
			if err != nil {
				return err
			}

			for _, arg := range args {
				id, err := parseID(arg, "receipt id")
				if err != nil {
					return err
				}
				res, err := eng.Categorize(ctx, id)
				if err != nil {
					return err
				}
				cmd.Printf("Receipt #%d: %s", id, cli.RenderCategorization(res))
			}
			return nil
		},
	}
}

func receiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List, inspect, verify and delete stored receipts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored receipts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			receipts, err := store.ListReceipts(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderReceiptList(receipts))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <receipt-id>",
		Short: "Show a receipt grouped by category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "receipt id")
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			view, err := report.BuildReceiptView(cmd.Context(), store, id)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderReceiptView(view))
			return nil
		},
	})

	cmd.AddCommand(receiptsDeleteCmd())
	cmd.AddCommand(receiptsVerifyCmd())
	return cmd
}

func receiptsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <receipt-id>",
		Short: "Delete a receipt with its assignments and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "receipt id")
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			receipt, err := store.GetReceipt(ctx, id)
			if err != nil {
				return err
			}
			if !yes {
				question := fmt.Sprintf("Delete receipt #%d from %s (%s)?", receipt.ID,
					receipt.PurchaseDate.Format("2006-01-02"), cli.FormatMoney(receipt.TotalAmount))
				ok, err := cli.Confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), question)
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println(cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := engine.New(store, nil, nil, recorder).DeleteReceipt(ctx, id); err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Deleted receipt #%d", id)))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func receiptsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [receipt-id...]",
		Short: "Check that stored totals match the assigned items",
		Long: `Recompute every category total from the assignments and compare it with the
stored value. Without arguments all receipts are checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var ids []int64
			for _, arg := range args {
				id, err := parseID(arg, "receipt id")
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				receipts, err := store.ListReceipts(ctx)
				if err != nil {
					return err
				}
				for _, r := range receipts {
					ids = append(ids, r.ID)
				}
			}

			editor := newEditor(store)
			var bad int
			for _, id := range ids {
				err := editor.Verify(ctx, id)
				var inconsistent *ledger.InconsistencyError
				switch {
				case err == nil:
					cmd.Println(cli.FormatSuccess(fmt.Sprintf("Receipt #%d is consistent", id)))
				case errors.As(err, &inconsistent):
					bad++
					cmd.Println(cli.FormatError(fmt.Sprintf("Receipt #%d is inconsistent", id)))
					for _, p := range inconsistent.Problems {
						cmd.Println("  " + p)
					}
				default:
					return err
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d receipts are inconsistent, run `ledger categorize` to rebuild them", bad, len(ids))
			}
			return nil
		},
	}
}
