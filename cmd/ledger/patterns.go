package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/pattern"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned categorization patterns",
		Long: `Patterns map item names to categories and are applied before the language
model. They are learned automatically from "ledger items recategorize" and can
also be managed by hand.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsAddCmd())
	cmd.AddCommand(patternsDeleteCmd())
	cmd.AddCommand(patternsTestCmd())
	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patterns in the order they are tried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			categoryArg, _ := cmd.Flags().GetString("category")
			matchArg, _ := cmd.Flags().GetString("match")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var patterns []model.Pattern
			switch {
			case categoryArg != "":
				category, err := parseCategoryArg(categoryArg)
				if err != nil {
					return err
				}
				patterns, err = store.GetPatternsByCategory(ctx, category)
				if err != nil {
					return err
				}
			case matchArg != "":
				kind, err := model.ParseMatchKind(matchArg)
				if err != nil {
					return common.NewValidationError("%v", err)
				}
				patterns, err = store.GetPatternsByKind(ctx, kind)
				if err != nil {
					return err
				}
			default:
				patterns, err = store.GetPatterns(ctx)
				if err != nil {
					return err
				}
			}

			cmd.Print(cli.RenderPatterns(patterns))
			return nil
		},
	}
	cmd.Flags().String("category", "", "only patterns for this category")
	cmd.Flags().String("match", "", "only patterns of this match type")
	return cmd
}

func patternsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <category> <text>",
		Short: "Add a pattern by hand",
		Example: `  ledger patterns add Beverages "coca cola" --match contains
  ledger patterns add Dairy "leite integral 1l" --priority 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			match, _ := cmd.Flags().GetString("match")
			priority, _ := cmd.Flags().GetInt("priority")

			p, err := pattern.NewPattern(category, args[1], model.MatchKind(match))
			if err != nil {
				return err
			}
			if priority > 0 {
				p.Priority = priority
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SavePattern(ctx, p); err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Pattern #%d: %s %q → %s", p.ID, p.MatchKind, p.Text, p.Category)))
			return nil
		},
	}
	cmd.Flags().String("match", "exact", "match type (exact, contains, starts_with, ends_with)")
	cmd.Flags().Int("priority", pattern.DefaultPriority, "higher priorities are tried first within a match type")
	return cmd
}

func patternsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "pattern id")
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeletePattern(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Deleted pattern #%d", id)))
			return nil
		},
	}
}

func patternsTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <item-name>",
		Short: "Show which pattern, if any, would categorize an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher, err := pattern.LoadMatcher(ctx, store)
			if err != nil {
				return err
			}

			p, ok := matcher.FindMatch(model.StripCounter(args[0]))
			if !ok {
				cmd.Println(cli.FormatInfo(fmt.Sprintf("No pattern matches %q, it would be sent to the language model", args[0])))
				return nil
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("%q → %s (pattern #%d, %s %q)", args[0], p.Category, p.ID, p.MatchKind, p.Text)))
			return nil
		},
	}
}
