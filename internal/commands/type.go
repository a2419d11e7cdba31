package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounttypes"
	"github.com/cleared-dev/ledger/internal/model"
)

func newTypeCommand(g *globals) *cobra.Command {
	typeCmd := &cobra.Command{
		Use:   "type",
		Short: "Account type classification",
	}
	typeCmd.AddCommand(newTypeListCommand(g))
	typeCmd.AddCommand(newTypeAddCommand(g))
	typeCmd.AddCommand(newTypeMoveCommand(g))
	typeCmd.AddCommand(newTypeDeleteCommand(g))
	return typeCmd
}

func newTypeListCommand(g *globals) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list [code]",
		Short: "List account types, or the types nested under code",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			ctx := cmd.Context()
			var types []model.AccountType
			if len(args) == 1 {
				root, err := rt.types.ByCode(ctx, rt.company, args[0])
				if err != nil {
					return err
				}
				nested, err := rt.types.Descendants(ctx, root)
				if err != nil {
					return err
				}
				types = append(types, *root)
				for t := range nested {
					types = append(types, t)
				}
			} else {
				var err error
				types, err = rt.types.List(ctx, rt.company, model.Category(strings.ToUpper(category)))
				if err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Code\tName\tCategory\tNormal\tPosting\t")
			for _, t := range types {
				posting := "yes"
				if !t.AllowPosting {
					posting = "no"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n",
					strings.Repeat("  ", t.Level), t.Code, t.Name, t.Category, t.NormalBalance, posting)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&category, "category", "", "only list types of this category")

	return cmd
}

func newTypeAddCommand(g *globals) *cobra.Command {
	var p accounttypes.CreateParams
	var category, normal string
	var noPosting bool

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an account type",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			p.Code, p.Name = args[0], args[1]
			p.Category = model.Category(strings.ToUpper(category))
			p.NormalBalance = model.NormalBalance(strings.ToUpper(normal))
			if noPosting {
				no := false
				p.AllowPosting = &no
			}

			t, err := rt.types.Create(cmd.Context(), rt.company, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account type %s %s (%s, level %d)\n", t.Code, t.Name, t.Category, t.Level)
			return nil
		}),
	}

	cmd.Flags().StringVar(&category, "category", "", "asset, liability, equity, revenue or expense (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringVar(&normal, "normal", "", "normal balance: debit or credit (required)")
	_ = cmd.MarkFlagRequired("normal")
	cmd.Flags().StringVar(&p.ParentCode, "parent", "", "parent type code")
	cmd.Flags().StringVar(&p.LocalName, "local-name", "", "name in the local language")
	cmd.Flags().BoolVar(&p.RequireReconciliation, "reconcile", false, "lines on this type require reconciliation")
	cmd.Flags().BoolVar(&noPosting, "no-posting", false, "summary type that does not accept postings")

	return cmd
}

func newTypeMoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "move <code> [parent]",
		Short: "Move an account type under another parent, or to the root",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			parent := ""
			if len(args) > 1 {
				parent = args[1]
			}
			t, err := rt.types.Reparent(cmd.Context(), rt.company, args[0], parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to level %d\n", t.Code, t.Level)
			return nil
		}),
	}
}

func newTypeDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an unused account type",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			if err := rt.types.Delete(cmd.Context(), rt.company, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account type %s\n", args[0])
			return nil
		}),
	}
}
