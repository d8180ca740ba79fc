// Command pos-demo prices scan strings against the reference catalog and
// prints receipts to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/pos-terminal/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pos-demo",
		Short:         "Point-of-sale pricing demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScenariosCmd(), newPriceCmd())
	return root
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "Print the reference checkout scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := seed.Reference()
			if err != nil {
				return err
			}
			for i, s := range scenarios {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scenario %s: %s\n", s.name, s.description)
				if err := price(cmd.OutOrStdout(), catalog, s.scan, s.card); err != nil {
					return errors.Wrapf(err, "scenario %s", s.name)
				}
			}
			return nil
		},
	}
}

func newPriceCmd() *cobra.Command {
	var cardBalance string

	cmd := &cobra.Command{
		Use:   "price <scans>",
		Short: "Price a scan string such as ABCDABA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var card *decimal.Decimal
			if cardBalance != "" {
				v, err := decimal.NewFromString(cardBalance)
				if err != nil {
					return errors.Wrap(err, "parse card balance")
				}
				card = &v
			}

			catalog, err := seed.Reference()
			if err != nil {
				return err
			}
			return price(cmd.OutOrStdout(), catalog, args[0], card)
		},
	}
	cmd.Flags().StringVar(&cardBalance, "card-balance", "", "pay with a discount card holding this accumulated amount")
	return cmd
}
