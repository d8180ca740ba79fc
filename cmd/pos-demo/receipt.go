package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
	"github.com/xenking/pos-terminal/internal/domain/terminal"
)

type scenario struct {
	name        string
	description string
	scan        string
	card        *decimal.Decimal
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

var scenarios = []scenario{
	{name: "A", description: "mixed basket", scan: "AAAABCDAAA"},
	{name: "B", description: "one six pack and a single", scan: "CCCCCCC"},
	{name: "C", description: "fresh discount card", scan: "ABCD", card: ptr(decimal.Zero)},
	{name: "D", description: "silver discount card", scan: "AAAABCDAAA", card: ptr(decimal.NewFromInt(2150))},
}

// price scans every character of scan as one product code and prints the
// receipt. With a card balance the transaction is settled against a card.
func price(w io.Writer, catalog *pricing.Catalog, scan string, cardBalance *decimal.Decimal) error {
	term := terminal.New()
	if err := term.SetCatalog(catalog); err != nil {
		return err
	}
	for _, c := range scan {
		if err := term.Scan(string(c)); err != nil {
			return err
		}
	}

	lines, err := term.Lines()
	if err != nil {
		return err
	}

	var (
		summary terminal.Summary
		account *loyalty.Account
	)
	if cardBalance != nil {
		account, err = loyalty.NewAccount(*cardBalance)
		if err != nil {
			return err
		}
		summary, err = term.SettleWithCard(account)
	} else {
		var b pricing.Breakdown
		b, err = term.Breakdown()
		summary = terminal.Apply(b, decimal.Zero)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "code\tqty\tamount\t\n")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", l.Code, l.Quantity, l.Total.StringFixed(2))
	}
	fmt.Fprintf(tw, "subtotal\t\t%s\t\n", summary.Total.StringFixed(2))
	if account != nil {
		fmt.Fprintf(tw, "card eligible\t\t%s\t\n", summary.CardEligible.StringFixed(2))
		fmt.Fprintf(tw, "discount %s%%\t\t-%s\t\n", summary.Rate.Shift(2).String(), summary.Discount.StringFixed(2))
	}
	fmt.Fprintf(tw, "total\t\t%s\t\n", summary.Final.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}

	if account != nil {
		fmt.Fprintf(w, "card balance %s -> %s (%s)\n",
			cardBalance.StringFixed(2), account.Accumulated().StringFixed(2), account.Tier().Name)
	}
	return nil
}
