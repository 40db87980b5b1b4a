package receipt

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/transaction"
	"github.com/xenking/pos-backend/pkg/escpos"
)

const rule = "------------------------------------------------\n"

// Print formats the receipt and writes the full ESC/POS command stream to w.
// The grand total printed is derived from the lines, matching the settled
// transaction total by the engine's derived-total invariant.
func Print(w io.Writer, r transaction.Receipt) error {
	p := escpos.New(w)

	p.Init().
		Align(escpos.AlignCenter).
		LineSpacing(1).
		Text("RECEIPT\n").
		Text(rule).
		Align(escpos.AlignLeft)

	total := decimal.Zero
	for _, l := range r.Lines {
		p.Text(fmt.Sprintf("%-20s %2d x %18s\n", l.Name, l.Quantity, l.UnitPrice.StringFixed(2)))
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	p.Align(escpos.AlignCenter).
		Text(rule).
		Align(escpos.AlignLeft).
		Bold(true).
		Text(fmt.Sprintf("TOTAL: %35s\n", total.StringFixed(2))).
		Text(rule).
		Feed(1).
		Bold(false).
		Text(fmt.Sprintf("Paid: %s\n", r.Paid.StringFixed(2))).
		Text(fmt.Sprintf("Change: %s\n", r.Change.StringFixed(2))).
		Feed(6).
		Cut()

	return p.Err()
}
