package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"garment-tracker/internal/app"
	"garment-tracker/internal/core"
)

// indianGrouping formats n with Indian digit grouping: the last three digits,
// then pairs (1,00,00,000).
func indianGrouping(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	out := s[len(s)-3:]
	rest := s[:len(s)-3]
	for len(rest) > 2 {
		out = rest[len(rest)-2:] + "," + out
		rest = rest[:len(rest)-2]
	}
	return sign + rest + "," + out
}

// formatAmount renders a money value in whole units with Indian grouping.
// Fractions are truncated.
func formatAmount(d decimal.Decimal) string {
	return indianGrouping(d.IntPart())
}

func printOrders(w io.Writer, result *app.OrderListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 96))
	fmt.Fprintf(w, "  %-5s %-10s %-10s %-22s %8s %12s  %s\n", "ID", "DATE", "STYLE", "CUSTOMER", "QTY", "AMOUNT", "STATUS")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	if len(result.Orders) == 0 {
		fmt.Fprintln(w, "  No orders found.")
	}
	for _, o := range result.Orders {
		fmt.Fprintf(w, "  %-5d %-10s %-10s %-22s %8s %12s  %s\n",
			o.ID, o.OrderDate, truncate(o.StyleID, 10), truncate(o.Customer, 22),
			indianGrouping(int64(o.Quantity)), formatAmount(o.Amount), o.Status)
	}
	fmt.Fprintln(w, strings.Repeat("=", 96))
}

func printOrder(w io.Writer, res *app.OrderResult) {
	o := res.Order
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "  Order:     %d\n", o.ID)
	fmt.Fprintf(w, "  Date:      %s\n", o.OrderDate)
	fmt.Fprintf(w, "  Style:     %s\n", o.StyleID)
	fmt.Fprintf(w, "  Customer:  %s\n", o.Customer)
	fmt.Fprintf(w, "  Quantity:  %s\n", indianGrouping(int64(o.Quantity)))
	if o.Sizes != nil {
		var parts []string
		for i, q := range o.Sizes.Buckets() {
			if q > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", core.SizeLabels[i], q))
			}
		}
		fmt.Fprintf(w, "  Sizes:     %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "  Rate:      %s\n", o.Rate.StringFixed(2))
	fmt.Fprintf(w, "  Amount:    %s\n", formatAmount(o.Amount))
	fmt.Fprintf(w, "  Status:    %s (%d/9)\n", o.Status, o.Status.Position())
	if len(res.NextStages) > 0 {
		next := make([]string, len(res.NextStages))
		for i, s := range res.NextStages {
			next[i] = string(s)
		}
		fmt.Fprintf(w, "  Next:      %s\n", strings.Join(next, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

// printSheet prints the order header followed by one line per recorded stage.
func printSheet(w io.Writer, sheet *core.OrderSheet) {
	printOrder(w, &app.OrderResult{Order: &sheet.Order, NextStages: core.NextStages(sheet.Order.Status)})
	line := func(stage, detail string) {
		fmt.Fprintf(w, "  %-22s %s\n", stage, detail)
	}
	if r := sheet.FabricPurchase; r != nil {
		line("Fabric purchase", fmt.Sprintf("%s from %s, qty %d, amount %s, balance %d",
			r.PurchaseDate, r.PurchasedFrom, r.Quantity, formatAmount(r.Amount), r.Balance))
	}
	if r := sheet.DyeingSent; r != nil {
		line("Dyeing sent", fmt.Sprintf("%s to %s, qty %d, amount %s, received %t",
			r.IssuedChallanDate, r.DyerPrinterName, r.IssuedChallanQuantity, formatAmount(r.Amount), r.Received))
	}
	if r := sheet.DyeingReceived; r != nil {
		line("Dyeing received", fmt.Sprintf("%s, shrinkage %s%%, received %d of %d, balance %d",
			r.ReceivedDate, r.ShrinkagePercent, r.ReceivedQuantity, r.IssuedQuantity, r.BalanceQuantity))
	}
	if r := sheet.ClothCutting; r != nil {
		line("Cloth cutting", jobWorkLine(r.JobWork, r.JobWorkTotals))
	}
	if r := sheet.Stitching; r != nil {
		line("Stitching", jobWorkLine(r.JobWork, r.JobWorkTotals))
	}
	for _, r := range sheet.ExtraWork {
		line("Extra work: "+truncate(r.ExtraWorkName, 10), jobWorkLine(r.JobWork, r.JobWorkTotals))
	}
	if r := sheet.FinishingAndPacking; r != nil {
		line("Finishing and packing", fmt.Sprintf("%s by %s, packed %d of %d, rejected %d, amount %s",
			r.IssuedChallanDate, r.JobWorkerName, r.PackedQuantity, r.IssuedChallanQuantity, r.Rejected, formatAmount(r.Amount)))
	}
	if r := sheet.Dispatch; r != nil {
		line("Dispatch", fmt.Sprintf("%s to %s, qty %d, invoice %s", r.DispatchDate, r.DispatchedTo, r.Quantity, r.InvoiceNumber))
	}
}

func jobWorkLine(j core.JobWork, t core.JobWorkTotals) string {
	return fmt.Sprintf("%s by %s, received %d of %d, balance %d, amount %s",
		j.IssuedChallanDate, j.JobWorkerName, j.ReceivedQuantity, j.IssuedChallanQuantity, t.BalanceQuantity, formatAmount(t.Amount))
}

func printStageResult(w io.Writer, res *app.StageResult) {
	fmt.Fprintf(w, "Recorded %s for order %d. Status is now %q.\n", res.Stage, res.Order.Order.ID, res.Order.Order.Status)
}

func printStatusSummary(w io.Writer, s *core.StatusSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 44))
	for _, c := range s.ByStatus {
		fmt.Fprintf(w, "  %d. %-32s %5d\n", c.Position, c.Status, c.Count)
	}
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  Pending %d, in progress %d, dispatched %d, total %d\n", s.Pending, s.InProgress, s.Dispatched, s.Total)
	fmt.Fprintln(w, strings.Repeat("=", 44))
}

func printDyerBacklog(w io.Writer, lines []core.DyerBacklogLine) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-28s %6s %10s %12s  %s\n", "DYER / PRINTER", "OPEN", "QTY", "AMOUNT", "OLDEST")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	if len(lines) == 0 {
		fmt.Fprintln(w, "  Nothing out for dyeing.")
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %-28s %6d %10s %12s  %s\n",
			truncate(l.DyerPrinterName, 28), l.OpenDispatches, indianGrouping(int64(l.IssuedQuantity)), formatAmount(l.Amount), l.OldestIssued)
	}
}

func printMonthlyRevenue(w io.Writer, year int, lines []core.MonthlyRevenueLine) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Revenue %d\n", year)
	fmt.Fprintf(w, "  %-5s %7s %10s %14s\n", "MONTH", "ORDERS", "QTY", "AMOUNT")
	fmt.Fprintln(w, strings.Repeat("-", 42))
	for _, l := range lines {
		fmt.Fprintf(w, "  %-5d %7d %10s %14s\n", l.Month, l.Orders, indianGrouping(int64(l.Quantity)), formatAmount(l.Amount))
	}
}

func printTopCustomers(w io.Writer, out []core.CustomerTotal) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-28s %7s %10s %14s\n", "CUSTOMER", "ORDERS", "QTY", "AMOUNT")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, c := range out {
		fmt.Fprintf(w, "  %-28s %7d %10s %14s\n", truncate(c.Customer, 28), c.Orders, indianGrouping(int64(c.Quantity)), formatAmount(c.Amount))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
