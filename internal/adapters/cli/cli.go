package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"garment-tracker/internal/app"
	"garment-tracker/internal/core"
)

// ActingUserEnv is read when --user is not given.
const ActingUserEnv = "GARMENT_USER"

type runner struct {
	svc  app.ApplicationService
	user string
}

// actingUser returns --user, falling back to $GARMENT_USER. An empty result
// is passed through and rejected by validation.
func (r *runner) actingUser() string {
	if r.user != "" {
		return r.user
	}
	return os.Getenv(ActingUserEnv)
}

// NewRootCommand builds the command tree. All output goes to cmd.OutOrStdout().
func NewRootCommand(svc app.ApplicationService) *cobra.Command {
	r := &runner{svc: svc}

	root := &cobra.Command{
		Use:           "garment",
		Short:         "Track garment manufacturing orders through production",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&r.user, "user", "", "acting user recorded as created_by (default $"+ActingUserEnv+")")

	root.AddCommand(r.ordersCommand(), r.stageCommand(), r.reportCommand(), r.exportCommand())
	return root
}

// ── orders ───────────────────────────────────────────────────────────────────

func (r *runner) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Short:   "Create, list and show orders",
		Aliases: []string{"o"},
	}

	var in core.NewOrderInput
	var date, rate, sizes string
	create := &cobra.Command{
		Use:   "create",
		Short: "Book a new order in Pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.OrderDate, err = core.ParseDate(date); err != nil {
				return core.NewValidationError("date", "%v", err)
			}
			if in.Rate, err = parseDecimal("rate", rate); err != nil {
				return err
			}
			if in.Sizes, err = parseSizes(sizes); err != nil {
				return err
			}
			res, err := r.svc.CreateOrder(cmd.Context(), app.CreateOrderRequest{NewOrderInput: in, ActingUser: r.actingUser()})
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), res)
			return nil
		},
	}
	create.Flags().StringVar(&in.StyleID, "style", "", "style id")
	create.Flags().StringVar(&in.Customer, "customer", "", "customer name")
	create.Flags().IntVar(&in.Quantity, "quantity", 0, "order quantity (ignored when --sizes is set)")
	create.Flags().StringVar(&rate, "rate", "0", "rate per piece")
	create.Flags().StringVar(&date, "date", "", "order date YYYY-MM-DD (default today)")
	create.Flags().StringVar(&sizes, "sizes", "", "size breakdown, e.g. S=10,M=20,2XL=5")

	var filter app.ListOrdersRequest
	list := &cobra.Command{
		Use:     "list",
		Short:   "List orders, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := r.svc.ListOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printOrders(cmd.OutOrStdout(), res)
			return nil
		},
	}
	list.Flags().StringVar(&filter.Status, "status", "", "only orders at this status")
	list.Flags().StringVar(&filter.From, "from", "", "order date from (YYYY-MM-DD)")
	list.Flags().StringVar(&filter.To, "to", "", "order date to (YYYY-MM-DD)")

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show an order with every recorded stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			sheet, err := r.svc.GetOrderSheet(cmd.Context(), id)
			if err != nil {
				return err
			}
			printSheet(cmd.OutOrStdout(), sheet)
			return nil
		},
	}

	cmd.AddCommand(create, list, show)
	return cmd
}

// ── stage ────────────────────────────────────────────────────────────────────

func (r *runner) stageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Record production stages",
	}

	var orderID int
	var form string
	record := &cobra.Command{
		Use:       "record <kind>",
		Short:     "Record one stage for an order from a JSON form",
		Long:      "Record one stage for an order. Kinds: " + stageKinds() + ".\nPass the form with --json, or --json - to read it from stdin.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: strings.Split(stageKinds(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := []byte(form)
			if form == "-" {
				var err error
				if payload, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("failed to read form from stdin: %w", err)
				}
			}
			res, err := r.svc.RecordStage(cmd.Context(), app.RecordStageRequest{
				OrderID:    orderID,
				Stage:      args[0],
				Payload:    json.RawMessage(payload),
				ActingUser: r.actingUser(),
			})
			if err != nil {
				return err
			}
			printStageResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	record.Flags().IntVar(&orderID, "order", 0, "order id")
	record.Flags().StringVar(&form, "json", "", "stage form as JSON, or - for stdin")
	_ = record.MarkFlagRequired("order")
	_ = record.MarkFlagRequired("json")

	cmd.AddCommand(record)
	return cmd
}

func stageKinds() string {
	var kinds []string
	for _, t := range core.Transitions() {
		kinds = append(kinds, string(t.Stage))
	}
	return strings.Join(kinds, ", ")
}

// ── report ───────────────────────────────────────────────────────────────────

func (r *runner) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Production and sales reports",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Order counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := r.svc.StatusSummary(cmd.Context())
			if err != nil {
				return err
			}
			printStatusSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}

	dyers := &cobra.Command{
		Use:   "dyers",
		Short: "Fabric still out with each dyer/printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := r.svc.DyerBacklog(cmd.Context())
			if err != nil {
				return err
			}
			printDyerBacklog(cmd.OutOrStdout(), lines)
			return nil
		},
	}

	var year int
	revenue := &cobra.Command{
		Use:   "revenue",
		Short: "Order value by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = time.Now().Year()
			}
			lines, err := r.svc.MonthlyRevenue(cmd.Context(), year)
			if err != nil {
				return err
			}
			printMonthlyRevenue(cmd.OutOrStdout(), year, lines)
			return nil
		},
	}
	revenue.Flags().IntVar(&year, "year", 0, "calendar year (default current)")

	var limit int
	customers := &cobra.Command{
		Use:   "customers",
		Short: "Top customers by ordered quantity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := r.svc.TopCustomers(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printTopCustomers(cmd.OutOrStdout(), out)
			return nil
		},
	}
	customers.Flags().IntVar(&limit, "limit", core.DefaultTopCustomers, "number of customers")

	cmd.AddCommand(status, dyers, revenue, customers)
	return cmd
}

// ── export ───────────────────────────────────────────────────────────────────

func (r *runner) exportCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every order and its stages to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			n, err := r.svc.ExportOrders(cmd.Context(), f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to close %s: %w", path, cerr)
			}
			if err != nil {
				_ = os.Remove(path)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "orders.xlsx", "output file")
	return cmd
}

// ── flag parsing ─────────────────────────────────────────────────────────────

func parseOrderID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError("order", "must be a positive integer")
	}
	return id, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, core.NewValidationError(field, "must be a number")
	}
	return d, nil
}

// parseSizes reads "S=10,M=20,2XL=5" into a breakdown. Labels are matched
// case-insensitively against core.SizeLabels. An empty string means no breakdown.
func parseSizes(s string) (*core.SizeBreakdown, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var b core.SizeBreakdown
	buckets := map[string]*int{
		"XS": &b.XS, "S": &b.S, "M": &b.M, "L": &b.L, "XL": &b.XL, "2XL": &b.XXL,
		"3XL": &b.XXXL, "4XL": &b.XL4, "5XL": &b.XL5, "6XL": &b.XL6, "7XL": &b.XL7,
	}
	for _, part := range strings.Split(s, ",") {
		label, qty, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, core.NewValidationError("sizes", "expected SIZE=QTY, got %q", part)
		}
		dst, known := buckets[strings.ToUpper(strings.TrimSpace(label))]
		if !known {
			return nil, core.NewValidationError("sizes", "unknown size %q (want one of %s)", label, strings.Join(core.SizeLabels, ", "))
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, core.NewValidationError("sizes", "quantity for %s must be an integer", label)
		}
		*dst = n
	}
	return &b, nil
}
