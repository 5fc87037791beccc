package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// now is a seam for tests.
var now = time.Now

type draftFlags struct {
	date      string
	due       string
	items     []string
	itemsFile string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "invoice date, YYYY-MM-DD or RFC 3339 (default today)")
	fl.StringVar(&f.due, "due", "", "due date, YYYY-MM-DD or RFC 3339")
	fl.StringArrayVar(&f.items, "item", nil, `line item "description;quantity;unit price[;shipment id]" (repeatable)`)
	fl.StringVar(&f.itemsFile, "items-file", "", "JSON file with an array of items")
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// parseItem reads "description;quantity;unit price[;shipment id]".
func parseItem(s string) (api.Item, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 3 && len(parts) != 4 {
		return api.Item{}, fmt.Errorf("invalid item %q: want description;quantity;unit price[;shipment id]", s)
	}

	qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return api.Item{}, fmt.Errorf("invalid quantity in item %q", s)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return api.Item{}, fmt.Errorf("invalid unit price in item %q", s)
	}

	item := api.Item{Description: strings.TrimSpace(parts[0]), Quantity: qty, UnitPrice: price}
	if len(parts) == 4 {
		id, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil {
			return api.Item{}, fmt.Errorf("invalid shipment id in item %q", s)
		}
		item.ShipmentID = &id
	}
	return item, nil
}

func (f *draftFlags) request() (api.DraftRequest, error) {
	var req api.DraftRequest

	req.InvoiceDate = now().UTC().Truncate(24 * time.Hour)
	if f.date != "" {
		d, err := parseDate(f.date)
		if err != nil {
			return req, err
		}
		req.InvoiceDate = d
	}
	if f.due != "" {
		d, err := parseDate(f.due)
		if err != nil {
			return req, err
		}
		req.DueDate = &d
	}

	if f.itemsFile != "" {
		data, err := os.ReadFile(f.itemsFile)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req.Items); err != nil {
			return req, fmt.Errorf("parse %s: %w", f.itemsFile, err)
		}
	}
	for _, s := range f.items {
		it, err := parseItem(s)
		if err != nil {
			return req, err
		}
		req.Items = append(req.Items, it)
	}
	if len(req.Items) == 0 {
		return req, fmt.Errorf("at least one --item or --items-file is required")
	}
	return req, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newInvoiceCommand(a *App, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"invoices", "inv"},
		Short:   "Create, edit, issue and inspect invoices",
	}
	cmd.AddCommand(
		newInvoiceCreateCommand(a, p),
		newInvoiceUpdateCommand(a, p),
		newInvoiceIssueCommand(a, p),
		newInvoiceGetCommand(a, p),
		newInvoiceListCommand(a, p),
		newInvoiceHistoryCommand(a, p),
	)
	return cmd
}

func newInvoiceCreateCommand(a *App, p *printer) *cobra.Command {
	var (
		clientID int64
		df       draftFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft invoice",
		Example: `  backoffice invoice create --client 3 --date 2025-01-15 \
    --item "Freight;2;10.00;11" --item "Handling;1;5.00"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := df.request()
			if err != nil {
				return err
			}
			req.ClientID = clientID

			inv, err := a.api.CreateInvoice(cmd.Context(), req)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), inv, invoiceTable(inv))
		},
	}
	cmd.Flags().Int64Var(&clientID, "client", 0, "client id")
	_ = cmd.MarkFlagRequired("client")
	df.register(cmd)
	return cmd
}

func newInvoiceUpdateCommand(a *App, p *printer) *cobra.Command {
	var (
		version int64
		df      draftFlags
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the date, due date and items of a draft",
		Long: `Replace the editable part of a draft invoice. --version must be the
version you last read; the update fails if someone else changed the draft since.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req, err := df.request()
			if err != nil {
				return err
			}
			req.Version = &version

			inv, err := a.api.UpdateInvoice(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), inv, invoiceTable(inv))
		},
	}
	cmd.Flags().Int64Var(&version, "version", 0, "expected current version")
	_ = cmd.MarkFlagRequired("version")
	df.register(cmd)
	return cmd
}

func newInvoiceIssueCommand(a *App, p *printer) *cobra.Command {
	var requestID string
	cmd := &cobra.Command{
		Use:   "issue <id>",
		Short: "Issue a draft invoice",
		Long: `Issue a draft invoice and assign its fiscal folio.

Retries are only deduplicated when they reuse the same --request-id; without
one every call is a new issuance attempt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			inv, err := a.api.IssueInvoice(cmd.Context(), id, requestID)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), inv, invoiceTable(inv))
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency token for safe retries")
	return cmd
}

func newInvoiceGetCommand(a *App, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an invoice with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			inv, err := a.api.GetInvoice(cmd.Context(), id)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), inv, invoiceTable(inv))
		},
	}
}

func newInvoiceListCommand(a *App, p *printer) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.ListInvoices(cmd.Context(), strings.ToUpper(status))
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), list, invoiceListTable(list))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status: DRAFT, ISSUED or PAID")
	return cmd
}

func newInvoiceHistoryCommand(a *App, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit trail of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := a.api.InvoiceHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), list, historyTable(list))
		},
	}
}
