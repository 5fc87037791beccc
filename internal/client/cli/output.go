package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/fabrica-p6f5/backoffice/internal/common"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type printer struct {
	format *string
}

func (p *printer) print(w io.Writer, v any, table func(tw io.Writer)) error {
	if *p.format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func optDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return date(*t)
}

func optString(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func optID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}

func invoiceTable(inv *api.Invoice) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", inv.ID)
		fmt.Fprintf(w, "Client:\t%d\n", inv.ClientID)
		fmt.Fprintf(w, "Status:\t%s\n", inv.Status)
		fmt.Fprintf(w, "Version:\t%d\n", inv.Version)
		fmt.Fprintf(w, "Date:\t%s\n", date(inv.InvoiceDate))
		fmt.Fprintf(w, "Due:\t%s\n", optDate(inv.DueDate))
		fmt.Fprintf(w, "Folio:\t%s\n", optString(inv.FiscalFolio))
		fmt.Fprintf(w, "Total:\t%s\n", inv.TotalAmount.StringFixed(common.MoneyScale))
		if len(inv.Items) == 0 {
			return
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "#\tSHIPMENT\tDESCRIPTION\tQTY\tUNIT PRICE\tLINE TOTAL")
		for _, it := range inv.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", it.Position, optID(it.ShipmentID), it.Description, it.Quantity,
				it.UnitPrice.StringFixed(common.MoneyScale), it.LineTotal.StringFixed(common.MoneyScale))
		}
	}
}

func invoiceListTable(list []api.Invoice) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tCLIENT\tSTATUS\tVERSION\tDATE\tTOTAL\tFOLIO")
		for _, inv := range list {
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\t%s\n", inv.ID, inv.ClientID, inv.Status, inv.Version,
				date(inv.InvoiceDate), inv.TotalAmount.StringFixed(common.MoneyScale), optString(inv.FiscalFolio))
		}
	}
}

func historyTable(list []api.HistoryEntry) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "VERSION\tCHANGED AT\tBY\tSUMMARY")
		for _, h := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", h.Version, h.ChangedAt.Format(time.RFC3339), h.ChangedBy, h.ChangeSummary)
		}
	}
}

func shipmentListTable(list []api.Shipment) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tREFERENCE\tSTATUS\tLOCKED\tINVOICED")
		for _, s := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", s.ID, s.Reference, s.Status, s.Locked, s.Invoiced)
		}
	}
}

func documentTable(d *api.Document) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", d.ID)
		fmt.Fprintf(w, "File:\t%s\n", d.Filename)
		fmt.Fprintf(w, "Type:\t%s\n", d.ContentType)
		fmt.Fprintf(w, "Size:\t%d\n", d.Size)
	}
}
