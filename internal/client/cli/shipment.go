package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/spf13/cobra"
)

func newShipmentCommand(a *App, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shipment",
		Aliases: []string{"shipments"},
		Short:   "Manage shipments referenced by invoice lines",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List shipments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.ListShipments(cmd.Context(), strings.ToUpper(status))
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), list, shipmentListTable(list))
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status: CREATED, DELIVERED or CANCELLED")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.api.GetShipment(cmd.Context(), id)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), s, shipmentListTable([]api.Shipment{*s}))
		},
	}

	create := &cobra.Command{
		Use:   "create <reference>",
		Short: "Register a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.api.CreateShipment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), s, func(w io.Writer) {
				fmt.Fprintf(w, "Created shipment %d (%s)\n", s.ID, s.Reference)
			})
		},
	}

	cmd.AddCommand(list, get, create)
	return cmd
}
