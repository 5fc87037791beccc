package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fabrica-p6f5/backoffice/internal/netx"
	"github.com/spf13/cobra"
)

func newDocumentCommand(a *App, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "document",
		Aliases: []string{"documents", "doc"},
		Short:   "Upload and fetch documents",
	}

	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := a.api.UploadDocument(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), doc, documentTable(doc))
		},
	}

	link := &cobra.Command{
		Use:   "url <id>",
		Short: "Print a short-lived download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			url, err := a.api.DocumentURL(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	var target string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a document to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			url, err := a.api.DocumentURL(cmd.Context(), id)
			if err != nil {
				return err
			}

			if target == "" {
				target = fmt.Sprintf("document-%d", id)
			}
			f, err := os.Create(target)
			if err != nil {
				return err
			}
			n, err := netx.Download(cmd.Context(), a.httpClient, url, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(target)
				return err
			}

			return p.print(cmd.OutOrStdout(), map[string]any{"file": target, "bytes": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Saved %d bytes to %s\n", n, target)
			})
		},
	}
	download.Flags().StringVar(&target, "to", "", "destination path (default document-<id>)")

	cmd.AddCommand(upload, link, download)
	return cmd
}
