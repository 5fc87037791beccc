package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/client/config"
	"github.com/spf13/cobra"
)

// AppFactory builds the App once flags are parsed.
type AppFactory func(ctx context.Context, c *config.Config) (*App, error)

type rootOptions struct {
	configFile  string
	serverURL   string
	sessionFile string
	timeout     time.Duration
	output      string
}

// NewRootCommand assembles the command tree. Subcommands receive the App
// built by factory in PersistentPreRunE.
func NewRootCommand(factory AppFactory) *cobra.Command {
	opts := &rootOptions{}
	app := &App{}

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Command-line client for the invoicing back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			applyFlags(cmd, opts, cfg)

			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("unknown output format %q", opts.output)
			}

			built, err := factory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			*app = *built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.session == nil {
				return nil
			}
			return app.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "path to a JSON config file")
	pf.StringVar(&opts.serverURL, "server", "", "back-office server URL")
	pf.StringVar(&opts.sessionFile, "session", "", "path to the local session database")
	pf.DurationVar(&opts.timeout, "timeout", 0, "request timeout")
	pf.StringVarP(&opts.output, "output", "o", outputTable, "output format: table or json")

	p := &printer{format: &opts.output}

	root.AddCommand(
		newRegisterCommand(app, p),
		newLoginCommand(app, p),
		newLogoutCommand(app, p),
		newWhoamiCommand(app, p),
		newInvoiceCommand(app, p),
		newShipmentCommand(app, p),
		newDocumentCommand(app, p),
	)
	return root
}

func applyFlags(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = opts.serverURL
	}
	if flags.Changed("session") {
		cfg.SessionFile = opts.sessionFile
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
}

// Execute runs the CLI with the production App factory.
func Execute(ctx context.Context) error {
	return NewRootCommand(NewApp).ExecuteContext(ctx)
}
