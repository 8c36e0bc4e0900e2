package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/client"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
)

const defaultServer = "http://localhost:5000"

// app carries what every command needs once the persistent flags have been parsed.
type app struct {
	server string
	log    *zap.SugaredLogger
	api    *client.Client
}

// Usage example on the command line:
// > go run . list --sort lastName --desc --page-size 10
// > go run . add --first-name Ann --last-name Lee --email ann@example.com --phone 5551234567
// > CONTACTS_SERVER=http://contacts.internal:5000 go run . browse
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	server := os.Getenv("CONTACTS_SERVER")
	if server == "" {
		server = defaultServer
	}

	root := &cobra.Command{
		Use:           "contacts",
		Short:         "Manage the contacts stored by the contacts service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New("contacts", "dev")
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			a.log = log
			a.api = client.New(a.server, nil)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.server, "server", server, "base URL of the contacts service (env CONTACTS_SERVER)")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newBrowseCmd(a),
		newBenchCmd(a),
	)
	return root
}

// newSession returns a session with an empty list, for commands that only mutate.
func (a *app) newSession() *client.Session {
	return client.NewSession(a.api, a.log)
}

// session returns a session whose list holds the contacts currently on the server.
func (a *app) session(ctx context.Context) (*client.Session, error) {
	s := a.newSession()
	if !s.Reload(ctx) {
		return nil, fmt.Errorf("could not load contacts from %s", a.server)
	}
	return s, nil
}
