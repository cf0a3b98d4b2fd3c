// Package cli is the local front-end of the stock tracker. It renders output
// and dispatches user actions to the services; no business rule lives here
// except the one convention the design requires: the notification full-clear
// is only reachable through a prior security-gate check.
package cli

import (
	"fmt"
	"log"

	"github.com/arinony/madarun/internal/config"
	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/policy"
	"github.com/arinony/madarun/internal/services"
	"github.com/arinony/madarun/internal/session"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
}

// NewRootCommand creates the root command for the madarun CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "madarun",
		Short:         "MadaRun - suivi de stock local",
		Long:          "Single-device stock tracker: products, activity log, one local account.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database DSN (default: MADARUN_DSN or madarun.db)")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewNotificationsCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))

	return cmd
}

// app wires the store and services for one command invocation.
type app struct {
	Store         *db.Store
	Sessions      *session.Manager
	Products      *services.ProductService
	Notifications *services.NotificationService
	Gate          *services.SecurityGate
	Auth          *services.AuthService
}

// openApp opens the database, builds the service graph and restores the
// session once, the way every process start is meant to.
func openApp(opts *RootOptions) (*app, error) {
	dsn := opts.Database
	if dsn == "" {
		dsn = config.Load().DatabaseDSN
	}
	conn, err := db.ConnectAndMigrate(dsn)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(conn)
	sessions := session.NewManager(store)
	notifs := services.NewNotificationService(store)
	gate := services.NewSecurityGate(store, sessions, notifs)

	a := &app{
		Store:         store,
		Sessions:      sessions,
		Products:      services.NewProductService(store, notifs),
		Notifications: notifs,
		Gate:          gate,
		Auth:          services.NewAuthService(store, sessions, gate),
	}
	if _, _, err := a.Auth.RestoreSession(); err != nil {
		// Not fatal: the guard still has a definite state.
		log.Printf("session restore: %v", err)
	}
	return a, nil
}

// requireUser applies the route-guard decision for a protected command.
func (a *app) requireUser() (session.User, error) {
	if policy.Decide(a.Sessions.State(), policy.RouteProtected) == policy.DecisionRedirectToAuth {
		return session.User{}, fmt.Errorf("non connecté: lancez 'madarun login' d'abord")
	}
	u, ok := a.Sessions.Current()
	if !ok {
		return session.User{}, fmt.Errorf("non connecté: lancez 'madarun login' d'abord")
	}
	return u, nil
}
