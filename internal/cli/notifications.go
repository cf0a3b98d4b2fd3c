package cli

import (
	"errors"
	"fmt"

	"github.com/arinony/madarun/internal/services"
	"github.com/spf13/cobra"
)

// NewNotificationsCommand groups the activity log commands.
func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"log"},
		Short:   "Consulter l'historique d'activité",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Lister les notifications (les plus récentes en premier)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			entries, err := a.Notifications.GetAll()
			if err != nil {
				return err
			}
			for _, n := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s — %s (%s)\n",
					n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message, n.Kind)
			}
			return nil
		},
	}

	var password string
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Vider tout l'historique (mot de passe requis)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			if err := clearNotifications(a.Gate, a.Notifications, u.ID, password); err != nil {
				if errors.Is(err, services.ErrAuthenticationFailed) {
					return fmt.Errorf("mot de passe incorrect, historique conservé")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Historique vidé.")
			return nil
		},
	}
	clear.Flags().StringVar(&password, "password", "", "current password")
	_ = clear.MarkFlagRequired("password")

	cmd.AddCommand(list)
	cmd.AddCommand(clear)
	return cmd
}

// clearNotifications is the single in-scope call site of the full-clear: the
// emitter performs no authorization itself, so the gate check must precede
// it here.
func clearNotifications(gate *services.SecurityGate, notifs *services.NotificationService, userID uint, password string) error {
	if err := gate.Verify(userID, password); err != nil {
		return err
	}
	return notifs.ClearAll()
}
