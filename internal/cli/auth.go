package cli

import (
	"errors"
	"fmt"

	"github.com/arinony/madarun/internal/services"
	"github.com/spf13/cobra"
)

// NewRegisterCommand creates the account-creation command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Créer le compte local",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			id, err := a.Auth.Register(name, email, password)
			if err != nil {
				if errors.Is(err, services.ErrConstraintViolation) {
					return fmt.Errorf("cet email est déjà utilisé")
				}
				return err
			}
			if _, err := a.Auth.Login(email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Compte créé (id %d), session ouverte.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Ouvrir une session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			user, err := a.Auth.Login(email, password)
			if err != nil {
				if errors.Is(err, services.ErrAuthenticationFailed) {
					return fmt.Errorf("email ou mot de passe incorrect")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bienvenue %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Fermer la session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if err := a.Auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session fermée.")
			return nil
		},
	}
}

// NewWhoamiCommand prints the restored session, if any.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Afficher la session courante",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			u, ok := a.Sessions.Current()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "anonyme")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", u.Name, u.Email, u.ID)
			return nil
		},
	}
}

// NewProfileCommand groups the gated profile mutations.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Gérer le compte",
	}

	var newName string
	rename := &cobra.Command{
		Use:   "rename",
		Short: "Changer le nom affiché",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			if err := a.Auth.UpdateUserProfile(u.ID, newName); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Nom mis à jour.")
			return nil
		},
	}
	rename.Flags().StringVar(&newName, "name", "", "new display name")
	_ = rename.MarkFlagRequired("name")

	var current, next string
	passwd := &cobra.Command{
		Use:   "passwd",
		Short: "Changer le mot de passe",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			// Gate first: the current password authorizes the change.
			if err := a.Auth.CheckCurrentPassword(u.ID, current); err != nil {
				if errors.Is(err, services.ErrAuthenticationFailed) {
					return fmt.Errorf("l'ancien mot de passe est incorrect")
				}
				return err
			}
			if err := a.Auth.UpdateUserPassword(u.ID, next); err != nil {
				if errors.Is(err, services.ErrValidation) {
					return fmt.Errorf("le nouveau mot de passe doit faire au moins %d caractères", services.MinPasswordLen)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mot de passe changé.")
			return nil
		},
	}
	passwd.Flags().StringVar(&current, "current", "", "current password")
	passwd.Flags().StringVar(&next, "new", "", "new password")
	_ = passwd.MarkFlagRequired("current")
	_ = passwd.MarkFlagRequired("new")

	cmd.AddCommand(rename)
	cmd.AddCommand(passwd)
	return cmd
}
