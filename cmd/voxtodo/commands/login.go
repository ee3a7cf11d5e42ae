package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voxtodo/voxtodo/internal/clientconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var authorizationCode string

	cmd := &cobra.Command{
		Use:   "login [identity-token]",
		Short: "Sign in with an Apple identity token",
		Long:  "Exchange an Apple-issued identity token for a gateway session; the session token is stored in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			creds, err := e.remote.SignIn(cmd.Context(), args[0], authorizationCode)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}

			e.config.Token = creds.Token
			if err := clientconfig.Save(e.configPath, e.config); err != nil {
				return fmt.Errorf("failed to persist session token: %w", err)
			}

			if creds.User != nil {
				fmt.Printf("Signed in as %s\n", creds.User.Email)
			} else {
				fmt.Println("Signed in")
			}
			fmt.Printf("Session valid until %s\n", creds.ExpiresAt.Format("Jan 2 2006 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&authorizationCode, "code", "", "Optional Apple authorization code for secondary validation")

	return cmd
}
