package cmd

import (
	"fmt"

	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Card Portal",
	Long: `Signs in with an email and password. The token and profile are stored in
the data folder so later commands run as the same user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := p.Login(cmd.Context(), loginEmail, loginPassword); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			identity := p.Auth.Identity()
			pterm.Success.Printf("Logged in as %s (%s)\n", identity.Email, identity.UserType)
			pterm.Info.Printf("Landing page: %s\n", p.Router.Current().Location.Path)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if !p.Auth.IsAuthenticated() {
				pterm.Info.Println("Not logged in")
				return nil
			}
			p.Logout(cmd.Context())
			pterm.Success.Println("Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}
			// Refresh from the backend; a rejected token ends the session here
			identity, err := p.Accounts.Profile(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}

			pterm.DefaultSection.Println("Profile")
			_ = pterm.DefaultTable.WithData(pterm.TableData{
				{"ID", fmt.Sprint(identity.ID)},
				{"EMAIL", identity.Email},
				{"NAME", identity.FullName()},
				{"TYPE", string(identity.UserType)},
				{"STATUS", string(identity.Status)},
				{"CARDS", fmt.Sprint(identity.TotalCards)},
				{"BALANCE", identity.TotalBalance.String()},
			}).Render()
			return nil
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Resolve a portal page for the signed-in user",
	Long: `Navigates to a client route such as /card-management and reports where the
route guards send the current session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			outcome := p.Navigate(args[0])
			if outcome.Location.Path != args[0] {
				pterm.Warning.Printf("%s redirected to %s\n", args[0], outcome.Location.Path)
			} else {
				pterm.Success.Printf("%s allowed\n", outcome.Location.Path)
			}
			for name, value := range outcome.Params {
				pterm.Info.Printf("%s = %s\n", name, value)
			}
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
