package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tvlink/tvlink/internal/models"
	"github.com/tvlink/tvlink/internal/session"
)

var profileAddFlags struct {
	profileType string
	url         string
	username    string
	password    string
	mac         string
}

// profileCmd groups the saved-profile subcommands.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved connection profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Save a new connection profile",
	Long: `Save a new connection profile under a unique name.

The backend type is detected from the URL and credentials unless --type is
given: a MAC address selects the Stalker portal protocol, a .m3u/.m3u8 URL
selects M3U, anything else is treated as an Xtream panel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p := &models.Profile{
			Name:     args[0],
			Type:     models.PlaylistType(profileAddFlags.profileType),
			URL:      profileAddFlags.url,
			Username: profileAddFlags.username,
			Password: profileAddFlags.password,
			MAC:      profileAddFlags.mac,
		}
		if p.Type == "" {
			p.Type = detectProfileType(p)
		}

		if err := store.Create(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Printf("Profile %q saved (%s)\n", p.Name, p.Type)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved connection profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		profiles, err := store.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles saved.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tURL\tIDENTITY")
		for _, p := range profiles {
			identity := p.Username
			if p.Type == models.PlaylistTypeStalker {
				identity = p.MAC
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Type, p.URL, identity)
		}
		return w.Flush()
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Delete a saved connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Profile %q removed\n", args[0])
		return nil
	},
}

// detectProfileType applies the login heuristics to a profile being saved.
func detectProfileType(p *models.Profile) models.PlaylistType {
	return session.DetectType(session.SanitizeURL(p.URL), p.MAC)
}

func init() {
	profileAddCmd.Flags().StringVar(&profileAddFlags.profileType, "type", "", "backend type (xtream, stalker, m3u); detected when omitted")
	profileAddCmd.Flags().StringVar(&profileAddFlags.url, "url", "", "backend base URL or playlist URL")
	profileAddCmd.Flags().StringVar(&profileAddFlags.username, "username", "", "Xtream username")
	profileAddCmd.Flags().StringVar(&profileAddFlags.password, "password", "", "Xtream password")
	profileAddCmd.Flags().StringVar(&profileAddFlags.mac, "mac", "", "Stalker device MAC address")
	_ = profileAddCmd.MarkFlagRequired("url")

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	rootCmd.AddCommand(profileCmd)
}
