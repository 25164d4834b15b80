package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveFlags struct {
	profileName string
	channelID   int
}

// resolveCmd resolves a channel id to its playable stream address.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a channel to its playable stream address",
	Long: `Log in with a saved profile and print the playable address for one
channel. Xtream addresses are synthesized from the session credentials, M3U
addresses come from the playlist, and Stalker addresses are minted by the
portal's create_link endpoint.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.GetByName(ctx, resolveFlags.profileName)
		if err != nil {
			return err
		}

		mgr := newSessionManager()
		if err := loginWithProfile(ctx, mgr, p); err != nil {
			return fmt.Errorf("logging in with profile %q: %w", p.Name, err)
		}
		defer mgr.Logout()

		address, err := mgr.ResolveStreamURL(ctx, resolveFlags.channelID)
		if err != nil {
			return fmt.Errorf("resolving channel %d: %w", resolveFlags.channelID, err)
		}
		fmt.Println(address)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFlags.profileName, "profile", "", "saved profile name")
	resolveCmd.Flags().IntVar(&resolveFlags.channelID, "channel", 0, "channel id to resolve")
	_ = resolveCmd.MarkFlagRequired("profile")
	_ = resolveCmd.MarkFlagRequired("channel")
	rootCmd.AddCommand(resolveCmd)
}
