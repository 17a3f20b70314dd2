package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/unclebandit/voicecampaign-backend/pkg/client"
)

type commandContext struct {
	server string
	token  string
	json   bool
}

func (c *commandContext) client() *client.Client {
	return client.New(c.server, client.WithToken(c.token))
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Manage voice campaigns",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.server, "server", envOr("CAMPAIGNCTL_SERVER", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&ctx.token, "token", os.Getenv("CAMPAIGNCTL_TOKEN"), "Bearer token from `campaignctl login`")
	rootCmd.PersistentFlags().BoolVar(&ctx.json, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(newCampaignsCommand(ctx))
	rootCmd.AddCommand(newCallsCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newVoicesCommand(ctx))
	rootCmd.AddCommand(newAudienceCommand(ctx))

	return rootCmd
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
