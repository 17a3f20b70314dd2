package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/pkg/client"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and print a token for --token or CAMPAIGNCTL_TOKEN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.client().Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, session)
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			return nil
		},
	}
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voice labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := ctx.client().Voices(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, voices)
			}
			for _, v := range voices {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func newAudienceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audience [query]",
		Short: "Search the contact directory by name, email or phone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			contacts, err := ctx.client().SearchAudience(cmd.Context(), query)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, contacts)
			}
			rows := make([][]string, 0, len(contacts))
			for _, c := range contacts {
				rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, c.Phone, c.Email, c.Status})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Phone", "Email", "Status"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

// remoteDirectory serves the wizard's audience step from the API.
type remoteDirectory struct {
	c *client.Client
}

func (d remoteDirectory) Search(ctx context.Context, query string) ([]model.Contact, error) {
	return d.c.SearchAudience(ctx, query)
}

func (d remoteDirectory) Get(ctx context.Context, id int) (*model.Contact, error) {
	all, err := d.c.SearchAudience(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, appErrors.NewNotFound("contact", id)
}

var _ audience.Directory = remoteDirectory{}
