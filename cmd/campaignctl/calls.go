package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

func newCallsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Inspect call history",
	}
	cmd.AddCommand(newCallsListCommand(ctx))
	cmd.AddCommand(newCallsStatusCommand(ctx))
	return cmd
}

func newCallsListCommand(ctx *commandContext) *cobra.Command {
	var campaignID int
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List call history, optionally for one campaign or contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			var (
				calls []model.CallHistory
				err   error
			)
			if campaignID > 0 {
				calls, err = c.ListCallHistoryByCampaign(cmd.Context(), campaignID)
			} else {
				calls, err = c.ListCallHistory(cmd.Context(), email)
			}
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, calls)
			}
			if len(calls) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No calls")
				return nil
			}
			rows := make([][]string, 0, len(calls))
			for _, h := range calls {
				campaign := "-"
				if h.CampaignID != nil {
					campaign = strconv.Itoa(*h.CampaignID)
				}
				rows = append(rows, []string{
					strconv.Itoa(h.ID),
					campaign,
					h.ContactName,
					h.ContactPhone,
					h.Status,
					h.CallDate.Local().Format(time.DateTime),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Campaign", "Contact", "Phone", "Status", "Date"},
				rows,
				[]columnAlignment{alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&campaignID, "campaign", 0, "Only calls for this campaign id")
	cmd.Flags().StringVar(&email, "email", "", "Only calls to this contact email")
	return cmd
}

func newCallsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the outcome of a call",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			h, err := ctx.client().UpdateCallStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Call #%d is now %q\n", h.ID, h.Status)
			return nil
		},
	}
}
