package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/unclebandit/voicecampaign-backend/internal/authoring"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/pkg/client"
)

func newCampaignsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"campaign", "c"},
		Short:   "List and manage campaigns",
	}

	cmd.AddCommand(newCampaignsListCommand(ctx))
	cmd.AddCommand(newCampaignsShowCommand(ctx))
	cmd.AddCommand(newCampaignsCreateCommand(ctx))
	cmd.AddCommand(newCampaignsEditCommand(ctx))
	cmd.AddCommand(newCampaignActionCommand(ctx, "toggle", "Flip a campaign between active and inactive", (*client.Client).ToggleCampaign))
	cmd.AddCommand(newCampaignActionCommand(ctx, "duplicate", "Copy a campaign as an inactive draft", (*client.Client).DuplicateCampaign))
	cmd.AddCommand(newCampaignsDeleteCommand(ctx))
	cmd.AddCommand(newCampaignsPreviewCommand(ctx))

	return cmd
}

func newCampaignsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			campaigns, err := ctx.client().ListCampaigns(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, campaigns)
			}
			if len(campaigns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No campaigns")
				return nil
			}
			rows := make([][]string, 0, len(campaigns))
			for _, c := range campaigns {
				rows = append(rows, campaignRow(c))
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Voice", "Max Calls", "Status", "Published"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newCampaignsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a campaign with its call outcome counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			stats, err := ctx.client().CampaignStats(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			c := stats.Campaign
			fmt.Fprintf(out, "%s (#%d, %s)\n", c.Name, c.ID, statusLabel(c.Status))
			fmt.Fprintf(out, "Voice: %s   Max calls: %d\n", c.VoiceType, c.MaxCallCount)
			if c.Objective != nil {
				fmt.Fprintf(out, "Objective: %s\n", *c.Objective)
			}
			fmt.Fprintf(out, "Script:\n  %s\n\n", c.Script)
			rows := [][]string{{"Total", strconv.Itoa(stats.Stats["total"])}}
			for _, label := range []string{model.CallStatusLeadInterested, model.CallStatusNotInterested, model.CallStatusFollowUp} {
				rows = append(rows, []string{label, strconv.Itoa(stats.Stats[label])})
			}
			fmt.Fprint(out, renderTable([]string{"Outcome", "Calls"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

// messageFlags binds the message step fields. Only flags the user set are
// copied onto the wizard so edits keep the existing values.
type messageFlags struct {
	name, script, objective, guidelines, callFlow, voice string
	maxCalls                                             int
	contacts                                             []int
	draft                                                bool
}

func (f *messageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Campaign name")
	cmd.Flags().StringVar(&f.script, "script", "", "Opening script spoken to the contact")
	cmd.Flags().StringVar(&f.objective, "objective", "", "What the call should achieve")
	cmd.Flags().StringVar(&f.guidelines, "guidelines", "", "Conversation guidelines")
	cmd.Flags().StringVar(&f.callFlow, "call-flow", "", "Call flow outline")
	cmd.Flags().StringVar(&f.voice, "voice", "", "Voice label (see `campaignctl voices`)")
	cmd.Flags().IntVar(&f.maxCalls, "max-calls", 0, "Maximum call attempts per contact")
	cmd.Flags().IntSliceVar(&f.contacts, "contact", nil, "Audience contact ids to preview against")
	cmd.Flags().BoolVar(&f.draft, "draft", false, "Save as an inactive draft instead of launching")
}

func (f *messageFlags) apply(cmd *cobra.Command, w *authoring.Wizard) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("name", &w.Message.Name, f.name)
	set("script", &w.Message.Script, f.script)
	set("objective", &w.Message.Objective, f.objective)
	set("guidelines", &w.Message.Guidelines, f.guidelines)
	set("call-flow", &w.Message.CallFlow, f.callFlow)
	set("voice", &w.Message.VoiceType, f.voice)
	if cmd.Flags().Changed("max-calls") {
		w.Message.MaxCallCount = f.maxCalls
	}
}

// runWizard walks every step so errors point at the step that failed.
func runWizard(cmd *cobra.Command, ctx *commandContext, w *authoring.Wizard, f *messageFlags) error {
	f.apply(cmd, w)
	if err := w.Next(); err != nil {
		return fmt.Errorf("%s step: %w", authoring.StepMessage, err)
	}
	for _, id := range f.contacts {
		if _, err := w.Select(cmd.Context(), id); err != nil {
			return fmt.Errorf("%s step: contact %d: %w", authoring.StepAudience, id, err)
		}
	}
	if err := w.Next(); err != nil {
		return fmt.Errorf("%s step: %w", authoring.StepAudience, err)
	}

	submit := w.Launch
	if f.draft {
		submit = w.SaveDraft
	}
	c, err := submit(cmd.Context())
	if err != nil {
		return err
	}
	if ctx.json {
		return writeJSON(cmd, c)
	}
	verb := "Created"
	if w.Editing() {
		verb = "Updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s campaign #%d %q (%s)\n", verb, c.ID, c.Name, statusLabel(c.Status))
	return nil
}

func newCampaignsCreateCommand(ctx *commandContext) *cobra.Command {
	var f messageFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			return runWizard(cmd, ctx, authoring.New(remoteDirectory{c}, c), &f)
		},
	}
	f.register(cmd)
	return cmd
}

func newCampaignsEditCommand(ctx *commandContext) *cobra.Command {
	var f messageFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a campaign; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := ctx.client()
			existing, err := c.GetCampaign(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("draft") {
				f.draft = !existing.Status
			}
			return runWizard(cmd, ctx, authoring.Edit(existing, remoteDirectory{c}, c), &f)
		},
	}
	f.register(cmd)
	return cmd
}

type campaignAction func(*client.Client, context.Context, int) (*model.Campaign, error)

func newCampaignActionCommand(ctx *commandContext, use, short string, action campaignAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := action(ctx.client(), cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %q is %s\n", c.ID, c.Name, statusLabel(c.Status))
			return nil
		},
	}
}

func newCampaignsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := ctx.client().DeleteCampaign(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted campaign #%d\n", id)
			return nil
		},
	}
}

func newCampaignsPreviewCommand(ctx *commandContext) *cobra.Command {
	var contactID int
	var script string
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Render the campaign script for an audience contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var override *string
			if cmd.Flags().Changed("script") {
				override = &script
			}
			p, err := ctx.client().PreviewCampaign(cmd.Context(), id, contactID, override)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.RenderedScript)
			return nil
		},
	}
	cmd.Flags().IntVar(&contactID, "contact", 1, "Audience contact id")
	cmd.Flags().StringVar(&script, "script", "", "Render this script instead of the saved one")
	return cmd
}

func campaignRow(c model.Campaign) []string {
	return []string{
		strconv.Itoa(c.ID),
		c.Name,
		c.VoiceType,
		strconv.Itoa(c.MaxCallCount),
		statusLabel(c.Status),
		c.PublishedAt.Local().Format(time.DateOnly),
	}
}

func statusLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
