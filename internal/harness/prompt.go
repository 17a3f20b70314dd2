package harness

import (
	"strings"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// BuildSystemPrompt turns a campaign into the instructions the agent follows.
func BuildSystemPrompt(c *model.Campaign) string {
	var b strings.Builder
	b.WriteString("You are an AI voice agent placing an outbound sales call for the campaign \"")
	b.WriteString(c.Name)
	b.WriteString("\". Keep every reply to one or two short spoken sentences. Never use lists or markdown.\n")

	section := func(title string, body *string) {
		if body == nil || strings.TrimSpace(*body) == "" {
			return
		}
		b.WriteString("\n")
		b.WriteString(title)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(*body))
		b.WriteString("\n")
	}
	section("Objective", c.Objective)
	section("Guidelines", c.Guidelines)
	section("Call flow", c.CallFlow)
	section("Script", &c.Script)
	return b.String()
}

// OpeningLine greets the contact by first name, or the demo contact when none is given.
func OpeningLine(contactName string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(contactName), " ")
	if first == "" {
		return DefaultOpeningLine
	}
	return "Hello, am I speaking with " + first + "?"
}
