package generation

import (
	"fmt"
	"strings"

	"dashboard-assistant-be/pkg/knowledge"
)

// PromptBuilder renders a context bundle into the system prompt
type PromptBuilder struct {
	bundle *knowledge.ContextBundle
}

func NewPromptBuilder(bundle *knowledge.ContextBundle) *PromptBuilder {
	return &PromptBuilder{bundle: bundle}
}

// Build lays out task, records and guidelines as tagged sections
func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeRecords(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *PromptBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a workspace assistant. Answer questions about the user's notes, meetings, priorities, stakeholders, emails and market insights.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *PromptBuilder) writeRecords(prompt *strings.Builder) {
	prompt.WriteString("<records>\n")
	if b.bundle == nil || len(b.bundle.Entries) == 0 {
		prompt.WriteString("No matching records were found.\n")
		prompt.WriteString("</records>\n\n")
		return
	}

	prompt.WriteString(b.bundle.Preamble)
	prompt.WriteString("\n")
	for i, e := range b.bundle.Entries {
		fmt.Fprintf(prompt, "%d. [%s] %s (%s)\n", i+1, e.Type, e.Title, e.Recency)
		if e.Snippet != "" {
			prompt.WriteString("   ")
			prompt.WriteString(e.Snippet)
			prompt.WriteString("\n")
		}
	}
	prompt.WriteString("</records>\n\n")
}

func (b *PromptBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer on the records above and the conversation so far\n")
	prompt.WriteString("2. Mention record titles when you rely on them\n")
	prompt.WriteString("3. If the records do not contain the answer, say so honestly\n")
	prompt.WriteString("4. Keep the answer short and well organized\n")
	prompt.WriteString("</guidelines>")
}
