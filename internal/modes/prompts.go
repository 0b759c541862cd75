package modes

import (
	"strings"
	"text/template"
)

// DefaultCouncilRoles is the cyclic list applied when no roles are
// configured and auto-assignment is off or fails.
var DefaultCouncilRoles = []string{
	"Analyst",
	"Skeptic",
	"Visionary",
	"Pragmatist",
	"Ethicist",
	"Historian",
	"Advocate",
	"Generalist",
}

// DefaultAudiences is the cyclic audience list for explainer mode.
var DefaultAudiences = []string{
	"a curious ten-year-old",
	"a domain expert who wants depth and precision",
	"a newcomer with no background in the subject",
	"a busy decision-maker who needs the practical takeaway",
}

// FallbackSynthesisText is the honest replacement used when a final
// synthesis or summary call fails. It is never propagated as an error.
const FallbackSynthesisText = "A synthesis could not be produced; the individual responses above stand on their own."

// FallbackRoutingText is used when routing fails outright.
const FallbackRoutingText = "Routing failed; defaulting to the first available instance."

const debateOpeningTmpl = `You are taking part in a structured debate on the question below. Your assigned position is "{{.Position}}".

Question: {{.Question}}

Argue the {{.Position}} side. Present your strongest opening argument in 2-3 paragraphs. Be persuasive but intellectually honest.`

const debateRebuttalTmpl = `You are debating the question: "{{.Question}}". Your assigned position is "{{.Position}}".

The previous round went:

{{.Transcript}}

Respond to the strongest opposing points and reinforce your position. Keep it focused.`

const debateSummaryTmpl = `You moderated a debate on: "{{.Question}}"

Full transcript:

{{.Transcript}}

Write a single conclusive answer to the original question, weighing the strongest arguments from both sides. Do not take a side by default; follow the better arguments.`

const councilOpeningTmpl = `You are the {{.Role}} on a council convened to answer:

{{.Question}}

Give your contribution from the {{.Role}} perspective. 2-3 paragraphs.`

const councilRoundTmpl = `You are the {{.Role}} on a council discussing: "{{.Question}}"

The previous round of discussion:

{{.Transcript}}

Build on, refine or challenge what was said, staying in your {{.Role}} perspective.`

const councilSynthesisTmpl = `You are synthesizing a council discussion on: "{{.Question}}"

Full discussion across all rounds:

{{.Transcript}}

Produce one conclusive, balanced answer that reflects the council's best thinking.`

var promptTemplates = template.Must(template.New("debate_opening").Parse(debateOpeningTmpl))

func init() {
	template.Must(promptTemplates.New("debate_rebuttal").Parse(debateRebuttalTmpl))
	template.Must(promptTemplates.New("debate_summary").Parse(debateSummaryTmpl))
	template.Must(promptTemplates.New("council_opening").Parse(councilOpeningTmpl))
	template.Must(promptTemplates.New("council_round").Parse(councilRoundTmpl))
	template.Must(promptTemplates.New("council_synthesis").Parse(councilSynthesisTmpl))
}

// renderPrompt executes a named prompt template. Templates are package
// constants, so execution cannot fail on well-formed data.
func renderPrompt(name string, data map[string]any) string {
	var sb strings.Builder
	if err := promptTemplates.ExecuteTemplate(&sb, name, data); err != nil {
		return ""
	}
	return sb.String()
}
