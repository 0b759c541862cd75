package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nhalim/symposium/internal/core"
)

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct{}

// Export writes the session as Markdown.
func (e *MarkdownExporter) Export(session *core.Session, turns []*core.Turn, w io.Writer) error {
	var sb strings.Builder

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", session.Title))

	// Metadata
	sb.WriteString("## Session Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", session.ID))
	sb.WriteString(fmt.Sprintf("- **Mode:** %s\n", session.Mode))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", session.Status))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", session.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	if session.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed:** %s\n", session.CompletedAt.Format("January 2, 2006 at 3:04 PM")))
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(session.CreatedAt, *session.CompletedAt)))
	}
	if session.Usage.TotalTokens > 0 {
		sb.WriteString(fmt.Sprintf("- **Tokens:** %d\n", session.Usage.TotalTokens))
	}
	sb.WriteString("\n")

	// Prompt
	sb.WriteString("## Prompt\n\n")
	sb.WriteString(session.Prompt)
	sb.WriteString("\n\n")

	// Participants
	if len(session.Instances) > 0 {
		sb.WriteString("## Participants\n\n")
		for _, inst := range session.Instances {
			sb.WriteString(fmt.Sprintf("- **%s** (`%s`)\n", inst.DisplayName(), inst.Model))
		}
		sb.WriteString("\n")
	}

	// Discussion
	sb.WriteString("## Discussion\n\n")

	if len(turns) == 0 {
		sb.WriteString("*No turns recorded.*\n\n")
	} else {
		rounds := make(map[int][]*core.Turn)
		var keys []int
		for _, t := range turns {
			if _, ok := rounds[t.Round]; !ok {
				keys = append(keys, t.Round)
			}
			rounds[t.Round] = append(rounds[t.Round], t)
		}
		sort.Ints(keys)

		for _, r := range keys {
			if len(keys) > 1 {
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", r+1))
			}

			for _, turn := range rounds[r] {
				name := instanceName(session, turn.InstanceID)
				if turn.Role != "" {
					sb.WriteString(fmt.Sprintf("#### %s (%s)\n\n", name, turn.Role))
				} else {
					sb.WriteString(fmt.Sprintf("#### %s\n\n", name))
				}
				sb.WriteString(fmt.Sprintf("*%s*\n\n", turn.CreatedAt.Format("3:04 PM")))
				sb.WriteString(turn.Content)
				sb.WriteString("\n\n---\n\n")
			}
		}
	}

	// Results
	if len(session.Results) > 0 {
		sb.WriteString("## Results\n\n")
		for _, res := range session.Results {
			if res == nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", instanceName(session, res.InstanceID)))
			sb.WriteString(res.Content)
			sb.WriteString("\n\n")
		}
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from symposium*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
