// Package slack posts catalog tool run summaries to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"catalogtool/internal/integrations/llm"
	"catalogtool/internal/muscles"
)

type Notifier struct {
	api       *slack.Client
	channelID string
}

func NewNotifier(token, channelID string, opts ...slack.Option) *Notifier {
	return &Notifier{api: slack.New(token, opts...), channelID: channelID}
}

// RunReport is what gets posted after a fill-muscles run.
type RunReport struct {
	Summary  muscles.Summary
	Provider string
	Model    string
	Usage    llm.LLMUsage
}

func FormatRunReport(r RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Muscle fill* (%s / %s)\n", r.Provider, r.Model)
	b.WriteString(r.Summary.Line())
	fmt.Fprintf(&b, "\nProcessed %d, request failures %d, rejected %d",
		r.Summary.Processed, r.Summary.RequestFailed, r.Summary.Rejected)
	if total := r.Usage.TotalTokens(); total > 0 {
		fmt.Fprintf(&b, ", tokens %d", total)
	}
	if failed := failedNames(r.Summary.Outcomes, 10); len(failed) > 0 {
		fmt.Fprintf(&b, "\nStill unlabeled: %s", strings.Join(failed, ", "))
	}
	fmt.Fprintf(&b, "\nRun `%s`", r.Summary.RunID)
	return b.String()
}

func failedNames(outcomes []muscles.Outcome, max int) []string {
	var names []string
	for _, o := range outcomes {
		if o.State == muscles.StateAccepted {
			continue
		}
		if len(names) == max {
			names = append(names, "...")
			break
		}
		names = append(names, o.Name)
	}
	return names
}

func (n *Notifier) PostRunReport(ctx context.Context, r RunReport) error {
	return n.PostText(ctx, FormatRunReport(r))
}

// PostText sends a plain mrkdwn message to the configured channel.
func (n *Notifier) PostText(ctx context.Context, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("posting to slack channel %s: %w", n.channelID, err)
	}
	return nil
}
