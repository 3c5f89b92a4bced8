package slack

import (
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack" // Import the slack package
)

// ErrMissingChannel is returned when no target channel is configured.
var ErrMissingChannel = errors.New("slack channel is not configured")

// Poster is the part of *slack.Client used to deliver messages.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ Poster = (*slack.Client)(nil)

var eventTitles = map[string]string{
	"review_request_published": "New review request",
	"review_request_closed":    "Review request closed",
	"review_request_reopened":  "Review request reopened",
	"review_published":         "New review",
	"reply_published":          "New reply",
}

// FormatReviewEvent renders a review event as Slack message text.
func FormatReviewEvent(event integration_models.ReviewEvent) string {
	title, ok := eventTitles[event.Type]
	if !ok {
		title = strings.ReplaceAll(event.Type, "_", " ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* #%d", title, event.ReviewRequest)
	if event.Summary != "" {
		fmt.Fprintf(&b, ": %s", event.Summary)
	}
	if event.Actor != "" {
		fmt.Fprintf(&b, " (by %s)", event.Actor)
	}
	if event.URL != "" {
		fmt.Fprintf(&b, "\n<%s>", event.URL)
	}
	return b.String()
}

// SendMessageToChannel posts text to a Slack channel, optionally under a
// custom display name.
func SendMessageToChannel(ctx context.Context, poster Poster, channelID string, text string, username string) error {
	if channelID == "" {
		return ErrMissingChannel
	}

	msgOptions := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if username != "" {
		msgOptions = append(msgOptions, slack.MsgOptionUsername(username))
	}

	_, _, err := poster.PostMessageContext(ctx, channelID, msgOptions...)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack channel %s: %w", channelID, err)
	}
	return nil
}

// SendReviewEvent formats event and posts it to channelID.
func SendReviewEvent(ctx context.Context, poster Poster, channelID string, username string, event integration_models.ReviewEvent) error {
	return SendMessageToChannel(ctx, poster, channelID, FormatReviewEvent(event), username)
}
