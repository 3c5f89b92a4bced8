package slack

import (
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// printPoster prints the channel instead of calling the Slack API.
type printPoster struct{}

func (printPoster) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	fmt.Printf("posted to %s with %d options\n", channelID, len(options))
	return channelID, "1700000000.000100", nil
}

func ExampleFormatReviewEvent() {
	text := FormatReviewEvent(integration_models.ReviewEvent{
		Type:          "review_request_published",
		ReviewRequest: 42,
		Summary:       "Fix race in file watcher",
		Actor:         "dana",
		URL:           "https://reviews.example.com/r/42/",
	})

	fmt.Println(text)
	// Output:
	// *New review request* #42: Fix race in file watcher (by dana)
	// <https://reviews.example.com/r/42/>
}

func ExampleSendReviewEvent() {
	err := SendReviewEvent(context.Background(), printPoster{}, "#reviews", "Review Bot", integration_models.ReviewEvent{
		Type:          "review_published",
		ReviewRequest: 7,
	})
	if err != nil {
		fmt.Printf("Error sending message: %v\n", err)
		return
	}
	// Output: posted to #reviews with 2 options
}

func ExampleSendMessageToChannel() {
	err := SendMessageToChannel(context.Background(), printPoster{}, "", "hello", "")
	fmt.Println(err)
	// Output: slack channel is not configured
}
