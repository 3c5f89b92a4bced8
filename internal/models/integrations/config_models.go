package integrations

// Setting keys understood by the Slack integration.
const (
	SlackBotToken       = "bot_token"
	SlackChannel        = "channel"
	SlackNotifyUsername = "notify_username"
)

// Setting keys understood by the Notion integration.
const (
	NotionIntegrationSecret = "integration_secret"
	NotionDatabaseID        = "database_id"
	NotionTitleProperty     = "title_property"
)

// Represents the standard structure for testing an integration's connection.
type TestConnectionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"` // Optional message, e.g., error details or success confirmation
	Details map[string]interface{} `json:"details,omitempty"` // Optional map for extra details (e.g., {"bot_name": "..."})
}

// ReviewEvent is a code review activity forwarded to notification integrations.
type ReviewEvent struct {
	Type          string
	ReviewRequest int64
	Summary       string
	URL           string
	Actor         string
}
