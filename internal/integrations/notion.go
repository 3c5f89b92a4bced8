package integrations

import (
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

// NotionIntegrationID is the registry key of the Notion integration.
const NotionIntegrationID = "notion"

var (
	_ Integration      = (*NotionIntegration)(nil)
	_ ConnectionTester = (*NotionIntegration)(nil)
	_ Notifier         = (*NotionIntegration)(nil)
)

// NotionDescriptor describes the Notion review log integration.
func NotionDescriptor() *Descriptor {
	return &Descriptor{
		ID:                  NotionIntegrationID,
		Name:                "Notion review log",
		Description:         "Records review activity as pages in a Notion database.",
		IconPath:            "images/integrations/notion.png",
		AllowsLocalScoping:  true,
		NeedsAuthentication: true,
		DefaultConfiguration: map[string]any{
			integration_models.NotionTitleProperty: "Name",
		},
		SecretKeys:     []string{integration_models.NotionIntegrationSecret},
		ValidateConfig: validateNotionConfig,
		New:            NewNotionIntegration,
	}
}

func validateNotionConfig(configuration map[string]any) error {
	secret, _ := configuration[integration_models.NotionIntegrationSecret].(string)
	if secret == "" {
		return errors.New("'integration_secret' is required in Notion configuration")
	}
	databaseID, _ := configuration[integration_models.NotionDatabaseID].(string)
	if databaseID == "" {
		return errors.New("'database_id' is required in Notion configuration")
	}
	return nil
}

// NotionIntegration appends review activity to a Notion database.
type NotionIntegration struct {
	settings *Settings
	logger   *zap.Logger

	mu            sync.RWMutex
	client        *notionapi.Client
	databaseID    string
	titleProperty string
	running       bool
}

// NewNotionIntegration creates a Notion instance bound to settings.
func NewNotionIntegration(settings *Settings, logger *zap.Logger) Integration {
	return &NotionIntegration{settings: settings, logger: logger}
}

// Initialize builds the Notion client.
func (n *NotionIntegration) Initialize(ctx context.Context) error {
	secret, err := n.settings.String(integration_models.NotionIntegrationSecret)
	if err != nil {
		return err
	}
	databaseID, err := n.settings.String(integration_models.NotionDatabaseID)
	if err != nil {
		return err
	}
	titleProperty, err := n.settings.String(integration_models.NotionTitleProperty)
	if err != nil {
		return err
	}
	if secret == "" || databaseID == "" {
		return fmt.Errorf("%w: 'integration_secret' and 'database_id' must not be empty", ErrInvalidSetting)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = notionapi.NewClient(notionapi.Token(secret))
	n.databaseID = databaseID
	n.titleProperty = titleProperty
	n.running = true
	return nil
}

// Shutdown drops the client.
func (n *NotionIntegration) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = nil
	n.running = false
	return nil
}

// IsRunning reports whether the client is active.
func (n *NotionIntegration) IsRunning() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.running
}

// NotionPageTitle is the title given to the page recorded for event.
func NotionPageTitle(event integration_models.ReviewEvent) string {
	title := fmt.Sprintf("[%s] Review request #%d", event.Type, event.ReviewRequest)
	if event.Summary != "" {
		title += ": " + event.Summary
	}
	return title
}

// Notify creates a page for the event in the configured database.
func (n *NotionIntegration) Notify(ctx context.Context, event integration_models.ReviewEvent) error {
	n.mu.RLock()
	client, databaseID, titleProperty, running := n.client, n.databaseID, n.titleProperty, n.running
	n.mu.RUnlock()

	if !running || client == nil {
		return fmt.Errorf("%w: notion integration is not running", ErrNotSupported)
	}

	title := notionapi.Text{Content: NotionPageTitle(event)}
	if event.URL != "" {
		title.Link = &notionapi.Link{Url: event.URL}
	}

	_, err := client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: notionapi.Properties{
			titleProperty: notionapi.TitleProperty{
				Title: []notionapi.RichText{{Text: &title}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create Notion page in database %s: %w", databaseID, err)
	}
	return nil
}

// TestConnection tests the connection to Notion using the integration secret.
func (n *NotionIntegration) TestConnection(ctx context.Context) (*integration_models.TestConnectionResult, error) {
	integrationSecret, err := n.settings.String(integration_models.NotionIntegrationSecret)
	if err != nil || integrationSecret == "" {
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: "Missing or empty 'integration_secret' in Notion configuration",
		}, nil
	}

	client := notionapi.NewClient(notionapi.Token(integrationSecret))

	// The bot's own user is a cheap read that needs no shared pages.
	botUser, err := client.User.Me(ctx)
	if err != nil {
		var notionErr *notionapi.Error
		if errors.As(err, &notionErr) {
			message := fmt.Sprintf("Notion API error (%s): %s", notionErr.Code, notionErr.Message)
			if notionErr.Status == 401 {
				message = "Notion API Error: Invalid API key (Unauthorized)."
			}
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: message,
			}, nil
		}
		n.logger.Error("[NotionIntegration] TestConnection: request failed", zap.Error(err))
		return nil, fmt.Errorf("failed during Notion connection test: %w", err)
	}

	var botName string
	if botUser != nil && botUser.Type == notionapi.UserTypeBot && botUser.Bot != nil {
		botName = botUser.Name
	}

	return &integration_models.TestConnectionResult{
		Success: true,
		Message: fmt.Sprintf("Successfully connected to Notion and verified token for Bot: '%s'", botName),
		Details: map[string]interface{}{"bot_name": botName},
	}, nil
}
