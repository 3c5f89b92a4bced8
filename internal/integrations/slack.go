package integrations

import (
	slacksender "codereview-backend/internal/integrations/slack"
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackIntegrationID is the registry key of the Slack integration.
const SlackIntegrationID = "slack"

// Ensure SlackIntegration implements the optional capabilities.
var (
	_ Integration      = (*SlackIntegration)(nil)
	_ ConnectionTester = (*SlackIntegration)(nil)
	_ Notifier         = (*SlackIntegration)(nil)
)

// SlackDescriptor describes the Slack integration.
func SlackDescriptor() *Descriptor {
	return &Descriptor{
		ID:                  SlackIntegrationID,
		Name:                "Slack",
		Description:         "Notifies Slack channels about review requests and reviews.",
		IconPath:            "images/integrations/slack.png",
		AllowsLocalScoping:  true,
		NeedsAuthentication: true,
		DefaultConfiguration: map[string]any{
			integration_models.SlackChannel:        "#reviews",
			integration_models.SlackNotifyUsername: "Review Bot",
		},
		SecretKeys:     []string{integration_models.SlackBotToken},
		ValidateConfig: validateSlackConfig,
		New:            NewSlackIntegration,
	}
}

func validateSlackConfig(configuration map[string]any) error {
	token, _ := configuration[integration_models.SlackBotToken].(string)
	if token == "" {
		return errors.New("'bot_token' is required in Slack configuration")
	}
	if !strings.HasPrefix(token, "xoxb-") {
		return errors.New("'bot_token' must be a Slack bot token (xoxb-...)")
	}
	if v, ok := configuration[integration_models.SlackChannel]; ok {
		if channel, isString := v.(string); !isString || channel == "" {
			return errors.New("'channel' must be a non-empty string")
		}
	}
	return nil
}

// SlackIntegration posts review activity to a Slack channel.
type SlackIntegration struct {
	settings *Settings
	logger   *zap.Logger

	mu       sync.RWMutex
	client   *slack.Client
	channel  string
	username string
	running  bool
}

// NewSlackIntegration creates a Slack instance bound to settings.
func NewSlackIntegration(settings *Settings, logger *zap.Logger) Integration {
	return &SlackIntegration{settings: settings, logger: logger}
}

// Initialize builds the Slack client from the configured bot token.
func (s *SlackIntegration) Initialize(ctx context.Context) error {
	token, err := s.settings.String(integration_models.SlackBotToken)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: empty 'bot_token'", ErrInvalidSetting)
	}
	channel, err := s.settings.String(integration_models.SlackChannel)
	if err != nil {
		return err
	}
	username, err := s.settings.String(integration_models.SlackNotifyUsername)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = slack.New(token)
	s.channel = channel
	s.username = username
	s.running = true
	s.logger.Debug("[SlackIntegration] Initialize: client ready", zap.String("channel", channel))
	return nil
}

// Shutdown drops the client. Safe to call more than once.
func (s *SlackIntegration) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.running = false
	return nil
}

// IsRunning reports whether the client is active.
func (s *SlackIntegration) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Notify posts the event to the configured channel.
func (s *SlackIntegration) Notify(ctx context.Context, event integration_models.ReviewEvent) error {
	s.mu.RLock()
	client, channel, username, running := s.client, s.channel, s.username, s.running
	s.mu.RUnlock()

	if !running || client == nil {
		return fmt.Errorf("%w: slack integration is not running", ErrNotSupported)
	}
	return slacksender.SendReviewEvent(ctx, client, channel, username, event)
}

// TestConnection tests the connection to Slack using the bot token.
func (s *SlackIntegration) TestConnection(ctx context.Context) (*integration_models.TestConnectionResult, error) {
	botToken, err := s.settings.String(integration_models.SlackBotToken)
	if err != nil || botToken == "" {
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: "Missing or empty 'bot_token' in Slack configuration",
		}, nil
	}

	client := slack.New(botToken)

	// auth.test is the cheapest call that verifies the token.
	authTestResponse, err := client.AuthTestContext(ctx)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "invalid_auth") {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: "Slack API Error: Invalid authentication token (bot_token).",
			}, nil
		} else if strings.Contains(errStr, "not_authed") {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: "Slack API Error: Not authenticated (check token scopes?).",
			}, nil
		} else if strings.Contains(errStr, "account_inactive") {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: "Slack API Error: The workspace or bot account is inactive.",
			}, nil
		}

		s.logger.Error("[SlackIntegration] TestConnection: Unhandled Slack API error or system error", zap.Error(err))
		return nil, fmt.Errorf("failed during Slack connection test (AuthTest): %w", err)
	}

	botName := authTestResponse.User
	return &integration_models.TestConnectionResult{
		Success: true,
		Message: fmt.Sprintf("Successfully connected to Slack workspace '%s' and verified token for Bot '%s' (ID: %s)", authTestResponse.Team, botName, authTestResponse.UserID),
		Details: map[string]interface{}{
			"bot_name":    botName,
			"bot_user_id": authTestResponse.UserID,
			"team_id":     authTestResponse.TeamID,
		},
	}, nil
}
