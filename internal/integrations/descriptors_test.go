package integrations

import (
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSlackDescriptor_ValidateConfig(t *testing.T) {
	d := SlackDescriptor()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr string
	}{
		{name: "valid", config: map[string]any{"bot_token": "xoxb-1", "channel": "#dev"}},
		{name: "default channel", config: map[string]any{"bot_token": "xoxb-1"}},
		{name: "missing token", config: map[string]any{}, wantErr: "'bot_token' is required"},
		{name: "user token", config: map[string]any{"bot_token": "xoxp-1"}, wantErr: "xoxb-"},
		{name: "empty channel", config: map[string]any{"bot_token": "xoxb-1", "channel": ""}, wantErr: "'channel'"},
		{name: "non-string channel", config: map[string]any{"bot_token": "xoxb-1", "channel": 5}, wantErr: "'channel'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.ValidateConfig(tt.config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.True(t, d.IsSecret(integration_models.SlackBotToken))
	assert.False(t, d.IsSecret(integration_models.SlackChannel))
}

func TestSlackIntegration_Lifecycle(t *testing.T) {
	d := SlackDescriptor()
	settings := NewSettings(map[string]any{"bot_token": "xoxb-test"}, d.DefaultConfiguration)
	s := d.New(settings, zap.NewNop())
	ctx := context.Background()

	assert.False(t, s.IsRunning())
	err := s.(Notifier).Notify(ctx, integration_models.ReviewEvent{Type: "review_published"})
	assert.ErrorIs(t, err, ErrNotSupported)

	require.NoError(t, s.Initialize(ctx))
	assert.True(t, s.IsRunning())
	impl := s.(*SlackIntegration)
	assert.Equal(t, "#reviews", impl.channel)
	assert.Equal(t, "Review Bot", impl.username)

	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, s.IsRunning())
}

func TestSlackIntegration_InitializeWithoutToken(t *testing.T) {
	d := SlackDescriptor()
	s := d.New(NewSettings(nil, d.DefaultConfiguration), zap.NewNop())

	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrUnknownSetting)
	assert.False(t, s.IsRunning())
}

func TestSlackIntegration_TestConnectionWithoutToken(t *testing.T) {
	d := SlackDescriptor()
	s := d.New(NewSettings(nil, d.DefaultConfiguration), zap.NewNop())

	result, err := s.(ConnectionTester).TestConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "bot_token")
}

func TestNotionDescriptor_ValidateConfig(t *testing.T) {
	d := NotionDescriptor()

	assert.NoError(t, d.ValidateConfig(map[string]any{"integration_secret": "secret_x", "database_id": "db"}))
	assert.ErrorContains(t, d.ValidateConfig(map[string]any{"database_id": "db"}), "'integration_secret'")
	assert.ErrorContains(t, d.ValidateConfig(map[string]any{"integration_secret": "secret_x"}), "'database_id'")
	assert.True(t, d.IsSecret(integration_models.NotionIntegrationSecret))
}

func TestNotionIntegration_Lifecycle(t *testing.T) {
	d := NotionDescriptor()
	settings := NewSettings(map[string]any{"integration_secret": "secret_x", "database_id": "db"}, d.DefaultConfiguration)
	n := d.New(settings, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.Initialize(ctx))
	assert.True(t, n.IsRunning())
	assert.Equal(t, "Name", n.(*NotionIntegration).titleProperty)

	require.NoError(t, n.Shutdown(ctx))
	assert.False(t, n.IsRunning())
	assert.ErrorIs(t, n.(Notifier).Notify(ctx, integration_models.ReviewEvent{}), ErrNotSupported)
}

func TestNotionPageTitle(t *testing.T) {
	assert.Equal(t, "[review_published] Review request #12: Fix the parser",
		NotionPageTitle(integration_models.ReviewEvent{Type: "review_published", ReviewRequest: 12, Summary: "Fix the parser"}))
	assert.Equal(t, "[review_request_closed] Review request #3",
		NotionPageTitle(integration_models.ReviewEvent{Type: "review_request_closed", ReviewRequest: 3}))
}
