package integrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Lookup(t *testing.T) {
	s := NewSettings(
		map[string]any{"channel": "#dev", "enabled": true},
		map[string]any{"channel": "#reviews", "username": "Review Bot"},
	)

	t.Run("instance value wins", func(t *testing.T) {
		v, err := s.String("channel")
		require.NoError(t, err)
		assert.Equal(t, "#dev", v)
	})

	t.Run("falls back to default", func(t *testing.T) {
		v, err := s.String("username")
		require.NoError(t, err)
		assert.Equal(t, "Review Bot", v)
	})

	t.Run("unknown key names the key", func(t *testing.T) {
		_, err := s.Get("webhook_url")
		require.ErrorIs(t, err, ErrUnknownSetting)
		assert.Contains(t, err.Error(), `"webhook_url"`)
		assert.False(t, s.Has("webhook_url"))
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := s.Bool("channel")
		assert.ErrorIs(t, err, ErrInvalidSetting)
		_, err = s.String("enabled")
		assert.ErrorIs(t, err, ErrInvalidSetting)

		b, err := s.Bool("enabled")
		require.NoError(t, err)
		assert.True(t, b)
	})
}

func TestSettings_CopiesAndEffective(t *testing.T) {
	values := map[string]any{"channel": "#dev"}
	defaults := map[string]any{"channel": "#reviews", "username": "Review Bot"}
	s := NewSettings(values, defaults)

	values["channel"] = "#changed"
	v, _ := s.String("channel")
	assert.Equal(t, "#dev", v)

	s.Set("token", "xoxb-1")
	assert.Equal(t, map[string]any{"channel": "#dev", "token": "xoxb-1"}, s.Values())
	assert.Equal(t, map[string]any{"channel": "#dev", "token": "xoxb-1", "username": "Review Bot"}, s.Effective())
	assert.Equal(t, []string{"channel", "token", "username"}, s.Keys())

	_, inDefaults := defaults["token"]
	assert.False(t, inDefaults)
}

func TestConfigured_PublicConfigurationMasksSecrets(t *testing.T) {
	desc := &Descriptor{ID: "slack", SecretKeys: []string{"bot_token", "short", "empty"}}
	entry := &Configured{
		Descriptor: desc,
		Settings: NewSettings(map[string]any{
			"bot_token": "xoxb-123456",
			"short":     "abc",
			"empty":     "",
			"channel":   "#dev",
		}, nil),
	}

	got := entry.PublicConfiguration()
	assert.Equal(t, "xoxb****", got["bot_token"])
	assert.Equal(t, "****", got["short"])
	assert.Equal(t, "", got["empty"])
	assert.Equal(t, "#dev", got["channel"])

	raw, _ := entry.Settings.String("bot_token")
	assert.Equal(t, "xoxb-123456", raw)
}
